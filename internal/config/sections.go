// internal/config/sections.go
//
// Plain (non-database) section specs and the top-level Resolve entry.
//
// Context
// -------
// Besides the database family, the document carries four plain sections:
// command-processing, puppetdb, developer, and global.  Each runs through
// the same defaulting/conversion pipeline; none of them has subsections.
//
// Resolve is the single entry point for the whole engine: it consumes the
// raw document atomically and returns the typed Config, the list of fatal
// issues (only the retired global url-prefix today), or an error.  It is
// pure apart from warning logs, so tests drive it with literal maps.
//
// Notes
// -----
//   - Oxford commas, two spaces after periods.
package config

import (
	"go.uber.org/zap"

	"github.com/openpdb/openpdb/internal/metrics"
)

//
// specs
//

var commandProcessingIn = Spec{
	Section: "command-processing",
	Fields: []Field{
		{Name: "threads", DefaultFn: defaultCommandThreads},
		{Name: "concurrent-writes", DefaultFn: defaultConcurrentWrites},
		{Name: "max-command-size", DefaultFn: defaultMaxCommandSize},
		{Name: "reject-large-commands", Default: "false"},
		{Name: "temp-usage", Default: 25},
	},
}

var commandProcessingOut = Spec{
	Section: "command-processing",
	Fields: []Field{
		{Name: "threads", Type: TypeInt, NonNegative: true},
		{Name: "concurrent-writes", Type: TypeInt, NonNegative: true},
		{Name: "max-command-size", Type: TypeInt, NonNegative: true},
		{Name: "reject-large-commands", Type: TypeBool},
		{Name: "temp-usage", Type: TypeInt, NonNegative: true},
	},
}

var puppetdbIn = Spec{
	Section: "puppetdb",
	Fields: []Field{
		{Name: "certificate-allowlist"},
		{Name: "disable-update-checking", Default: "false"},
		{Name: "add-agent-report-filter", Default: "false"},
	},
}

var puppetdbOut = Spec{
	Section: "puppetdb",
	Fields: []Field{
		{Name: "certificate-allowlist", Type: TypeString, Optional: true},
		{Name: "disable-update-checking", Type: TypeBool},
		{Name: "add-agent-report-filter", Type: TypeBool},
	},
}

var developerIn = Spec{
	Section: "developer",
	Fields: []Field{
		{Name: "pretty-print", Default: "false"},
		{Name: "max-enqueued", Default: 1000},
		{Name: "log-level", Default: "info"},
	},
}

var developerOut = Spec{
	Section: "developer",
	Fields: []Field{
		{Name: "pretty-print", Type: TypeBool},
		{Name: "max-enqueued", Type: TypeInt, NonNegative: true},
		{Name: "log-level", Type: TypeEnum, Enum: []string{"debug", "info", "warn", "error"}},
	},
}

var globalIn = Spec{
	Section: "global",
	Fields: []Field{
		{Name: "vardir"},
		{Name: "product-name", Default: "openpdb"},
		{Name: "update-server", Default: "https://updates.openpdb.org/check"},
	},
}

var globalOut = Spec{
	Section: "global",
	Fields: []Field{
		{Name: "vardir", Type: TypeString, Optional: true},
		{Name: "product-name", Type: TypeEnum, Enum: []string{"openpdb", "pe-openpdb"}},
		{Name: "update-server", Type: TypeString},
	},
}

// retiredURLPrefixGuidance is printed by the caller before exiting.
const retiredURLPrefixGuidance = "the global url-prefix setting is no longer supported; " +
	"mount the service behind a reverse proxy path instead, remove url-prefix " +
	"from the configuration, and restart"

//
// entry point
//

// Resolve turns one raw document into the immutable typed configuration.
// Fatal issues are reported, never acted on; the caller decides whether
// to terminate the process.
func Resolve(raw map[string]Settings) (*Config, []FatalIssue, error) {
	writeProfiles, readProfile, rest, err := resolveDatabaseFamily(raw)
	if err != nil {
		return nil, nil, err
	}

	// The retired url-prefix override is pulled out before the pipeline so
	// it surfaces as a fatal issue rather than a mere unknown-key warning.
	var fatal []FatalIssue
	if globalRaw, ok := rest["global"]; ok {
		if _, ok := globalRaw["url-prefix"]; ok {
			fatal = append(fatal, FatalIssue{
				Setting:  "global/url-prefix",
				Guidance: retiredURLPrefixGuidance,
			})
			globalRaw = cloneWithout(globalRaw, "url-prefix")
			rest["global"] = globalRaw
		}
	}

	plain := map[string]struct{ in, out Spec }{
		"command-processing": {commandProcessingIn, commandProcessingOut},
		"puppetdb":           {puppetdbIn, puppetdbOut},
		"developer":          {developerIn, developerOut},
		"global":             {globalIn, globalOut},
	}

	resolved := make(map[string]Settings, len(plain))
	for name, specs := range plain {
		section := rest[name]
		if section == nil {
			section = Settings{}
		}
		out, err := Normalize(specs.in, specs.out, section, name)
		if err != nil {
			return nil, nil, err
		}
		resolved[name] = out
	}

	for name := range rest {
		if _, known := plain[name]; !known {
			zap.S().Warnw("unknown configuration section ignored", "section", name)
			metrics.ResolutionWarningsTotal.Inc()
		}
	}

	cfg, err := buildConfig(writeProfiles, readProfile, resolved)
	if err != nil {
		return nil, nil, err
	}
	return cfg, fatal, nil
}

func cloneWithout(s Settings, key string) Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		if k != key {
			out[k] = v
		}
	}
	return out
}
