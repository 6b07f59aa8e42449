// internal/config/database.go
//
// Database section resolution.
//
// Context
// -------
// The database family is the one section that uses every engine piece at
// once.  Each profile moves through four states strictly in order:
//
//	Raw → Cascaded → Defaulted/Converted → Fixed-up
//
//  1. Coalesce every `database*` key into one section node.
//  2. Cascade: merge the raw sectionwide settings underneath each
//     subsection's own settings (subsection wins; pure merge, no
//     defaulting yet).
//  3. Normalize each profile through the write-database specs, then apply
//     the fix-ups in order: event-TTL default, user/username
//     reconciliation, migrator-credential default.
//  4. Cross-field validation: non-blank subname, and resource events must
//     not outlive the reports referencing them.
//
// Finally a read profile is resolved: a user-supplied [read-database]
// section goes through the plain (non-write) specs independently, and
// when absent one is synthesized from the primary profile with write-only
// fields stripped and read-only forced true.
//
// Notes
// -----
//   - Oxford commas, two spaces after periods.
package config

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/openpdb/openpdb/internal/metrics"
)

// ReadDatabaseSection is the section holding the user-supplied read
// profile.  It is intentionally not matched by IsDatabaseSectionKey.
const ReadDatabaseSection = "read-database"

//
// specs
//

var writeDatabaseIn = Spec{
	Section: "database",
	Fields: []Field{
		{Name: "subname"},
		{Name: "user", Default: "openpdb"},
		{Name: "username"},
		{Name: "password", Default: "openpdb"},
		{Name: "migrator-username"},
		{Name: "migrator-password"},
		{Name: "report-ttl", Default: "14d"},
		{Name: "resource-events-ttl"},
		{Name: "node-ttl", Default: "7d"},
		{Name: "node-purge-ttl", Default: "14d"},
		{Name: "gc-interval", Default: "60"},
		{Name: "maximum-pool-size", Default: 25},
		{Name: "connection-timeout", Default: 3000},
		{Name: "statement-timeout"},
		{Name: "log-slow-statements", Default: 10},
		{Name: "read-only", Default: "false"},
	},
}

var writeDatabaseOut = Spec{
	Section: "database",
	Fields: []Field{
		{Name: "subname", Type: TypeString, Optional: true},
		{Name: "user", Type: TypeString, Optional: true},
		{Name: "username", Type: TypeString, Optional: true},
		{Name: "password", Type: TypeString, Optional: true},
		{Name: "migrator-username", Type: TypeString, Optional: true},
		{Name: "migrator-password", Type: TypeString, Optional: true},
		{Name: "report-ttl", Type: TypePeriod, NonNegative: true},
		{Name: "resource-events-ttl", Type: TypePeriod, NonNegative: true, Optional: true},
		{Name: "node-ttl", Type: TypePeriod, NonNegative: true},
		{Name: "node-purge-ttl", Type: TypePeriod, NonNegative: true},
		{Name: "gc-interval", Type: TypeMinutes, NonNegative: true},
		{Name: "maximum-pool-size", Type: TypeInt, NonNegative: true},
		{Name: "connection-timeout", Type: TypeInt, NonNegative: true},
		{Name: "statement-timeout", Type: TypeInt, NonNegative: true, Optional: true},
		{Name: "log-slow-statements", Type: TypeInt, NonNegative: true},
		{Name: "read-only", Type: TypeBool},
	},
}

var readDatabaseIn = Spec{
	Section: ReadDatabaseSection,
	Fields: []Field{
		{Name: "subname"},
		{Name: "user", Default: "openpdb"},
		{Name: "username"},
		{Name: "password", Default: "openpdb"},
		{Name: "maximum-pool-size", Default: 25},
		{Name: "connection-timeout", Default: 3000},
		{Name: "statement-timeout"},
		{Name: "log-slow-statements", Default: 10},
		{Name: "read-only", Default: "true"},
	},
}

var readDatabaseOut = Spec{
	Section: ReadDatabaseSection,
	Fields: []Field{
		{Name: "subname", Type: TypeString, Optional: true},
		{Name: "user", Type: TypeString, Optional: true},
		{Name: "username", Type: TypeString, Optional: true},
		{Name: "password", Type: TypeString, Optional: true},
		{Name: "maximum-pool-size", Type: TypeInt, NonNegative: true},
		{Name: "connection-timeout", Type: TypeInt, NonNegative: true},
		{Name: "statement-timeout", Type: TypeInt, NonNegative: true, Optional: true},
		{Name: "log-slow-statements", Type: TypeInt, NonNegative: true},
		{Name: "read-only", Type: TypeBool},
	},
}

// Retired per-database keys: tolerated, warned, stripped before the
// pipeline would report them as unknown.
var retiredDatabaseKeys = []string{"classname", "subprotocol"}

//
// matcher
//

// IsDatabaseSectionKey reports whether a top-level document key belongs to
// the write-database section family: `database`, `database "name"`, or
// either form wrapped in brackets.
func IsDatabaseSectionKey(key string) bool {
	k := key
	if strings.HasPrefix(k, "[") && strings.HasSuffix(k, "]") {
		k = k[1 : len(k)-1]
	}
	if k == "database" {
		return true
	}
	return strings.HasPrefix(k, "database ") || strings.HasPrefix(k, "database\t")
}

//
// resolution
//

// resolveDatabaseFamily resolves every write profile plus the read
// profile from the raw document and returns the non-database sections
// untouched.
func resolveDatabaseFamily(raw map[string]Settings) (map[string]Settings, Settings, map[string]Settings, error) {
	tree, passthrough, err := Coalesce(raw, IsDatabaseSectionKey)
	if err != nil {
		return nil, nil, nil, err
	}

	node := tree["database"]
	if node.Settings == nil {
		node.Settings = Settings{}
	}

	// State Raw → Cascaded: pure merge, sectionwide underneath.
	cascaded, err := ResolveSubsections(node, cascadeSectionwide)
	if err != nil {
		return nil, nil, nil, err
	}

	// State Cascaded → Defaulted/Converted → Fixed-up.  When subsections
	// exist the cascade already folded the sectionwide settings into each
	// of them, so the second pass runs over an empty sectionwide map and
	// its (discarded) base result carries no operator data.
	second := Node{Settings: cascaded[DefaultProfile]}
	if len(node.Subsections) > 0 {
		second = Node{Settings: Settings{}, Subsections: cascaded}
	}
	profiles, err := ResolveSubsections(second, normalizeWriteProfile)
	if err != nil {
		return nil, nil, nil, err
	}

	for name, profile := range profiles {
		if err := validateWriteProfile(databaseWhere(name, len(node.Subsections) > 0), profile); err != nil {
			return nil, nil, nil, err
		}
	}

	readProfile, err := resolveReadProfile(passthrough, profiles)
	if err != nil {
		return nil, nil, nil, err
	}
	delete(passthrough, ReadDatabaseSection)

	return profiles, readProfile, passthrough, nil
}

// cascadeSectionwide merges the raw sectionwide settings underneath one
// subsection's settings.  Subsection values win on conflict; nothing is
// defaulted or converted at this stage.  Inheritance is decided by key
// presence alone: an explicit zero or blank in the subsection shadows the
// sectionwide value.
func cascadeSectionwide(_ string, sectionwide, raw Settings) (Settings, error) {
	merged := make(Settings, len(raw)+len(sectionwide))
	for k, v := range raw {
		merged[k] = v
	}
	for k, v := range sectionwide {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return merged, nil
}

// normalizeWriteProfile runs the pipeline with the write specs and then
// the ordered fix-ups.
func normalizeWriteProfile(subsection string, _ Settings, raw Settings) (Settings, error) {
	where := databaseWhere(subsection, subsection != "")

	work := stripRetired(raw, where)
	resolved, err := Normalize(writeDatabaseIn, writeDatabaseOut, work, where)
	if err != nil {
		return nil, err
	}
	return applyWriteFixups(resolved, subsection, where)
}

// applyWriteFixups derives and reconciles fields on a converted profile.
// Order matters: the migrator default assumes reconciliation already ran.
func applyWriteFixups(resolved Settings, subsection, where string) (Settings, error) {
	// a.  Resource-events retention defaults to the report retention.
	if _, ok := resolved["resource-events-ttl"]; !ok {
		if ttl, ok := resolved["report-ttl"]; ok {
			resolved["resource-events-ttl"] = ttl
		}
	}

	// b.  user/username reconciliation; user wins on conflict.
	user, _ := resolved["user"].(string)
	username, _ := resolved["username"].(string)
	switch {
	case user != "" && username != "" && user != username:
		fields := []any{"user", user, "username", username}
		if subsection != "" {
			fields = append(fields, "subsection", subsection)
		}
		zap.S().Warnw("user and username are both set and differ; using user", fields...)
		metrics.ResolutionWarningsTotal.Inc()
		resolved["username"] = user
	case user == "" && username != "":
		resolved["user"] = username
	case user != "" && username == "":
		resolved["username"] = user
	}

	// c.  Migrator credentials default to the reconciled user/password.
	user, _ = resolved["user"].(string)
	if user == "" {
		return nil, newErrorf(KindInternal,
			"section %s: user unset after reconciliation", where)
	}
	if mu, _ := resolved["migrator-username"].(string); mu == "" {
		resolved["migrator-username"] = user
	}
	if mp, ok := resolved["migrator-password"]; !ok || mp == "" {
		resolved["migrator-password"] = resolved["password"]
	}
	return resolved, nil
}

// validateWriteProfile enforces the cross-field domain invariants.
func validateWriteProfile(where string, profile Settings) error {
	subname, _ := profile["subname"].(string)
	if strings.TrimSpace(subname) == "" {
		return newErrorf(KindDomain, "section %s: no subname set", where)
	}

	events, haveEvents := profile["resource-events-ttl"].(time.Duration)
	reports, haveReports := profile["report-ttl"].(time.Duration)
	if haveEvents && haveReports && events > reports {
		return newErrorf(KindDomain,
			"section %s: resource-events-ttl %s exceeds report-ttl %s; events cannot outlive the reports referencing them",
			where, events, reports)
	}
	return nil
}

// resolveReadProfile resolves a user-supplied [read-database] section, or
// synthesizes one from the primary write profile.
func resolveReadProfile(passthrough map[string]Settings, writeProfiles map[string]Settings) (Settings, error) {
	if raw, ok := passthrough[ReadDatabaseSection]; ok {
		resolved, err := Normalize(readDatabaseIn, readDatabaseOut,
			stripRetired(raw, ReadDatabaseSection), ReadDatabaseSection)
		if err != nil {
			return nil, err
		}
		subname, _ := resolved["subname"].(string)
		if strings.TrimSpace(subname) == "" {
			return nil, newErrorf(KindDomain, "section %s: no subname set", ReadDatabaseSection)
		}
		return resolved, nil
	}

	primary := primaryWriteProfile(writeProfiles)
	derived := StripUnknown(readDatabaseOut, primary)
	derived["read-only"] = true
	return Normalize(readDatabaseIn, readDatabaseOut, derived, ReadDatabaseSection+" (derived)")
}

// primaryWriteProfile picks the profile read synthesis derives from: the
// sectionwide profile when present, otherwise the first name in order.
func primaryWriteProfile(profiles map[string]Settings) Settings {
	if p, ok := profiles[DefaultProfile]; ok {
		return p
	}
	var first string
	for name := range profiles {
		if first == "" || name < first {
			first = name
		}
	}
	return profiles[first]
}

// stripRetired warns about and removes retired per-database keys before
// the pipeline would treat them as unknown.
func stripRetired(raw Settings, where string) Settings {
	work := make(Settings, len(raw))
	for k, v := range raw {
		work[k] = v
	}
	for _, key := range retiredDatabaseKeys {
		if _, ok := work[key]; ok {
			zap.S().Warnw("retired setting ignored and should be removed",
				"section", where, "key", key)
			metrics.ResolutionWarningsTotal.Inc()
			delete(work, key)
		}
	}
	return work
}

func databaseWhere(subsection string, hasSub bool) string {
	if !hasSub || subsection == "" {
		return "database"
	}
	return FormatSectionName("database", subsection, true)
}
