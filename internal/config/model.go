// internal/config/model.go
//
// Typed configuration model for openpdb.
//
// Context
// -------
// These structs are the fully resolved form of the configuration
// document.  They are built exactly once, by Resolve, from maps that
// already satisfy the outgoing type specifications, then cross-checked
// with go-playground/validator as a final belt-and-braces pass.
//
// The aggregate is immutable after resolution: downstream components read
// named fields through the accessors and never mutate.  The loader caches
// it in an atomic.Pointer for lock-free reads.
//
// Notes
// -----
//   - Oxford commas, two spaces after periods.  No em-dash.
package config

import "time"

//
// Database profiles
//

// DatabaseProfile is one resolved database connection profile.  Write
// profiles carry retention and migrator fields; the read profile leaves
// them zero and has ReadOnly true.
type DatabaseProfile struct {
	Name    string
	Subname string `validate:"required"`

	User             string
	Username         string
	Password         string
	MigratorUsername string
	MigratorPassword string

	ReportTTL         time.Duration
	ResourceEventsTTL time.Duration
	NodeTTL           time.Duration
	NodePurgeTTL      time.Duration
	GCInterval        time.Duration

	MaximumPoolSize     int `validate:"gte=0"`
	ConnectionTimeout   int `validate:"gte=0"` // milliseconds
	StatementTimeout    int `validate:"gte=0"` // milliseconds, 0 = unset
	HasStatementTimeout bool
	LogSlowStatements   int `validate:"gte=0"` // seconds

	ReadOnly bool
}

//
// Plain sections
//

// CommandProcessing holds worker-pool and command-size tunables.
type CommandProcessing struct {
	Threads             int `validate:"gte=1"`
	ConcurrentWrites    int `validate:"gte=1"`
	MaxCommandSize      int `validate:"gte=0"`
	RejectLargeCommands bool
	TempUsage           int `validate:"gte=0"`
}

// PuppetDB holds service-scoped toggles.
type PuppetDB struct {
	CertificateAllowlist  string
	DisableUpdateChecking bool
	AddAgentReportFilter  bool
}

// Developer holds debugging aids that never belong in production.
type Developer struct {
	PrettyPrint bool
	MaxEnqueued int    `validate:"gte=0"`
	LogLevel    string `validate:"oneof=debug info warn error"`
}

// Global holds working directory, product identity, and update checking.
type Global struct {
	Vardir       string
	ProductName  string `validate:"oneof=openpdb pe-openpdb"`
	UpdateServer string `validate:"omitempty,url"`
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Resolve.
type Config struct {
	Databases    map[string]*DatabaseProfile `validate:"required,dive,required"`
	Database     *DatabaseProfile            `validate:"required"` // primary write profile
	ReadDatabase *DatabaseProfile            `validate:"required"`

	CommandProcessing CommandProcessing
	PuppetDB          PuppetDB
	Developer         Developer
	Global            Global
}

//
// accessors
//

// MaxCommandSize returns the accepted command payload cap in bytes.
func (c *Config) MaxCommandSize() int { return c.CommandProcessing.MaxCommandSize }

// RejectLargeCommands reports whether oversized commands are rejected
// rather than truncated into the dead-letter office.
func (c *Config) RejectLargeCommands() bool { return c.CommandProcessing.RejectLargeCommands }

// CommandConcurrency returns the command-processing worker count.
func (c *Config) CommandConcurrency() int { return c.CommandProcessing.Threads }

// UpdateServer returns the version-check endpoint, or "" when update
// checking is disabled.
func (c *Config) UpdateServer() string {
	if c.PuppetDB.DisableUpdateChecking {
		return ""
	}
	return c.Global.UpdateServer
}

// Vardir returns the configured working directory.
func (c *Config) Vardir() string { return c.Global.Vardir }

//
// map → struct conversion
//

// buildConfig assembles the typed aggregate from resolved settings maps.
func buildConfig(writeProfiles map[string]Settings, readProfile Settings, resolved map[string]Settings) (*Config, error) {
	cfg := &Config{
		Databases: make(map[string]*DatabaseProfile, len(writeProfiles)),
	}

	for name, settings := range writeProfiles {
		cfg.Databases[name] = profileFromSettings(name, settings)
	}
	cfg.Database = cfg.Databases[primaryWriteProfileName(writeProfiles)]
	cfg.ReadDatabase = profileFromSettings(ReadDatabaseSection, readProfile)

	cp := resolved["command-processing"]
	cfg.CommandProcessing = CommandProcessing{
		Threads:             intAt(cp, "threads"),
		ConcurrentWrites:    intAt(cp, "concurrent-writes"),
		MaxCommandSize:      intAt(cp, "max-command-size"),
		RejectLargeCommands: boolAt(cp, "reject-large-commands"),
		TempUsage:           intAt(cp, "temp-usage"),
	}

	pdb := resolved["puppetdb"]
	cfg.PuppetDB = PuppetDB{
		CertificateAllowlist:  stringAt(pdb, "certificate-allowlist"),
		DisableUpdateChecking: boolAt(pdb, "disable-update-checking"),
		AddAgentReportFilter:  boolAt(pdb, "add-agent-report-filter"),
	}

	dev := resolved["developer"]
	cfg.Developer = Developer{
		PrettyPrint: boolAt(dev, "pretty-print"),
		MaxEnqueued: intAt(dev, "max-enqueued"),
		LogLevel:    stringAt(dev, "log-level"),
	}

	glob := resolved["global"]
	cfg.Global = Global{
		Vardir:       stringAt(glob, "vardir"),
		ProductName:  stringAt(glob, "product-name"),
		UpdateServer: stringAt(glob, "update-server"),
	}

	if err := validateStruct(cfg); err != nil {
		return nil, newErrorf(KindSchema, "resolved configuration failed validation: %v", err)
	}
	return cfg, nil
}

func profileFromSettings(name string, s Settings) *DatabaseProfile {
	_, hasStatement := s["statement-timeout"]
	return &DatabaseProfile{
		Name:                name,
		Subname:             stringAt(s, "subname"),
		User:                stringAt(s, "user"),
		Username:            stringAt(s, "username"),
		Password:            stringAt(s, "password"),
		MigratorUsername:    stringAt(s, "migrator-username"),
		MigratorPassword:    stringAt(s, "migrator-password"),
		ReportTTL:           durationAt(s, "report-ttl"),
		ResourceEventsTTL:   durationAt(s, "resource-events-ttl"),
		NodeTTL:             durationAt(s, "node-ttl"),
		NodePurgeTTL:        durationAt(s, "node-purge-ttl"),
		GCInterval:          durationAt(s, "gc-interval"),
		MaximumPoolSize:     intAt(s, "maximum-pool-size"),
		ConnectionTimeout:   intAt(s, "connection-timeout"),
		StatementTimeout:    intAt(s, "statement-timeout"),
		HasStatementTimeout: hasStatement,
		LogSlowStatements:   intAt(s, "log-slow-statements"),
		ReadOnly:            boolAt(s, "read-only"),
	}
}

// primaryWriteProfileName mirrors primaryWriteProfile for the name.
func primaryWriteProfileName(profiles map[string]Settings) string {
	if _, ok := profiles[DefaultProfile]; ok {
		return DefaultProfile
	}
	var first string
	for name := range profiles {
		if first == "" || name < first {
			first = name
		}
	}
	return first
}

//
// typed map readers
//

func stringAt(s Settings, key string) string {
	v, _ := s[key].(string)
	return v
}

func intAt(s Settings, key string) int {
	v, _ := s[key].(int)
	return v
}

func boolAt(s Settings, key string) bool {
	v, _ := s[key].(bool)
	return v
}

func durationAt(s Settings, key string) time.Duration {
	v, _ := s[key].(time.Duration)
	return v
}
