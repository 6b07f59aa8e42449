// internal/config/sections_test.go
//
// Top-level Resolve: plain sections, fatal issues, and the typed model.
package config

import (
	"testing"
	"time"
)

func minimalDocument() map[string]Settings {
	return map[string]Settings{
		"database": {"subname": "//db/openpdb"},
	}
}

func TestResolveMinimalDocument(t *testing.T) {
	cfg, fatal, err := Resolve(minimalDocument())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fatal) != 0 {
		t.Fatalf("unexpected fatal issues: %v", fatal)
	}

	if cfg.Database == nil || cfg.Database.Subname != "//db/openpdb" {
		t.Fatalf("primary profile: %+v", cfg.Database)
	}
	if cfg.Database.ReportTTL != 14*24*time.Hour {
		t.Errorf("ReportTTL = %v", cfg.Database.ReportTTL)
	}
	if cfg.Database.ResourceEventsTTL != cfg.Database.ReportTTL {
		t.Errorf("ResourceEventsTTL = %v", cfg.Database.ResourceEventsTTL)
	}

	// Read profile is synthesized read-only from the primary.
	if cfg.ReadDatabase == nil || !cfg.ReadDatabase.ReadOnly {
		t.Fatalf("read profile: %+v", cfg.ReadDatabase)
	}
	if cfg.ReadDatabase.Subname != cfg.Database.Subname {
		t.Errorf("read subname = %q", cfg.ReadDatabase.Subname)
	}

	// Plain sections resolve entirely from defaults.
	if cfg.CommandProcessing.Threads < 1 {
		t.Errorf("Threads = %d", cfg.CommandProcessing.Threads)
	}
	if cfg.CommandProcessing.MaxCommandSize < 16<<20 {
		t.Errorf("MaxCommandSize = %d", cfg.CommandProcessing.MaxCommandSize)
	}
	if cfg.Developer.LogLevel != "info" {
		t.Errorf("LogLevel = %q", cfg.Developer.LogLevel)
	}
	if cfg.Global.ProductName != "openpdb" {
		t.Errorf("ProductName = %q", cfg.Global.ProductName)
	}
}

func TestResolveRetiredURLPrefixIsFatal(t *testing.T) {
	doc := minimalDocument()
	doc["global"] = Settings{"url-prefix": "/pdb", "vardir": "/var/lib/openpdb"}

	cfg, fatal, err := Resolve(doc)
	if err != nil {
		t.Fatalf("a fatal issue is not a resolution error: %v", err)
	}
	if len(fatal) != 1 {
		t.Fatalf("expected one fatal issue, got %v", fatal)
	}
	if fatal[0].Setting != "global/url-prefix" {
		t.Errorf("Setting = %q", fatal[0].Setting)
	}
	if fatal[0].Guidance == "" {
		t.Error("guidance text is empty")
	}

	// Resolution still completes so the caller can report everything at
	// once before exiting.
	if cfg == nil || cfg.Global.Vardir != "/var/lib/openpdb" {
		t.Fatalf("config = %+v", cfg)
	}
}

func TestResolveProfileAccessors(t *testing.T) {
	doc := minimalDocument()
	doc["puppetdb"] = Settings{"disable-update-checking": "true"}
	doc["command-processing"] = Settings{"threads": 3, "reject-large-commands": "true"}

	cfg, _, err := Resolve(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.UpdateServer() != "" {
		t.Errorf("UpdateServer = %q, want suppressed", cfg.UpdateServer())
	}
	if cfg.CommandConcurrency() != 3 {
		t.Errorf("CommandConcurrency = %d", cfg.CommandConcurrency())
	}
	if !cfg.RejectLargeCommands() {
		t.Error("RejectLargeCommands = false")
	}
}

func TestResolveInvalidLogLevel(t *testing.T) {
	doc := minimalDocument()
	doc["developer"] = Settings{"log-level": "chatty"}
	_, _, err := Resolve(doc)
	assertKind(t, err, KindConversion)
}

func TestResolveMultipleProfilesExposed(t *testing.T) {
	cfg, _, err := Resolve(map[string]Settings{
		"database":           {"subname": "//primary/openpdb"},
		`database "replica"`: {"subname": "//replica/openpdb"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Databases) != 1 {
		t.Fatalf("Databases = %v", cfg.Databases)
	}
	replica, ok := cfg.Databases["replica"]
	if !ok || replica.Subname != "//replica/openpdb" {
		t.Fatalf("replica profile: %+v", cfg.Databases)
	}
	// With subsections present the replica is the only (and thus primary)
	// profile.
	if cfg.Database != replica {
		t.Errorf("primary = %+v", cfg.Database)
	}
}
