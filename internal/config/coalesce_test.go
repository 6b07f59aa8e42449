// internal/config/coalesce_test.go
//
// Flat document → section tree grouping, duplicates, and passthrough.
package config

import (
	"errors"
	"testing"
)

func TestCoalesceGroupsFamily(t *testing.T) {
	raw := map[string]Settings{
		"database":           {"subname": "//db/openpdb"},
		`database "replica"`: {"subname": "//replica/openpdb"},
		"global":             {"vardir": "/var/lib/openpdb"},
	}

	tree, rest, err := Coalesce(raw, IsDatabaseSectionKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	node, ok := tree["database"]
	if !ok {
		t.Fatal("database node missing")
	}
	if node.Settings["subname"] != "//db/openpdb" {
		t.Errorf("sectionwide settings: %v", node.Settings)
	}
	if node.Subsections["replica"]["subname"] != "//replica/openpdb" {
		t.Errorf("replica subsection: %v", node.Subsections)
	}

	if _, ok := rest["global"]; !ok {
		t.Error("non-matching section should pass through")
	}
	if _, ok := rest["database"]; ok {
		t.Error("matching key leaked into passthrough")
	}
}

func TestCoalesceDuplicateSection(t *testing.T) {
	raw := map[string]Settings{
		"database":   {"subname": "one"},
		"[database]": {"subname": "two"},
	}
	_, _, err := Coalesce(raw, IsDatabaseSectionKey)
	assertKind(t, err, KindStructure)
}

func TestCoalesceDuplicateSubsection(t *testing.T) {
	raw := map[string]Settings{
		`database "replica"`:   {"subname": "one"},
		`[database "replica"]`: {"subname": "two"},
	}
	_, _, err := Coalesce(raw, IsDatabaseSectionKey)
	assertKind(t, err, KindStructure)
}

func TestCoalesceGrammarErrorPropagates(t *testing.T) {
	raw := map[string]Settings{
		`database "broken`: {"subname": "x"},
	}
	_, _, err := Coalesce(raw, IsDatabaseSectionKey)
	assertKind(t, err, KindGrammar)
}

func assertKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got none", want)
	}
	var cfgErr *Error
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if cfgErr.Kind != want {
		t.Fatalf("expected kind %v, got %v (%v)", want, cfgErr.Kind, err)
	}
}
