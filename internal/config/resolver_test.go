// internal/config/resolver_test.go
//
// Sectionwide-baseline fold over one section node.
package config

import (
	"errors"
	"testing"
)

// markBase records whether the transform saw a resolved baseline.
func markBase(subsection string, sectionwide, raw Settings) (Settings, error) {
	out := make(Settings, len(raw)+2)
	for k, v := range sectionwide {
		out[k] = v
	}
	for k, v := range raw {
		out[k] = v
	}
	out["seen-subsection"] = subsection
	return out, nil
}

func TestResolveSubsectionsNoSubsections(t *testing.T) {
	node := Node{Settings: Settings{"a": 1}}

	got, err := ResolveSubsections(node, markBase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one profile, got %d", len(got))
	}
	base, ok := got[DefaultProfile]
	if !ok {
		t.Fatalf("sectionwide result should be keyed %q, got %v", DefaultProfile, got)
	}
	if base["a"] != 1 || base["seen-subsection"] != "" {
		t.Errorf("base = %v", base)
	}
}

func TestResolveSubsectionsBaselineInheritance(t *testing.T) {
	node := Node{
		Settings: Settings{"shared": "sectionwide"},
		Subsections: map[string]Settings{
			"replica": {"own": "value"},
		},
	}

	got, err := ResolveSubsections(node, markBase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The sectionwide result is folded into subsections, never emitted on
	// its own.
	if _, ok := got[DefaultProfile]; ok {
		t.Error("sectionwide base leaked into output alongside subsections")
	}

	replica := got["replica"]
	if replica["shared"] != "sectionwide" {
		t.Errorf("subsection did not inherit resolved baseline: %v", replica)
	}
	if replica["own"] != "value" {
		t.Errorf("subsection lost its own settings: %v", replica)
	}
	if replica["seen-subsection"] != "replica" {
		t.Errorf("transform saw wrong subsection: %v", replica)
	}
}

func TestResolveSubsectionsNilSettings(t *testing.T) {
	node := Node{Subsections: map[string]Settings{"a": {}}}
	if _, err := ResolveSubsections(node, markBase); err != nil {
		t.Fatalf("nil sectionwide settings should behave as empty: %v", err)
	}
}

func TestResolveSubsectionsErrorStopsFold(t *testing.T) {
	boom := errors.New("boom")
	node := Node{
		Settings:    Settings{},
		Subsections: map[string]Settings{"bad": {}},
	}
	_, err := ResolveSubsections(node, func(sub string, _, _ Settings) (Settings, error) {
		if sub == "bad" {
			return nil, boom
		}
		return Settings{}, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected transform error to propagate, got %v", err)
	}
}
