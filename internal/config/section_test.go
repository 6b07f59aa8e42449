// internal/config/section_test.go
//
// Section-header grammar: parse, escape handling, and round-trips.
package config

import (
	"errors"
	"testing"
)

func TestParseSectionNameBare(t *testing.T) {
	section, sub, hasSub, err := ParseSectionName("database")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if section != "database" || hasSub || sub != "" {
		t.Fatalf("got (%q, %q, %v)", section, sub, hasSub)
	}
}

func TestParseSectionNameWithSubsection(t *testing.T) {
	cases := []struct {
		header  string
		section string
		sub     string
	}{
		{`database "replica"`, "database", "replica"},
		{`[database "replica"]`, "database", "replica"},
		{`database "with space"`, "database", "with space"},
		{`database "a\"b"`, "database", `a"b`},
		{`database "a\\b"`, "database", `a\b`},
		{`database "a\qb"`, "database", "aqb"}, // \X resolves to X
		{`database ""`, "database", ""},
	}
	for _, c := range cases {
		section, sub, hasSub, err := ParseSectionName(c.header)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", c.header, err)
			continue
		}
		if section != c.section || !hasSub || sub != c.sub {
			t.Errorf("%q: got (%q, %q, %v), want (%q, %q, true)",
				c.header, section, sub, hasSub, c.section, c.sub)
		}
	}
}

func TestParseSectionNameErrors(t *testing.T) {
	cases := []string{
		`database "replica`,    // unterminated
		`database "a\"`,        // escaped closing quote, runs off the end
		`database "a" trailer`, // trailing characters
		`database replica`,     // no opening quote
		`data base "x"`,        // whitespace splits into an invalid remainder
		`database `,            // dangling whitespace
		`[database "x"`,        // missing closing bracket
		`da$tabase`,            // invalid section character
		``,                     // empty
	}
	for _, header := range cases {
		_, _, _, err := ParseSectionName(header)
		if err == nil {
			t.Errorf("%q: expected error, got none", header)
			continue
		}
		var cfgErr *Error
		if !errors.As(err, &cfgErr) || cfgErr.Kind != KindGrammar {
			t.Errorf("%q: expected KindGrammar, got %v", header, err)
		}
	}
}

func TestSectionNameRoundTrip(t *testing.T) {
	subs := []string{
		"replica",
		"with space",
		`quote"inside`,
		`back\slash`,
		`both\"mixed`,
		"",
	}
	for _, sub := range subs {
		header := FormatSectionName("database", sub, true)
		section, got, hasSub, err := ParseSectionName(header)
		if err != nil {
			t.Errorf("round-trip %q: parse error: %v", sub, err)
			continue
		}
		if section != "database" || !hasSub || got != sub {
			t.Errorf("round-trip %q via %q: got %q", sub, header, got)
		}
	}

	// No subsection renders the bare name.
	if got := FormatSectionName("global", "", false); got != "global" {
		t.Fatalf("bare format = %q", got)
	}
}
