// internal/config/section.go
//
// Git-style section-header parser.
//
// Context
// -------
// Configuration documents group keys under headers of the form
//
//	section
//	section "subsection"
//
// optionally wrapped in square brackets when copied straight out of a
// config file (`[database "replica"]`).  The section part is restricted
// to letters, digits, and hyphens.  The subsection is a double-quoted
// string with backslash escaping: any `\X` resolves to `X`, and a closing
// quote preceded by an odd run of backslashes is itself escaped and does
// not terminate the string.
//
// All parse failures return a *Error with KindGrammar; no partial result
// is ever returned alongside an error.
//
// Notes
// -----
//   - Oxford commas, two spaces after periods.
package config

import "strings"

//
// public API
//

// ParseSectionName parses one header string.  hasSub reports whether a
// subsection was present; when false, subsection is "".
func ParseSectionName(header string) (section, subsection string, hasSub bool, err error) {
	s := header
	if strings.HasPrefix(s, "[") {
		if !strings.HasSuffix(s, "]") {
			return "", "", false, newErrorf(KindGrammar,
				"malformed section header %q: missing closing bracket", header)
		}
		s = s[1 : len(s)-1]
	}

	// Section part: up to the first whitespace.
	name := s
	rest := ""
	if i := strings.IndexAny(s, " \t"); i != -1 {
		name = s[:i]
		rest = strings.TrimLeft(s[i:], " \t")
	}

	if !validSectionName(name) {
		return "", "", false, newErrorf(KindGrammar,
			"malformed section header %q: section names use letters, digits, and hyphens", header)
	}
	if rest == "" {
		if strings.ContainsAny(s, " \t") {
			// Trailing whitespace with nothing after it.
			return "", "", false, newErrorf(KindGrammar,
				"malformed section header %q: dangling whitespace after section name", header)
		}
		return name, "", false, nil
	}

	sub, err := parseSubsection(header, rest)
	if err != nil {
		return "", "", false, err
	}
	return name, sub, true, nil
}

// FormatSectionName renders the canonical header for a section and an
// optional subsection, re-escaping quotes and backslashes.  It is the
// inverse of ParseSectionName for valid inputs.
func FormatSectionName(section, subsection string, hasSub bool) string {
	if !hasSub {
		return section
	}
	var b strings.Builder
	b.WriteString(section)
	b.WriteString(` "`)
	for i := 0; i < len(subsection); i++ {
		c := subsection[i]
		if c == '"' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	b.WriteByte('"')
	return b.String()
}

//
// helpers
//

// validSectionName accepts non-empty runs of [A-Za-z0-9-].
func validSectionName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-':
		default:
			return false
		}
	}
	return true
}

// parseSubsection scans a quoted subsection, resolving `\X` to `X`.  The
// scan itself enforces the odd-trailing-backslash rule: an escaped quote
// is consumed as content, so a string whose only closing candidate is
// escaped simply runs off the end and fails as unterminated.
func parseSubsection(header, rest string) (string, error) {
	if rest[0] != '"' {
		return "", newErrorf(KindGrammar,
			"malformed section header %q: subsection must start with a double quote", header)
	}

	var b strings.Builder
	i := 1
	for i < len(rest) {
		c := rest[i]
		switch c {
		case '\\':
			if i+1 >= len(rest) {
				return "", newErrorf(KindGrammar,
					"malformed section header %q: unterminated subsection", header)
			}
			b.WriteByte(rest[i+1])
			i += 2
		case '"':
			if i != len(rest)-1 {
				return "", newErrorf(KindGrammar,
					"malformed section header %q: trailing characters after subsection", header)
			}
			return b.String(), nil
		default:
			b.WriteByte(c)
			i++
		}
	}
	return "", newErrorf(KindGrammar,
		"malformed section header %q: unterminated subsection", header)
}
