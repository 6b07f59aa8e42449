// internal/config/resolver.go
//
// Generic subsection-settings resolver.
//
// Context
// -------
// A higher-order fold over one section node.  The transform runs first on
// the sectionwide settings with an empty baseline; its *resolved* output
// is then handed to every subsection transform as the inherited baseline.
// Subsections therefore always see processed sectionwide values, never raw
// ones.
//
// When the section has no subsections the sectionwide result is the whole
// output, stored under DefaultProfile, so downstream stages treat "no
// subsections" and "N subsections" uniformly.
//
// Notes
// -----
//   - Oxford commas, two spaces after periods.
package config

// DefaultProfile keys the sectionwide result when a section has no
// subsections.
const DefaultProfile = "default"

// Transform computes one resolved settings map.  subsection is "" for the
// sectionwide pass; sectionwide carries the already-resolved sectionwide
// result on subsection passes, and is empty on the sectionwide pass.
type Transform func(subsection string, sectionwide Settings, raw Settings) (Settings, error)

// ResolveSubsections folds f over node and returns results keyed by
// subsection name.  The sectionwide result is emitted standalone (under
// DefaultProfile) only when the section has no subsections.
func ResolveSubsections(node Node, f Transform) (map[string]Settings, error) {
	raw := node.Settings
	if raw == nil {
		raw = Settings{}
	}

	base, err := f("", Settings{}, raw)
	if err != nil {
		return nil, err
	}

	if len(node.Subsections) == 0 {
		return map[string]Settings{DefaultProfile: base}, nil
	}

	out := make(map[string]Settings, len(node.Subsections))
	for name, sub := range node.Subsections {
		resolved, err := f(name, base, sub)
		if err != nil {
			return nil, err
		}
		out[name] = resolved
	}
	return out, nil
}
