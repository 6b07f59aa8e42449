// internal/config/coalesce.go
//
// Section coalescer: flat document → nested section tree.
//
// Context
// -------
// A raw document maps top-level keys to key/value maps.  A key is either a
// plain section name (`database`) or a header naming a subsection
// (`database "replica"`).  Coalescing groups matching keys into one Node
// per section: sectionwide settings plus named subsections.
//
// Duplicates are fatal, never merged.  A second entry supplying
// sectionwide settings to the same section, or the same subsection named
// twice, is a KindStructure error.  Non-matching keys pass through to the
// caller untouched.
//
// Notes
// -----
//   - Iteration order only affects which duplicate is reported first.
//   - Oxford commas, two spaces after periods.
package config

import "strings"

//
// tree model
//

// Settings is one section's or subsection's raw key/value map.
type Settings map[string]any

// Node is one coalesced section: sectionwide settings plus subsections.
type Node struct {
	Settings    Settings
	Subsections map[string]Settings
}

// Tree maps section name → coalesced node.
type Tree map[string]Node

//
// coalescing
//

// Matcher reports whether a top-level key must be parsed as a section
// header for the section family being coalesced.
type Matcher func(key string) bool

// Coalesce groups the matching entries of raw into a Tree and copies the
// rest into passthrough unchanged.
func Coalesce(raw map[string]Settings, match Matcher) (Tree, map[string]Settings, error) {
	tree := make(Tree)
	passthrough := make(map[string]Settings)

	for key, settings := range raw {
		if !match(key) {
			passthrough[key] = settings
			continue
		}

		section, subsection, hasSub, err := ParseSectionName(key)
		if err != nil {
			return nil, nil, err
		}

		node, ok := tree[section]
		if !ok {
			node = Node{Subsections: make(map[string]Settings)}
		}

		if !hasSub {
			// The matcher told us this key is a section header; if parsing
			// found no subsection, the key must be the bare section name,
			// optionally bracket-wrapped.
			bare := key
			if strings.HasPrefix(bare, "[") && strings.HasSuffix(bare, "]") {
				bare = bare[1 : len(bare)-1]
			}
			if bare != section {
				return nil, nil, newErrorf(KindInternal,
					"section key %q does not match parsed section name %q", key, section)
			}
			if node.Settings != nil {
				return nil, nil, newErrorf(KindStructure,
					"duplicate section %q", section)
			}
			node.Settings = settings
		} else {
			if _, dup := node.Subsections[subsection]; dup {
				return nil, nil, newErrorf(KindStructure,
					"duplicate subsection %q in section %q", subsection, section)
			}
			node.Subsections[subsection] = settings
		}
		tree[section] = node
	}

	return tree, passthrough, nil
}
