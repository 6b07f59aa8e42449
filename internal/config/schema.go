// internal/config/schema.go
//
// Declarative type specifications and the defaulting/conversion pipeline.
//
// Context
// -------
// Each section declares two specs.  The *incoming* spec names every
// recognized raw key, whether it is required, and its default (a literal
// or a provider func for values computed from the host, e.g. thread
// counts).  The *outgoing* spec declares the semantic type each key holds
// after resolution, plus per-key constraints.
//
// Normalize runs the four pipeline stages in order:
//
//  1. warn about unknown keys ("this item does not exist and should be
//     removed") and strip them,
//  2. validate required keys and coarse value shape,
//  3. apply defaults for absent optional keys,
//  4. convert every value to its declared semantic type.
//
// Unknown-key detection is a plain set difference between the raw map and
// the incoming spec; no reflection.  The pipeline is pure apart from the
// warning log, and idempotent: feeding its own output back in yields the
// same resolved values, because every converter accepts already-converted
// input.
//
// Notes
// -----
//   - Oxford commas, two spaces after periods.
package config

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/openpdb/openpdb/internal/metrics"
)

//
// spec model
//

// FieldType is the semantic type a resolved key holds.
type FieldType int

const (
	// TypeString is a plain string value.
	TypeString FieldType = iota
	// TypeInt is an integer.
	TypeInt
	// TypeBool is a boolean ("true"/"false" in raw form).
	TypeBool
	// TypeMinutes is a duration whose bare-number raw form means minutes.
	TypeMinutes
	// TypePeriod is a calendar period whose bare-number raw form means
	// days; string forms use unit suffixes ("14d", "12h").
	TypePeriod
	// TypeEnum is a string restricted to a declared member set.
	TypeEnum
	// TypeList is an ordered list of strings, comma or semicolon
	// delimited in raw form.
	TypeList
)

// Field declares one key.  Incoming specs use Required, Default, and
// DefaultFn; outgoing specs use Type, Enum, NonNegative, and Optional.
type Field struct {
	Name        string
	Required    bool       // incoming: key must be present in the raw map
	Default     any        // incoming: literal default for absent keys
	DefaultFn   func() any // incoming: computed default, wins over Default
	Type        FieldType  // outgoing: semantic type
	Enum        []string   // outgoing: member set for TypeEnum
	NonNegative bool       // outgoing: integer/duration must be >= 0
	Optional    bool       // outgoing: key may be absent in resolved form
}

// Spec declares one section's accepted shape.
type Spec struct {
	Section string
	Fields  []Field
}

func (s Spec) field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

//
// pipeline
//

// Normalize validates raw against the incoming spec, applies defaults,
// and converts to the outgoing spec.  where names the section or
// subsection in diagnostics, e.g. `database "replica"`.
func Normalize(in, out Spec, raw Settings, where string) (Settings, error) {
	work := make(Settings, len(raw))

	// 1 + 2a.  Unknown keys warn and are stripped.
	for key, val := range raw {
		if _, known := in.field(key); !known {
			zap.S().Warnw("this item does not exist and should be removed",
				"section", where, "key", key)
			metrics.ResolutionWarningsTotal.Inc()
			continue
		}
		work[key] = val
	}

	// 2b.  Required keys and coarse value shape.
	var bad []string
	for _, f := range in.Fields {
		val, ok := work[f.Name]
		if !ok {
			if f.Required {
				bad = append(bad, f.Name+" is missing")
			}
			continue
		}
		if !scalar(val) {
			bad = append(bad, fmt.Sprintf("%s has non-scalar value %v", f.Name, val))
		}
	}
	if len(bad) > 0 {
		sort.Strings(bad)
		return nil, newErrorf(KindSchema, "section %s: %s", where, strings.Join(bad, "; "))
	}

	// 3.  Defaults for absent optional keys.
	for _, f := range in.Fields {
		if _, ok := work[f.Name]; ok {
			continue
		}
		switch {
		case f.DefaultFn != nil:
			work[f.Name] = f.DefaultFn()
		case f.Default != nil:
			work[f.Name] = f.Default
		}
	}

	// 4.  Semantic conversion against the outgoing spec.
	resolved := make(Settings, len(work))
	for _, f := range out.Fields {
		val, ok := work[f.Name]
		if !ok {
			if !f.Optional {
				return nil, newErrorf(KindSchema,
					"section %s: %s is missing from the resolved form", where, f.Name)
			}
			continue
		}
		conv, err := convertValue(f, val, where)
		if err != nil {
			return nil, err
		}
		resolved[f.Name] = conv
	}
	return resolved, nil
}

// StripUnknown returns a copy of settings holding only the keys the spec
// declares.  Used when deriving one profile from another, where leftover
// fields are expected rather than operator error, so no warning is
// emitted.
func StripUnknown(spec Spec, settings Settings) Settings {
	out := make(Settings, len(settings))
	for key, val := range settings {
		if _, known := spec.field(key); known {
			out[key] = val
		}
	}
	return out
}

// scalar accepts the value shapes a raw document may carry for one key.
func scalar(v any) bool {
	switch v.(type) {
	case string, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	default:
		// Already-converted values pass through so the pipeline stays
		// idempotent on its own output.
		return convertedScalar(v)
	}
}
