// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `buildConfig` calls `validateStruct` immediately after it assembles the
// typed aggregate from the resolved settings maps.  The schema pipeline
// already guarantees the per-key shape, so this pass exists to catch
// engine bugs (a fix-up writing the wrong type, a builder missing a
// field) rather than operator mistakes.
//
// Notes
// -----
//   - Oxford commas, two spaces after periods.
package config

import "github.com/go-playground/validator/v10"

//
// validator instance (package-level singleton)
//

var v = validator.New()

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}
