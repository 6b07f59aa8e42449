// internal/config/convert.go
//
// Raw-value → semantic-type converters for the pipeline in schema.go.
//
// Context
// -------
// Converters accept both raw representations (strings, numbers) and
// already-converted values, which keeps Normalize idempotent on its own
// output.  Duration strings are parsed with go-str2duration, which
// understands day units ("14d") that time.ParseDuration rejects.
//
// Every failure is a KindConversion *Error naming the key and the
// offending raw value.
//
// Notes
// -----
//   - Oxford commas, two spaces after periods.
package config

import (
	"strconv"
	"strings"
	"time"

	str2duration "github.com/xhit/go-str2duration/v2"
)

// convertValue dispatches on the outgoing field type.
func convertValue(f Field, val any, where string) (any, error) {
	switch f.Type {
	case TypeString:
		return convertString(f, val, where)
	case TypeInt:
		n, err := convertInt(f, val, where)
		if err != nil {
			return nil, err
		}
		return n, nil
	case TypeBool:
		return convertBool(f, val, where)
	case TypeMinutes:
		return convertDuration(f, val, where, time.Minute)
	case TypePeriod:
		return convertDuration(f, val, where, 24*time.Hour)
	case TypeEnum:
		return convertEnum(f, val, where)
	case TypeList:
		return convertList(f, val, where)
	}
	return nil, newErrorf(KindInternal, "section %s: %s has no declared semantic type", where, f.Name)
}

// convertedScalar reports whether v is an output type of this file's
// converters.  schema.go consults it during coarse validation.
func convertedScalar(v any) bool {
	switch v.(type) {
	case time.Duration, []string:
		return true
	}
	return false
}

//
// per-type converters
//

func convertString(f Field, val any, where string) (string, error) {
	switch v := val.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	}
	return "", conversionError(f, val, where)
}

func convertInt(f Field, val any, where string) (int, error) {
	var n int
	switch v := val.(type) {
	case int:
		n = v
	case int64:
		n = int(v)
	case float64:
		if v != float64(int(v)) {
			return 0, conversionError(f, val, where)
		}
		n = int(v)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, conversionError(f, val, where)
		}
		n = parsed
	default:
		return 0, conversionError(f, val, where)
	}
	if f.NonNegative && n < 0 {
		return 0, newErrorf(KindConversion,
			"section %s: %s must not be negative, got %d", where, f.Name, n)
	}
	return n, nil
}

func convertBool(f Field, val any, where string) (bool, error) {
	switch v := val.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.TrimSpace(v) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, conversionError(f, val, where)
}

// convertDuration handles TypeMinutes and TypePeriod; bareUnit is the
// meaning of a bare number (a minute or a day).
func convertDuration(f Field, val any, where string, bareUnit time.Duration) (time.Duration, error) {
	var d time.Duration
	switch v := val.(type) {
	case time.Duration:
		d = v
	case int:
		d = time.Duration(v) * bareUnit
	case int64:
		d = time.Duration(v) * bareUnit
	case float64:
		if v != float64(int64(v)) {
			return 0, conversionError(f, val, where)
		}
		d = time.Duration(v) * bareUnit
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			d = time.Duration(n) * bareUnit
			break
		}
		parsed, err := str2duration.ParseDuration(s)
		if err != nil {
			return 0, conversionError(f, val, where)
		}
		d = parsed
	default:
		return 0, conversionError(f, val, where)
	}
	if f.NonNegative && d < 0 {
		return 0, newErrorf(KindConversion,
			"section %s: %s must not be negative, got %s", where, f.Name, d)
	}
	return d, nil
}

func convertEnum(f Field, val any, where string) (string, error) {
	s, ok := val.(string)
	if !ok {
		return "", conversionError(f, val, where)
	}
	for _, member := range f.Enum {
		if s == member {
			return s, nil
		}
	}
	return "", newErrorf(KindConversion,
		"section %s: %s must be one of %s, got %q",
		where, f.Name, strings.Join(f.Enum, ", "), s)
}

func convertList(f Field, val any, where string) ([]string, error) {
	switch v := val.(type) {
	case []string:
		return v, nil
	case string:
		parts := strings.FieldsFunc(v, func(r rune) bool {
			return r == ',' || r == ';'
		})
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out, nil
	}
	return nil, conversionError(f, val, where)
}

func conversionError(f Field, val any, where string) *Error {
	return newErrorf(KindConversion,
		"section %s: cannot convert %s value %v", where, f.Name, val)
}
