package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// MissingFields returns the required fields absent from p, in column order.
// A key that is present with a null value is not missing.
func MissingFields(p Payload) []string {
	var missing []string
	for _, f := range RequiredFields {
		if _, ok := p[f.Name]; !ok {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// ValidationOutcome is the result of range checking a payload. It is valid
// exactly when it carries no violations.
type ValidationOutcome struct {
	Violations []string
}

func (o ValidationOutcome) Valid() bool {
	return len(o.Violations) == 0
}

// ValidateRanges checks every required field's type and bounds and reports
// all failures, one message per field, in column order. Fields absent from p
// are reported as well, so the outcome is meaningful on its own.
func ValidateRanges(p Payload) ValidationOutcome {
	var out ValidationOutcome
	for _, f := range RequiredFields {
		if msg := checkField(f, p[f.Name]); msg != "" {
			out.Violations = append(out.Violations, msg)
		}
	}
	return out
}

func checkField(f FieldSpec, raw any) string {
	v, ok := numericValue(raw)
	switch f.Kind {
	case Binary:
		if !ok || (v != 0 && v != 1) {
			return fmt.Sprintf("%s must be 0 or 1, got %s", f.Name, describe(raw))
		}
	default:
		if !ok {
			return fmt.Sprintf("%s must be a number, got %s", f.Name, describe(raw))
		}
		if math.IsNaN(v) || v < f.Min || v > f.Max {
			return fmt.Sprintf("%s must be between %s and %s, got %s",
				f.Name, formatBound(f.Min), formatBound(f.Max), describe(raw))
		}
	}
	return ""
}

// numericValue accepts numbers only. Booleans and numeric strings are not
// numbers here.
func numericValue(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		// Literals beyond float64 parse to ±Inf with ErrRange and fail
		// the bounds check.
		f, err := v.Float64()
		return f, err == nil || errors.Is(err, strconv.ErrRange)
	default:
		return 0, false
	}
}

func describe(raw any) string {
	switch v := raw.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	if f, ok := numericValue(raw); ok {
		return formatBound(f)
	}
	return fmt.Sprintf("%T", raw)
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
