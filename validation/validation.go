package validation

import (
	"strconv"
	"strings"
)

// Violations maps a field name to a stable violation code.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Merge copies all entries of other into v (other wins on conflicts).
func (v Violations) Merge(other Violations) {
	for k, code := range other {
		v[k] = code
	}
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func PositiveFloat(field string, val float64, v Violations) {
	if val <= 0 {
		v[field] = "must_be_positive"
	}
}

func RangeFloat(field string, val, minVal, maxVal float64, v Violations) {
	if val < minVal || val > maxVal {
		v[field] = "out_of_range"
	}
}

func NonEmptyList[T any](field string, list []T, v Violations) {
	if len(list) == 0 {
		v[field] = "required"
	}
}

// CoerceNumber converts a dynamically typed JSON value to float64.
// Numbers decoded from JSON arrive as float64; documents written by Go code
// may carry int variants; legacy records store amounts as strings.
// Returns (value, alreadyNumeric, ok). ok is false only for values that
// cannot be interpreted as a number at all.
func CoerceNumber(val any) (float64, bool, bool) {
	switch n := val.(type) {
	case float64:
		return n, true, true
	case float32:
		return float64(n), true, true
	case int:
		return float64(n), true, true
	case int32:
		return float64(n), true, true
	case int64:
		return float64(n), true, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false, false
		}
		return f, false, true
	default:
		return 0, false, false
	}
}
