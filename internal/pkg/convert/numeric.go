// Package convert coerces loosely typed broker payload values into Go scalars.
package convert

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Float converts the numeric kinds a decoded JSON payload may carry, plus
// numeric strings, into a float64.
func Float(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f, true
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// Int64 coerces raw into an int64, truncating fractional values.
func Int64(raw any) (int64, bool) {
	if s, ok := raw.(string); ok {
		if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return n, true
		}
	}
	f, ok := Float(raw)
	if !ok {
		return 0, false
	}
	return int64(f), true
}

// String renders raw as a trimmed string. Integral floats print without a
// fractional part so numeric ids keep a stable text form.
func String(raw any) string {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return String(float64(v))
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case nil:
		return ""
	}
	return ""
}

// Unwrap peels single-element lists. Some broker endpoints wrap scalar ids in
// a one-item array.
func Unwrap(raw any) any {
	if list, ok := raw.([]any); ok && len(list) > 0 {
		return list[0]
	}
	return raw
}
