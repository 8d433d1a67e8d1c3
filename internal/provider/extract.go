package provider

import (
	"strconv"
	"strings"
)

// ExtractValue normalizes a numeric value from the shapes providers and
// storage formats hand back.
//
// Parquet and JSON give float64, CSV gives int64 for integral text, raw
// payloads sometimes carry numbers as strings.
//
// Returns the scalar float64 value, and ok=false if not extractable.
func ExtractValue(val interface{}) (float64, bool) {
	if val == nil {
		return 0, false
	}

	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f, true
		}
		return 0, false
	default:
		return 0, false
	}
}

// ExtractName flattens a reference field to a comparable name.
//
// Raw events carry references as {"id": 16, "name": "Shot"}; flattened
// exports carry the bare name "Shot". Both yield "Shot".
//
// Returns ok=false when no name can be found.
func ExtractName(val interface{}) (string, bool) {
	switch v := val.(type) {
	case string:
		if v == "" {
			return "", false
		}
		return v, true
	case map[string]interface{}:
		if name, ok := v["name"].(string); ok {
			return name, true
		}
		return "", false
	default:
		return "", false
	}
}

// ExtractInt64 reads an identifier that may have been stored as a number or
// as text.
func ExtractInt64(val interface{}) (int64, bool) {
	switch v := val.(type) {
	case int64:
		return v, true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	}
	f, ok := ExtractValue(val)
	if !ok || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}
