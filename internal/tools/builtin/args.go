package builtin

import "fmt"

// stringArg extracts a required string argument.
func stringArg(args map[string]any, key string) (string, error) {
	value, ok := args[key].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("missing required parameter %q", key)
	}
	return value, nil
}

// optionalStringArg extracts an optional string argument, returning fallback
// when absent or not a string.
func optionalStringArg(args map[string]any, key, fallback string) string {
	if value, ok := args[key].(string); ok && value != "" {
		return value
	}
	return fallback
}

// optionalBoolArg extracts an optional bool argument.
func optionalBoolArg(args map[string]any, key string) bool {
	value, _ := args[key].(bool)
	return value
}

// optionalNumberArg extracts an optional numeric argument. JSON decoding
// yields float64 for all numbers; integers passed programmatically are
// accepted too.
func optionalNumberArg(args map[string]any, key string, fallback float64) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return fallback
	}
}

// stringSliceArg extracts an optional list-of-strings argument. JSON arrays
// decode as []any; non-string elements are rejected.
func stringSliceArg(args map[string]any, key string) ([]string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("parameter %q must be a list of strings", key)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("parameter %q must be a list of strings", key)
	}
}
