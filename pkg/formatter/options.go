package formatter

import (
	"fmt"
	"strconv"
	"strings"
)

// optString returns the first non-empty string among keys.
func optString(options map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := options[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case nil:
		default:
			return fmt.Sprint(v)
		}
	}

	return ""
}

func optFloat(options map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		if f, ok := toNumber(options[key]); ok {
			return f, true
		}
	}

	return 0, false
}

func optInt(options map[string]any, keys ...string) (int, bool) {
	f, ok := optFloat(options, keys...)
	return int(f), ok
}

func optBool(options map[string]any, key string, fallback bool) bool {
	switch v := options[key].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}

	return fallback
}

func text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// toNumber accepts numbers and numeric text, ignoring thousands separators.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
		if s == "" {
			return 0, false
		}

		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}

		return f, true
	default:
		return 0, false
	}
}
