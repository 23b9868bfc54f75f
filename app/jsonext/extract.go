// Package jsonext extracts JSON fragments from free-text model output.
//
// Language model responses frequently wrap the requested JSON in prose
// ("Sure! Here is the result: {...}"). Extraction scans for the outermost
// delimiters, then strict-parses the slice. Any failure yields nil; callers
// substitute their documented default instead of propagating an error.
package jsonext

import (
	"encoding/json"
	"strings"
)

// ExtractObject returns the first-to-last brace slice of text decoded as a
// JSON object, or nil when no valid object is present.
func ExtractObject(text string) map[string]any {
	raw := between(text, '{', '}')
	if raw == "" {
		return nil
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil
	}
	return result
}

// ExtractArray returns the first-to-last bracket slice of text decoded as a
// JSON array, or nil when no valid array is present.
func ExtractArray(text string) []any {
	raw := between(text, '[', ']')
	if raw == "" {
		return nil
	}

	var result []any
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil
	}
	return result
}

// String reads a string value from an extracted object, returning fallback
// for missing keys and non-string values.
func String(data map[string]any, key, fallback string) string {
	if data == nil {
		return fallback
	}
	if value, ok := data[key].(string); ok {
		return value
	}
	return fallback
}

// Bool reads a bool value from an extracted object.
func Bool(data map[string]any, key string, fallback bool) bool {
	if data == nil {
		return fallback
	}
	if value, ok := data[key].(bool); ok {
		return value
	}
	return fallback
}

// Strings reads an array of strings from an extracted object, skipping
// non-string elements.
func Strings(data map[string]any, key string) []string {
	if data == nil {
		return nil
	}
	items, ok := data[key].([]any)
	if !ok {
		return nil
	}
	var result []string
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			result = append(result, s)
		}
	}
	return result
}

func between(text string, open, close byte) string {
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, close)
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return text[start : end+1]
}
