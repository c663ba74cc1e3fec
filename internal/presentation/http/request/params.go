// Package request holds the canonical helpers for decoding path and query
// values. Numeric parameters occasionally arrive quoted ('"1"'), so a single
// tolerant parser replaces ad-hoc normalization at each call site.
package request

import (
	"strconv"
	"strings"
)

// Int parses a possibly-quoted numeric string. The second return value is
// false when the input is empty or not a number.
func Int(raw string) (int64, bool) {
	trimmed := strings.Trim(strings.TrimSpace(raw), `"`)
	if trimmed == "" {
		return 0, false
	}
	value, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// CSV splits a comma separated query value into trimmed non-empty items.
func CSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if p := strings.TrimSpace(part); p != "" {
			items = append(items, p)
		}
	}
	return items
}
