package upload

import "strings"

// FirstValue returns the first of the values a form field arrived with, trimmed.
// Absent fields yield "".
func FirstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

// normalizeTitle falls back to the client's file name when no usable title was sent.
func normalizeTitle(values []string, originalName string) string {
	if title := FirstValue(values); title != "" {
		return title
	}
	return strings.TrimSpace(originalName)
}
