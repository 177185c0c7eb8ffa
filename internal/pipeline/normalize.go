package pipeline

import (
	"regexp"
	"strings"
)

var (
	controlWhitespace = regexp.MustCompile(`[\n\r\t]`)
	// \s alone is ASCII-only; pages mix in U+3000 and NBSP
	whitespaceRun = regexp.MustCompile(`[\s\v\x{85}\p{Z}]+`)
)

// Normalize replaces newlines, carriage returns and tabs with spaces,
// collapses whitespace runs to a single space and trims the result.
func Normalize(s string) string {
	s = controlWhitespace.ReplaceAllString(s, " ")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
