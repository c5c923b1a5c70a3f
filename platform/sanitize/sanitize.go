// Package sanitize cleans user-provided text before it is stored or rendered
// into PDFs and emails.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text strips every HTML element and trims surrounding whitespace.
// Entities produced by the policy are decoded so the PDF renderer prints
// "&" rather than "&amp;".
func Text(s string) string {
	cleaned := strict.Sanitize(s)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	out := Text(*s)
	return &out
}

// Multiline keeps line breaks but sanitizes each line.
func Multiline(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = Text(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
