package prompt

import "strings"

// NormalizeLineEndings converts CRLF and lone CR line endings to LF.
func NormalizeLineEndings(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// CleanTitle trims a title. Whitespace-only titles become nil.
func CleanTitle(title string) *string {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	return &title
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
