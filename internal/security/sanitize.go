package security

import "html"

// Sanitize HTML-escapes text and truncates it to maxLen runes.
// Escaping happens before truncation, so the length ceiling is measured in
// escaped characters. Stored records were written with this ordering;
// changing it would make old and new records disagree on equality.
func Sanitize(text string, maxLen int) string {
	if text == "" {
		return ""
	}

	escaped := html.EscapeString(text)

	runes := []rune(escaped)
	if len(runes) > maxLen {
		return string(runes[:maxLen])
	}
	return escaped
}

// SanitizePtr applies Sanitize through an optional field, preserving absence.
func SanitizePtr(text *string, maxLen int) *string {
	if text == nil {
		return nil
	}
	s := Sanitize(*text, maxLen)
	return &s
}
