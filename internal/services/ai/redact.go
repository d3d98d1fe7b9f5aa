package ai

import (
	"strings"
	"unicode"
)

const (
	// PreviewLength bounds prompt and response previews at info level
	PreviewLength = 200
	// FullLogLength bounds prompts and responses in debug mode
	FullLogLength = 10000
	// Redacted replaces secret material in logs
	Redacted = "[REDACTED]"
)

// RedactAPIKey keeps the first and last four characters of a key
func RedactAPIKey(key string) string {
	switch {
	case key == "":
		return ""
	case len(key) <= 8:
		return Redacted
	default:
		return key[:4] + Redacted + key[len(key)-4:]
	}
}

// RedactDataURI keeps the media type header of an image data URI and drops
// the base64 payload, which is large and carries the user's photo.
func RedactDataURI(uri string) string {
	header, _, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(header, "data:") {
		if uri == "" {
			return ""
		}
		return Redacted
	}
	return header + "," + Redacted
}

// Preview makes model text safe to log. Non-printable runes are dropped and
// the result is cut at a rune boundary.
func Preview(text string, full bool) string {
	limit := PreviewLength
	if full {
		limit = FullLogLength
	}
	var b strings.Builder
	b.Grow(min(len(text), limit+3))
	n := 0
	for _, r := range strings.ToValidUTF8(text, "") {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			continue
		}
		if n == limit {
			b.WriteString("...")
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}
