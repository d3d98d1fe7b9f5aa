package logger

import (
	"path/filepath"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

const (
	// MaxPathLength bounds logged request paths
	MaxPathLength = 500
	// MaxFileNameLength bounds logged upload names
	MaxFileNameLength = 255
	// MaxStringLength is the bound Clean applies when given none
	MaxStringLength = 2000
)

// Path is a "path" field holding a request path without its query string,
// which may carry coordinates.
func Path(p string) zap.Field {
	p, _, _ = strings.Cut(p, "?")
	return zap.String("path", Clean(p, MaxPathLength))
}

// FileName reduces an uploaded file path to a loggable base name
func FileName(name string) string {
	if name == "" {
		return ""
	}
	return Clean(filepath.Base(name), MaxFileNameLength)
}

// File is a "file" field holding FileName(name)
func File(name string) zap.Field {
	return zap.String("file", FileName(name))
}

// Clean drops invalid UTF-8, control characters and line breaks from s so
// one log entry cannot forge another, then cuts it to max runes.
func Clean(s string, max int) string {
	if max <= 0 {
		max = MaxStringLength
	}
	var b strings.Builder
	b.Grow(min(len(s), max+3))
	n := 0
	for _, r := range strings.ToValidUTF8(s, "") {
		if !unicode.IsPrint(r) && r != '\t' {
			continue
		}
		if n == max {
			b.WriteString("...")
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}
