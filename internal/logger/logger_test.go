package logger

import (
	"strings"
	"testing"
)

func TestPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "/api/weather", "/api/weather"},
		{"query dropped", "/api/weather?lat=52.52&lon=13.40", "/api/weather"},
		{"control characters", "/api/\x00weather\n", "/api/weather"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := Path(tt.in)
			if f.Key != "path" || f.String != tt.want {
				t.Errorf("Path(%q) = %s:%q, want path:%q", tt.in, f.Key, f.String, tt.want)
			}
		})
	}

	long := "/" + strings.Repeat("a", MaxPathLength+10)
	if got := Path(long).String; len(got) != MaxPathLength+3 {
		t.Errorf("Expected truncation to %d chars, got %d", MaxPathLength+3, len(got))
	}
}

func TestFile(t *testing.T) {
	t.Parallel()

	f := File("/home/me/Pictures/red shirt.heic")
	if f.Key != "file" || f.String != "red shirt.heic" {
		t.Errorf("File() = %s:%q", f.Key, f.String)
	}
	if FileName("") != "" {
		t.Error("Expected empty name to stay empty")
	}
}

func TestClean(t *testing.T) {
	t.Parallel()

	got := Clean(strings.Repeat("é", 10), 5)
	if got != strings.Repeat("é", 5)+"..." {
		t.Errorf("Clean() = %q", got)
	}
	if got := Clean("bad\r\ninput\xff", 0); got != "badinput" {
		t.Errorf("Clean() = %q", got)
	}
}

func TestNewCLILogger(t *testing.T) {
	t.Parallel()

	if l := NewCLILogger(false, false); l.Core().Enabled(-1) {
		t.Error("Debug must be disabled without debug mode")
	}
	if l := NewCLILogger(true, true); !l.Core().Enabled(-1) {
		t.Error("Debug must be enabled in debug mode")
	}
}
