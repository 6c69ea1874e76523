package util

import (
	"strings"
	"testing"
)

func TestWrapString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"short", "one line", "one line"},
		{"collapses spaces", "a   b\tc", "a b c"},
		{"wraps", strings.Repeat("word ", 12), "word word word word word word word word word word\nword word"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WrapString(tt.in); got != tt.want {
				t.Errorf("WrapString(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWrapStringLongWord(t *testing.T) {
	long := strings.Repeat("x", Wrap+10)
	if got := WrapString("a " + long + " b"); got != "a\n"+long+"\nb" {
		t.Errorf("unexpected wrap: %q", got)
	}
}
