package sheets

import (
	"strings"
	"testing"
)

func TestSheetTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"google:123", "google:123"},
		{"  google:7 ", "google:7"},
		{"a/b[c]*?'\\", "a_b_c_____"},
		{"", "_"},
	}
	for _, tt := range tests {
		if got := SheetTitle(tt.in); got != tt.want {
			t.Errorf("SheetTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if got := SheetTitle(strings.Repeat("x", 150)); len(got) != maxTitleLength {
		t.Errorf("long title length = %d, want %d", len(got), maxTitleLength)
	}
}
