package session

import (
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"main", true},
		{"bot-1", true},
		{"my_session", true},
		{"", false},
		{"Has Upper", false},
		{"slash/name", false},
		{"dots..", false},
		{strings.Repeat("a", 64), true},
		{strings.Repeat("a", 65), false},
	}
	for _, tt := range tests {
		err := ValidateName(tt.name)
		if tt.valid && err != nil {
			t.Errorf("ValidateName(%q) = %v, want nil", tt.name, err)
		}
		if !tt.valid && err == nil {
			t.Errorf("ValidateName(%q) = nil, want error", tt.name)
		}
	}
}

func TestPathsLiveUnderSessionDir(t *testing.T) {
	dir := Dir("main")
	for _, p := range []string{
		DeviceDBPath("main"),
		ArchiveDBPath("main"),
		MemoryCardPath("main"),
		LogPath("main"),
	} {
		if !strings.HasPrefix(p, dir) {
			t.Errorf("path %q not under session dir %q", p, dir)
		}
	}
}
