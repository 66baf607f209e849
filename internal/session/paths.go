// Package session resolves the on-disk layout for named puppet
// sessions and validates session names.
package session

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.puppet-whatsapp.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".puppet-whatsapp")
}

// Dir returns the session-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "sessions", name)
}

// DeviceDBPath returns the whatsmeow device store path.
func DeviceDBPath(name string) string {
	return filepath.Join(Dir(name), "device.db")
}

// ArchiveDBPath returns the message archive path.
func ArchiveDBPath(name string) string {
	return filepath.Join(Dir(name), "archive.db")
}

// MemoryCardPath returns the memory card file path.
func MemoryCardPath(name string) string {
	return filepath.Join(Dir(name), "memory-card.json")
}

// LogPath returns the session log file path.
func LogPath(name string) string {
	return filepath.Join(Dir(name), "logs", "puppet.log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the session directory tree with 0700 permissions.
func EnsureDir(name string) error {
	dirs := []string{
		Dir(name),
		filepath.Join(Dir(name), "logs"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
