package util

import (
	"os"
	"path/filepath"
	"strings"
)

// HomeDir returns the user's home directory
func HomeDir() string {
	home, _ := os.UserHomeDir()
	return home
}

// ModsyncConfigPath returns the modsync configuration directory (~/.modsync)
func ModsyncConfigPath() string {
	if v := os.Getenv("MODSYNC_HOME"); v != "" {
		return v
	}
	return filepath.Join(HomeDir(), ".modsync")
}

// ModsyncCachePath returns the directory holding download size caches
func ModsyncCachePath() string {
	return filepath.Join(ModsyncConfigPath(), "cache")
}

// ModsyncLogPath returns the default log file location
func ModsyncLogPath() string {
	return filepath.Join(ModsyncConfigPath(), "logs", "modsync.log")
}

// ExpandPath expands a leading ~ and resolves relative paths against baseDir.
// Empty input yields an empty string.
func ExpandPath(p, baseDir string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if p == "~" {
		return HomeDir()
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(HomeDir(), p[2:])
	}
	if filepath.IsAbs(p) || baseDir == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(baseDir, p)
}
