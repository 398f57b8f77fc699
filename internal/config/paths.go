package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	platformLinux  = "linux"
	platformDarwin = "darwin"
)

const appName = "lockbookgo"

// configFileName is the file Load reads relative to DefaultConfigPath's
// directory.
const configFileName = "config.toml"

// DefaultConfigDir returns the platform-specific directory lockbookgo reads
// its config file from: XDG_CONFIG_HOME on Linux, Application Support on
// macOS, falling back to ~/.config elsewhere.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	switch runtime.GOOS {
	case platformLinux:
		return linuxXDGDir(home, "XDG_CONFIG_HOME", ".config")
	case platformDarwin:
		return filepath.Join(home, "Library", "Application Support", appName)
	default:
		return filepath.Join(home, ".config", appName)
	}
}

// DefaultDataDir returns the platform-specific directory for the account
// database, document store, and sync state.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	switch runtime.GOOS {
	case platformLinux:
		return linuxXDGDir(home, "XDG_DATA_HOME", ".local/share")
	case platformDarwin:
		return filepath.Join(home, "Library", "Application Support", appName)
	default:
		return filepath.Join(home, ".local", "share", appName)
	}
}

func linuxXDGDir(home, envVar, fallback string) string {
	if xdg := os.Getenv(envVar); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	return filepath.Join(home, fallback, appName)
}

// DefaultConfigPath is the full path Load falls back to when neither
// --config nor LOCKBOOKGO_CONFIG names one explicitly.
func DefaultConfigPath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, configFileName)
}
