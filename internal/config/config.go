// Package config implements TOML configuration loading, environment
// overrides, and default path resolution for the lockbookgo CLI.
package config

// Config is the top-level configuration structure, decoded from TOML.
type Config struct {
	Account AccountConfig `toml:"account"`
	Sync    SyncConfig    `toml:"sync"`
	Logging LoggingConfig `toml:"logging"`
}

// AccountConfig names the active account's data location and the relay
// server it syncs against. APIURL is only consulted the first time an
// account is created on this machine; afterward it's read back from the
// stored Account itself.
type AccountConfig struct {
	DataDir string `toml:"data_dir"`
	APIURL  string `toml:"api_url"`
}

// SyncConfig controls automatic and manual sync behavior.
type SyncConfig struct {
	PollInterval string `toml:"poll_interval"`
	AutoSync     bool   `toml:"auto_sync"`
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfig returns the configuration used when no file is present and
// no overrides apply.
func DefaultConfig() *Config {
	return &Config{
		Account: AccountConfig{
			DataDir: DefaultDataDir(),
			APIURL:  "https://api.lockbook.net",
		},
		Sync: SyncConfig{
			PollInterval: "30s",
			AutoSync:     false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
