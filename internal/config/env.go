package config

import "os"

// Environment variable names for overrides, read by ReadEnvOverrides.
const (
	EnvConfig  = "LOCKBOOKGO_CONFIG"
	EnvDataDir = "LOCKBOOKGO_DATA_DIR"
	EnvAPIURL  = "LOCKBOOKGO_API_URL"
)

// EnvOverrides holds values derived from environment variables. Resolving
// them doesn't modify a Config; ResolveConfigPath and Load's callers apply
// the ones that matter to them.
type EnvOverrides struct {
	ConfigPath string
	DataDir    string
	APIURL     string
}

// ReadEnvOverrides reads the lockbookgo environment variables.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath: os.Getenv(EnvConfig),
		DataDir:    os.Getenv(EnvDataDir),
		APIURL:     os.Getenv(EnvAPIURL),
	}
}

// ResolveConfigPath picks the config file to read: an explicit flag value,
// then LOCKBOOKGO_CONFIG, then the platform default.
func ResolveConfigPath(env EnvOverrides, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env.ConfigPath != "" {
		return env.ConfigPath
	}
	return DefaultConfigPath()
}

// applyEnvOverrides layers env on top of a loaded/default Config. Flags are
// applied afterward, by the CLI layer, so they win over both.
func applyEnvOverrides(cfg *Config, env EnvOverrides) {
	if env.DataDir != "" {
		cfg.Account.DataDir = env.DataDir
	}
	if env.APIURL != "" {
		cfg.Account.APIURL = env.APIURL
	}
}
