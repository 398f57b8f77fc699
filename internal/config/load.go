package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Load reads and parses the TOML config file at path, starting from
// DefaultConfig and overlaying whatever the file sets. A missing file is
// not an error: Load falls back to defaults, the way a first run with no
// config yet should behave.
func Load(path string, logger *slog.Logger) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug("no config file found, using defaults", "path", path)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	logger.Debug("config file loaded", "path", path, "data_dir", cfg.Account.DataDir)
	return cfg, nil
}

// LoadResolved reads the config file ResolveConfigPath names, then layers
// environment overrides on top.
func LoadResolved(flagConfigPath string, logger *slog.Logger) (*Config, error) {
	env := ReadEnvOverrides()
	path := ResolveConfigPath(env, flagConfigPath)

	cfg, err := Load(path, logger)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg, env)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields Load can't express as TOML struct shape alone:
// non-empty data directory, a parseable poll interval, a recognized log
// level/format.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Account.DataDir == "" {
		errs = append(errs, errors.New("account.data_dir must not be empty"))
	}
	if cfg.Account.APIURL == "" {
		errs = append(errs, errors.New("account.api_url must not be empty"))
	}

	if _, err := time.ParseDuration(cfg.Sync.PollInterval); err != nil {
		errs = append(errs, fmt.Errorf("sync.poll_interval %q: %w", cfg.Sync.PollInterval, err))
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q must be one of debug, info, warn, error", cfg.Logging.Level))
	}

	switch cfg.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be text or json", cfg.Logging.Format))
	}

	return errors.Join(errs...)
}
