// Package config loads the qbx config dir: config.json, the account list and
// the genesis description.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap/zapcore"
)

const (
	defaultLogLevel = "info"
	defaultInterval = 2

	configFile = "config.json"
)

// Load reads config from dir (or creates defaults). dir defaults to
// $QBX_CONFIG_DIR, then ~/.qbx.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = os.Getenv(DirEnv)
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".qbx")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg, err := loadJSON[Config](filepath.Join(dir, configFile), defaults())
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.configDir = dir
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	return saveJSON(filepath.Join(c.configDir, configFile), c)
}

// Validate checks values a hand-edited config.json could get wrong.
func (c *Config) Validate() error {
	if c.LogLevel != "" {
		if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
	}
	if c.WatchInterval <= 0 {
		return fmt.Errorf("watch_interval must be positive, got %d", c.WatchInterval)
	}
	return nil
}

// Dir returns the config directory.
func (c *Config) Dir() string { return c.configDir }

// LedgerPath is the bbolt file holding ledger state and receipts.
func (c *Config) LedgerPath() string { return filepath.Join(c.configDir, LedgerFile) }

// AccountsPath is the account list.
func (c *Config) AccountsPath() string { return filepath.Join(c.configDir, AccountsFile) }

// GenesisPath is the default genesis description.
func (c *Config) GenesisPath() string { return filepath.Join(c.configDir, GenesisFile) }

// WatchPoll returns the watch interval, never below MinWatchPoll.
func (c *Config) WatchPoll() time.Duration {
	d := time.Duration(c.WatchInterval) * time.Second
	if d < MinWatchPoll {
		return MinWatchPoll
	}
	return d
}

// --- helpers ---

func defaults() *Config {
	return &Config{
		LogLevel:      defaultLogLevel,
		WatchInterval: defaultInterval,
	}
}

// loadJSON decodes path over def; a missing file yields def unchanged.
func loadJSON[T any](path string, def *T) (*T, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return def, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, def); err != nil {
		return nil, err
	}
	return def, nil
}

func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
