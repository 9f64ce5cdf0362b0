// Package config loads the layered daemon configuration: built-in defaults,
// then the YAML config file, then CHIMED_ environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Timezone  string          `koanf:"timezone"`
	LogLevel  string          `koanf:"log_level"`
	Store     StoreConfig     `koanf:"store"`
	HTTP      HTTPConfig      `koanf:"http"`
	Satellite SatelliteConfig `koanf:"satellite"`
	Ring      RingConfig      `koanf:"ring"`
	Sounds    SoundConfig     `koanf:"sounds"`
	Telegram  TelegramConfig  `koanf:"telegram"`
}

type StoreConfig struct {
	Path string `koanf:"path"`
}

type HTTPConfig struct {
	Addr string `koanf:"addr"`
}

type SatelliteConfig struct {
	BaseURL      string `koanf:"base_url"`
	PollInterval int    `koanf:"poll_interval_ms"`
}

type RingConfig struct {
	// MaxAttempts caps ring cycles when positive; 0 rings until stopped.
	MaxAttempts   int `koanf:"max_attempts"`
	SnoozeMinutes int `koanf:"snooze_minutes"`
}

type SoundConfig struct {
	Dir string `koanf:"dir"`
}

type TelegramConfig struct {
	BotToken string `koanf:"bot_token"`
	ChatID   int64  `koanf:"chat_id"`
}

func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		configPath = expandPath(configPath)

		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	// CHIMED_STORE_PATH -> store.path, CHIMED_LOG_LEVEL -> log_level.
	// Only the first underscore becomes a section separator, except for
	// the known top-level keys.
	if err := k.Load(env.Provider("CHIMED_", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Store.Path = expandPath(cfg.Store.Path)
	cfg.Sounds.Dir = expandPath(cfg.Sounds.Dir)

	return &cfg, nil
}

// envKey maps CHIMED_SECTION_SOME_KEY to "section.some_key". Top-level keys
// keep their underscores.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, "CHIMED_"))
	switch s {
	case "timezone", "log_level":
		return s
	}
	return strings.Replace(s, "_", ".", 1)
}

func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return fmt.Errorf("store path is required")
	}
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http addr is required")
	}
	if c.Satellite.BaseURL == "" {
		return fmt.Errorf("satellite base_url is required")
	}
	if c.Ring.SnoozeMinutes <= 0 {
		return fmt.Errorf("snooze_minutes must be positive")
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
		}
	}
	return nil
}

// Location resolves the configured timezone, defaulting to the system one.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// SatellitePollInterval returns the poll interval as a duration.
func (c *Config) SatellitePollInterval() time.Duration {
	if c.Satellite.PollInterval <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.Satellite.PollInterval) * time.Millisecond
}

func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}

	return path
}
