// Package config loads the campusdesk CLI configuration from an
// optional YAML file, with sane defaults when no file exists.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides the configuration file location.
const EnvConfigPath = "CAMPUSDESK_CONFIG"

// Config is the CLI configuration. Zero fields take defaults from
// Default.
type Config struct {
	// PortalURL is the REST API root of the portal backend.
	PortalURL string `yaml:"portal_url"`
	// PushURL is the websocket endpoint for realtime updates.
	PushURL string `yaml:"push_url"`
	// PollIntervalSeconds is the polling fallback cadence.
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
	// ReconnectAttempts caps push channel reconnects before the
	// session falls back to polling permanently.
	ReconnectAttempts int `yaml:"reconnect_attempts"`
	// CatalogDB is the path of the SQLite course catalog. Empty means
	// the built-in catalog.
	CatalogDB string `yaml:"catalog_db"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		PortalURL:           "https://portal.campusdesk.io",
		PushURL:             "wss://portal.campusdesk.io/push",
		PollIntervalSeconds: 30,
		ReconnectAttempts:   5,
	}
}

// PollInterval returns the polling cadence as a duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// Path returns the effective config file path: $CAMPUSDESK_CONFIG if
// set, otherwise ~/.config/campusdesk/config.yml.
func Path() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "campusdesk", "config.yml")
}

// Load reads the config file at path. A missing file yields the
// defaults; a present but unreadable or malformed file is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills zero fields after unmarshalling a partial file.
func (c *Config) applyDefaults() {
	def := Default()
	if c.PortalURL == "" {
		c.PortalURL = def.PortalURL
	}
	if c.PushURL == "" {
		c.PushURL = def.PushURL
	}
	if c.PollIntervalSeconds <= 0 {
		c.PollIntervalSeconds = def.PollIntervalSeconds
	}
	if c.ReconnectAttempts <= 0 {
		c.ReconnectAttempts = def.ReconnectAttempts
	}
}
