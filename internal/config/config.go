// Package config implements the process's TOML bootstrap
// configuration, grounded on kafji-terong's
// config.ReadConfig: a single struct decoded with
// github.com/BurntSushi/toml, default path, no hot-reload.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultPath is used when no path is given on the command line.
const DefaultPath = "/etc/inputcore/inputcore.toml"

// Config is the root of the TOML document.
type Config struct {
	LogLevel      string        `toml:"log_level"`
	VariableStore VariableStore `toml:"variable_store"`
	Metrics       Metrics       `toml:"metrics"`
	Retry         Retry         `toml:"retry"`
	Devices       []Device      `toml:"device"`
}

// VariableStore configures the shared-state sqlite file of spec §4.8.
type VariableStore struct {
	Path string `toml:"path"`
}

// Metrics configures the prometheus HTTP endpoint.
type Metrics struct {
	ListenAddr string `toml:"listen_addr"`
}

// Retry configures the injector's grab-retry backoff (spec §7).
type Retry struct {
	MaxAttempts int `toml:"max_attempts"`
	BaseDelayMs int `toml:"base_delay_ms"`
}

// BaseDelay converts BaseDelayMs to a time.Duration.
func (r Retry) BaseDelay() time.Duration {
	return time.Duration(r.BaseDelayMs) * time.Millisecond
}

// Device is one logical device: a name (used for forward-sink naming
// and logging) and the source devnode paths that make it up, plus the
// preset file path to compile for it.
type Device struct {
	Name       string   `toml:"name"`
	Devnodes   []string `toml:"devnodes"`
	PresetPath string   `toml:"preset_path"`
}

// Load reads and decodes the TOML file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.VariableStore.Path == "" {
		c.VariableStore.Path = "/var/lib/inputcore/variables.db"
	}
	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = ":9414"
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 5
	}
	if c.Retry.BaseDelayMs == 0 {
		c.Retry.BaseDelayMs = 100
	}
}
