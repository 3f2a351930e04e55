// Copyright (c) 2025 TaxRoute Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for the
// TaxRoute client.
//
// Supports both TOML and JSON formats, with sensible defaults and
// environment variable overrides.
//
// Configuration file locations (in order of precedence):
//   - ~/.taxroute/config.toml
//   - ~/.taxroute/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/taxroute/taxroute-tui/internal/util"
)

// Config represents the complete TaxRoute client configuration.
type Config struct {
	// Server configuration
	Server ServerConfig `toml:"server" json:"server"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// ServerConfig describes how to reach the TaxRoute API server.
type ServerConfig struct {
	// BaseURL is the root of the API, without a trailing slash
	BaseURL string `toml:"base_url" json:"base_url"`
	// TimeoutSecs is the timeout for non-streaming requests
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// Streaming selects the streamed message endpoint; when false the
	// client falls back to the request/response variant
	Streaming bool `toml:"streaming" json:"streaming"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// ConfirmDelete asks before deleting a conversation
	ConfirmDelete bool `toml:"confirm_delete" json:"confirm_delete"`
	// SidebarWidth is the sidebar width in columns
	SidebarWidth int `toml:"sidebar_width" json:"sidebar_width"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:     "http://127.0.0.1:8000",
			TimeoutSecs: 60,
			Streaming:   true,
		},
		UI: UIConfig{
			Theme:         "auto",
			ConfirmDelete: true,
			SidebarWidth:  32,
		},
	}
}

// ConfigDir returns the TaxRoute configuration directory, honoring the
// TAXROUTE_HOME override.
func ConfigDir() (string, error) {
	if dir := os.Getenv("TAXROUTE_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".taxroute"), nil
}

// PathTOML returns the path of the TOML config file.
func PathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// PathJSON returns the path of the JSON config file.
func PathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the configuration, trying TOML first, then JSON, then
// defaults. Environment overrides apply on top of whatever was loaded,
// and the result is validated.
func Load() (*Config, error) {
	cfg := Default()

	if path, err := PathTOML(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return loadPath(cfg, path)
		}
	}
	if path, err := PathJSON(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return loadPath(cfg, path)
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath reads the configuration from an explicit path, picking the
// decoder from the file extension.
func LoadFromPath(path string) (*Config, error) {
	return loadPath(Default(), path)
}

func loadPath(cfg *Config, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	switch filepath.Ext(path) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", path)
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as TOML to the default location.
func Save(cfg *Config) error {
	path, err := PathTOML()
	if err != nil {
		return err
	}

	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return util.AtomicWriteFile(path, []byte(sb.String()), 0644)
}

// ApplyEnvOverrides applies TAXROUTE_* environment variables on top of the
// loaded configuration.
func (c *Config) ApplyEnvOverrides() {
	if u := os.Getenv("TAXROUTE_SERVER_URL"); u != "" {
		c.Server.BaseURL = u
	}
	if theme := os.Getenv("TAXROUTE_THEME"); theme != "" {
		c.UI.Theme = theme
	}
	if streaming := os.Getenv("TAXROUTE_STREAMING"); streaming != "" {
		c.Server.Streaming = streaming != "0" && streaming != "false"
	}
}

// Validate checks the configuration for values the client cannot work
// with. It normalizes as it goes: the base URL loses its trailing slash,
// out-of-range numbers fall back to defaults.
func (c *Config) Validate() error {
	c.Server.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.Server.BaseURL), "/")
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url must be set")
	}
	parsed, err := url.Parse(c.Server.BaseURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("server.base_url %q is not a valid http(s) URL", c.Server.BaseURL)
	}

	if c.Server.TimeoutSecs <= 0 {
		c.Server.TimeoutSecs = Default().Server.TimeoutSecs
	}
	if c.UI.SidebarWidth < 16 {
		c.UI.SidebarWidth = Default().UI.SidebarWidth
	}

	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		c.UI.Theme = "auto"
	}
	return nil
}
