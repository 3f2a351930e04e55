// Copyright (c) 2025 TaxRoute Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "http://127.0.0.1:8000", cfg.Server.BaseURL)
	assert.Equal(t, 60, cfg.Server.TimeoutSecs)
	assert.True(t, cfg.Server.Streaming)
	assert.Equal(t, "auto", cfg.UI.Theme)
	assert.True(t, cfg.UI.ConfirmDelete)
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	t.Setenv("TAXROUTE_HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Server.BaseURL, cfg.Server.BaseURL)
}

func TestLoad_TOML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TAXROUTE_HOME", dir)

	data := []byte("[server]\nbase_url = \"https://api.taxroute.example\"\ntimeout_secs = 30\n\n[ui]\ntheme = \"light\"\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), data, 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.taxroute.example", cfg.Server.BaseURL)
	assert.Equal(t, 30, cfg.Server.TimeoutSecs)
	assert.Equal(t, "light", cfg.UI.Theme)
}

func TestLoad_JSONFallback(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TAXROUTE_HOME", dir)

	data := []byte(`{"server": {"base_url": "https://json.taxroute.example"}}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), data, 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://json.taxroute.example", cfg.Server.BaseURL)
}

func TestLoad_TOMLPreferredOverJSON(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TAXROUTE_HOME", dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"),
		[]byte("[server]\nbase_url = \"https://toml.example\"\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"),
		[]byte(`{"server": {"base_url": "https://json.example"}}`), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://toml.example", cfg.Server.BaseURL)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TAXROUTE_HOME", t.TempDir())
	t.Setenv("TAXROUTE_SERVER_URL", "https://env.taxroute.example")
	t.Setenv("TAXROUTE_STREAMING", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://env.taxroute.example", cfg.Server.BaseURL)
	assert.False(t, cfg.Server.Streaming)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"trailing slash trimmed", func(c *Config) { c.Server.BaseURL = "http://localhost:8000/" }, false},
		{"empty url", func(c *Config) { c.Server.BaseURL = "" }, true},
		{"bad scheme", func(c *Config) { c.Server.BaseURL = "ftp://example.com" }, true},
		{"no host", func(c *Config) { c.Server.BaseURL = "http://" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_Normalizes(t *testing.T) {
	cfg := Default()
	cfg.Server.BaseURL = "http://localhost:8000/"
	cfg.Server.TimeoutSecs = -1
	cfg.UI.Theme = "neon"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://localhost:8000", cfg.Server.BaseURL)
	assert.Equal(t, 60, cfg.Server.TimeoutSecs)
	assert.Equal(t, "auto", cfg.UI.Theme)
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TAXROUTE_HOME", dir)

	reloaded := make(chan *Config, 1)
	w, err := Watch(func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Close()

	data := []byte("[server]\nbase_url = \"https://reloaded.example\"\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), data, 0644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "https://reloaded.example", cfg.Server.BaseURL)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never delivered the reloaded config")
	}
}

func TestWatch_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TAXROUTE_HOME", dir)

	reloaded := make(chan struct{}, 1)
	w, err := Watch(func(*Config) {
		select {
		case reloaded <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "session.json"), []byte("{}"), 0600))

	select {
	case <-reloaded:
		t.Fatal("watcher fired for a file it should ignore")
	case <-time.After(500 * time.Millisecond):
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TAXROUTE_HOME", dir)

	cfg := Default()
	cfg.Server.BaseURL = "https://saved.taxroute.example"
	cfg.UI.Theme = "dark"
	require.NoError(t, Save(cfg))

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://saved.taxroute.example", loaded.Server.BaseURL)
	assert.Equal(t, "dark", loaded.UI.Theme)
}
