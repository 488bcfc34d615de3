package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func TestParseConfigFiles(t *testing.T) {
	dir := t.TempDir()

	base := filepath.Join(dir, "config.json")
	assert.NoError(t, os.WriteFile(base, []byte(`{
		"store": {"driver": "sqlite", "path": "state/notiboss.db"},
		"webhook_url": "https://discord.com/api/webhooks/1/abc",
		"refresh_frequency": "15m"
	}`), 0o600))

	local := filepath.Join(dir, "config.local.json")
	assert.NoError(t, os.WriteFile(local, []byte(`{
		"console": false,
		"webhook_username": "NotiBoss"
	}`), 0o600))

	cfg, err := parseConfigFiles([]string{base, local})
	assert.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "state/notiboss.db", cfg.Store.Path)
	assert.Equal(t, "https://discord.com/api/webhooks/1/abc", cfg.WebhookURL)
	assert.Equal(t, "NotiBoss", cfg.WebhookUsername)
	assert.Equal(t, 15*time.Minute, cfg.RefreshFrequency.Duration())
	assert.False(t, cfg.console())
	assert.True(t, cfg.resume())
}

func TestParseConfigFiles_invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	assert.NoError(t, os.WriteFile(path, []byte(`{"refresh_frequency": "soon"}`), 0o600))

	_, err := parseConfigFiles([]string{path})
	assert.Error(t, err)
}

func TestParseConfigFiles_none(t *testing.T) {
	cfg, err := parseConfigFiles(nil)
	assert.NoError(t, err)
	assert.True(t, cfg.console())
	assert.Equal(t, "", cfg.Store.Driver)
}
