package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, int64(4096), cfg.MaxTokens)
	assert.Equal(t, 25, cfg.MaxIterations)
	assert.Equal(t, 100, cfg.HistoryWindowSize)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
provider: anthropic
model: claude-sonnet-4-20250514
max_iterations: 10
store:
  driver: sqlite
  dsn: agent.db
log:
  level: debug
`), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.Model)
	assert.Equal(t, 10, cfg.MaxIterations)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "agent.db", cfg.Store.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Unset keys keep their defaults.
	assert.Equal(t, int64(4096), cfg.MaxTokens)
	assert.Equal(t, 100, cfg.HistoryWindowSize)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: [unclosed"), 0o644))
	_, err := LoadFile(path)
	assert.Error(t, err)
}
