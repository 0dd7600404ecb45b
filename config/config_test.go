package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/worklog-engine/config"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_NoPath_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "plans.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_OverridesAndDefaults(t *testing.T) {
	path := writeFile(t, "port: 9090\nlog_level: debug\n")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	// Untouched keys keep defaults.
	assert.Equal(t, "plans.db", cfg.DBPath)
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	path := writeFile(t, "prot: 9090\n")
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_InvalidPort(t *testing.T) {
	path := writeFile(t, "port: -1\n")
	_, err := config.Load(path)
	assert.Error(t, err)
}
