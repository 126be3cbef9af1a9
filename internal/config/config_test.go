package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, "server:\n  port: 9090\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "context", cfg.ContextRoot)
	assert.Equal(t, "professional", cfg.Defaults.ReplyStyle)
	assert.Equal(t, 3, cfg.Defaults.DefaultFollowUpDays)
	assert.Equal(t, 20, cfg.Defaults.SendRateLimit)
	assert.Equal(t, "us-east-1", cfg.Bedrock.Region)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadFromEnvOverridesDatabaseURL(t *testing.T) {
	path := writeTempConfig(t, "database:\n  dsn: postgres://local\n")
	t.Setenv("DATABASE_URL", "postgres://override")

	cfg, err := LoadFromEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://override", cfg.Database.DSN)
}
