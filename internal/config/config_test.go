package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = "9090"

[catalog]
match = "substring"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "substring", cfg.Catalog.Match)
	// untouched keys keep their defaults
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, 4, cfg.Concurrency.BulkReports)
	assert.Contains(t, cfg.Summary.Garden, "%s")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\nport = "), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestRepoConfigParses(t *testing.T) {
	cfg, err := Load("../../config/config.toml")
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("STORE_BACKEND", "memgraph")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("LLM_PROVIDER", "openai")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "memgraph", cfg.Store.Backend)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, "openai", cfg.LLM.Provider)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())

	cfg.Store.Backend = "postgres"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Auth.Enabled = true
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Report.Rasterizer = "gpu"
	assert.Error(t, cfg.Validate())
}
