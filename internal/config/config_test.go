package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, 100, cfg.Rows)
	assert.Equal(t, 100, cfg.Cols)
	assert.Equal(t, "v4", cfg.Variant)
	assert.Equal(t, 1000, cfg.Cutoff)
	assert.Empty(t, cfg.JWTSecret)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("POPQUERY_PORT", "9090")
	t.Setenv("POPQUERY_DB_PATH", "/tmp/census.db")
	t.Setenv("POPQUERY_ROWS", "20")
	t.Setenv("POPQUERY_JWT_SECRET", "s3cret")

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Port)
	assert.Equal(t, "/tmp/census.db", cfg.DBPath)
	assert.Equal(t, 20, cfg.Rows)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "popquery.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cols: 7\nvariant: v2\ncache_size: 0\n"), 0o644))

	v := New()
	v.Set("config", path)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Cols)
	assert.Equal(t, "v2", cfg.Variant)
	assert.Zero(t, cfg.CacheSize)
}

func TestLoadInvalid(t *testing.T) {
	v := New()
	v.Set("rows", 0)
	_, err := Load(v)
	assert.Error(t, err)

	v = New()
	v.Set("config", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = Load(v)
	assert.Error(t, err)
}
