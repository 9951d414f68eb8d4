package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAML(t *testing.T) {
	path := write(t, t.TempDir(), "canopy.yaml", `
log_level: debug
store:
  backend: redis
  redis:
    addr: redis:6379
    db: "2"
    ttl: 90s
`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 2, cfg.Store.Redis.DB)
	assert.Equal(t, 90*time.Second, cfg.Store.Redis.TTL)
	// Untouched fields keep their defaults.
	assert.Equal(t, ":8080", cfg.Serve.Addr)
}

func TestLoad_TOML(t *testing.T) {
	path := write(t, t.TempDir(), "canopy.toml", `
[store]
backend = "blob"

[store.blob]
url = "mem://"
prefix = "snaps/"

[serve]
addr = ":9090"
`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, BackendBlob, cfg.Store.Backend)
	assert.Equal(t, BlobConfig{URL: "mem://", Prefix: "snaps/"}, cfg.Store.Blob)
	assert.Equal(t, ":9090", cfg.Serve.Addr)
}

func TestLoad_Encryption(t *testing.T) {
	path := write(t, t.TempDir(), "canopy.yaml", `
store:
  encryption:
    key: a2V5
    fallback_keys: [b2xk]
  redact: ["/vault"]
`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, EncryptionConfig{Key: "a2V5", FallbackKeys: []string{"b2xk"}}, cfg.Store.Encryption)
	assert.Equal(t, []string{"/vault"}, cfg.Store.Redact)

	_, err = Load(write(t, t.TempDir(), "canopy.yaml", "store:\n  encryption:\n    fallback_keys: [b2xk]\n"), nil)
	assert.ErrorContains(t, err, "without store.encryption.key")
}

func TestLoad_OverridesWin(t *testing.T) {
	path := write(t, t.TempDir(), "canopy.yaml", "store:\n  backend: redis\n")
	cfg, err := Load(path, map[string]any{
		"store.backend": "memory",
		"log_level":     "warn",
	})
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(write(t, dir, "bad.yaml", "store:\n  backend: tape\n"), nil)
	assert.ErrorContains(t, err, "unknown store backend")

	_, err = Load(write(t, dir, "noblob.yaml", "store:\n  backend: blob\n"), nil)
	assert.ErrorContains(t, err, "store.blob.url")

	_, err = Load(write(t, dir, "typo.yaml", "stor:\n  backend: memory\n"), nil)
	assert.Error(t, err)

	_, err = Load(write(t, dir, "canopy.ini", "x=1"), nil)
	assert.ErrorContains(t, err, "unsupported config format")

	_, err = Load(filepath.Join(dir, "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, Discover(dir))

	write(t, dir, "canopy.toml", "")
	assert.Equal(t, filepath.Join(dir, "canopy.toml"), Discover(dir))

	write(t, dir, "canopy.yaml", "")
	assert.Equal(t, filepath.Join(dir, "canopy.yaml"), Discover(dir))
}
