// Package config loads CLI settings from canopy.yaml or canopy.toml, with flag overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendBlob   = "blob"
)

// FileNames are the configuration files Discover looks for, in order.
var FileNames = []string{"canopy.yaml", "canopy.yml", "canopy.toml"}

// Config is the CLI configuration.
type Config struct {
	LogLevel string      `mapstructure:"log_level"`
	Store    StoreConfig `mapstructure:"store"`
	Serve    ServeConfig `mapstructure:"serve"`
}

type StoreConfig struct {
	Backend    string           `mapstructure:"backend"`
	Dir        string           `mapstructure:"dir"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Blob       BlobConfig       `mapstructure:"blob"`
	Encryption EncryptionConfig `mapstructure:"encryption"`
	// Redact lists path patterns whose local state is never persisted.
	Redact []string `mapstructure:"redact"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type BlobConfig struct {
	URL    string `mapstructure:"url"`
	Prefix string `mapstructure:"prefix"`
}

// EncryptionConfig holds base64 AES-256 keys. Encryption is off without a key.
type EncryptionConfig struct {
	Key          string   `mapstructure:"key"`
	FallbackKeys []string `mapstructure:"fallback_keys"`
}

type ServeConfig struct {
	Addr string `mapstructure:"addr"`
}

// Default returns the configuration used when no file or override sets a value.
func Default() Config {
	return Config{
		LogLevel: "info",
		Store: StoreConfig{
			Backend: BackendFile,
			Dir:     filepath.Join(".canopy", "sessions"),
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
		Serve: ServeConfig{Addr: ":8080"},
	}
}

// Discover returns the first configuration file present in dir, or "" if there is none.
func Discover(dir string) string {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Load reads path (skipped when empty), applies overrides and decodes the result
// over Default. Override keys are dotted paths such as "store.redis.addr".
func Load(path string, overrides map[string]any) (Config, error) {
	raw := map[string]any{}
	if path != "" {
		var err error
		raw, err = readFile(path)
		if err != nil {
			return Config{}, err
		}
	}
	for key, value := range overrides {
		setPath(raw, strings.Split(key, "."), value)
	}

	cfg := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the fields the store factory depends on.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	case BackendBlob:
		if c.Store.Blob.URL == "" {
			return errors.New("config: store.blob.url is required for the blob backend")
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Encryption.Key == "" && len(c.Store.Encryption.FallbackKeys) > 0 {
		return errors.New("config: store.encryption.fallback_keys set without store.encryption.key")
	}
	if c.Store.Redis.TTL < 0 {
		return errors.New("config: store.redis.ttl must not be negative")
	}
	return nil
}

func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	raw := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", path)
	}
	return raw, nil
}

func setPath(m map[string]any, keys []string, value any) {
	if len(keys) == 1 {
		m[keys[0]] = value
		return
	}
	next, ok := m[keys[0]].(map[string]any)
	if !ok {
		next = map[string]any{}
		m[keys[0]] = next
	}
	setPath(next, keys[1:], value)
}
