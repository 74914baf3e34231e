package config

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config holds process settings. Every field can be set from the environment;
// command-line flags take precedence over it.
type Config struct {
	File     string `env:"FSM_FILE" envDefault:"machine.yaml"`
	Strict   bool   `env:"FSM_STRICT" envDefault:"false"`
	LogLevel string `env:"FSM_LOG_LEVEL" envDefault:"info"`

	Store    string `env:"FSM_STORE" envDefault:"memory"`
	StoreDir string `env:"FSM_STORE_DIR" envDefault:".fsm/machines"`

	RedisAddr     string        `env:"FSM_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"FSM_REDIS_PASSWORD"`
	RedisDB       int           `env:"FSM_REDIS_DB" envDefault:"0"`
	RedisTTL      time.Duration `env:"FSM_REDIS_TTL" envDefault:"0s"`

	Addr string `env:"FSM_ADDR" envDefault:":8080"`

	// Base64 AES-256 keys. When EncryptionKey is set snapshots are sealed at rest.
	EncryptionKey          string   `env:"FSM_ENCRYPTION_KEY"`
	EncryptionFallbackKeys []string `env:"FSM_ENCRYPTION_FALLBACK_KEYS" envSeparator:","`
}

// Load reads the configuration from environment variables.
// Values are not validated; call Validate once overrides are applied.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks values env parsing cannot.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		return fmt.Errorf("unknown store %q (want %s, %s or %s)", c.Store, StoreMemory, StoreFile, StoreRedis)
	}
	if c.RedisTTL < 0 {
		return fmt.Errorf("redis ttl must not be negative")
	}
	if _, _, err := c.EncryptionKeys(); err != nil {
		return err
	}
	return nil
}

// EncryptionKeys decodes the configured keys. active is nil when encryption is off.
func (c Config) EncryptionKeys() (active []byte, fallback [][]byte, err error) {
	if c.EncryptionKey == "" {
		if len(c.EncryptionFallbackKeys) > 0 {
			return nil, nil, fmt.Errorf("fallback keys need FSM_ENCRYPTION_KEY")
		}
		return nil, nil, nil
	}
	active, err = decodeKey(c.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("encryption key: %w", err)
	}
	for i, k := range c.EncryptionFallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("fallback key %d: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("want 32 bytes, got %d", len(key))
	}
	return key, nil
}
