package config

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "machine.yaml", cfg.File)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Strict)
	assert.Zero(t, cfg.RedisTTL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FSM_FILE", "flows/door.yaml")
	t.Setenv("FSM_STORE", "redis")
	t.Setenv("FSM_REDIS_TTL", "1h")
	t.Setenv("FSM_STRICT", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "flows/door.yaml", cfg.File)
	assert.Equal(t, StoreRedis, cfg.Store)
	assert.Equal(t, time.Hour, cfg.RedisTTL)
	assert.True(t, cfg.Strict)
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("FSM_REDIS_DB", "not-an-int")
	_, err := Load()
	require.Error(t, err)
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestLoadDefersValidation(t *testing.T) {
	t.Setenv("FSM_STORE", "bogus")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "bogus", cfg.Store)
	assert.ErrorContains(t, cfg.Validate(), "unknown store")
}

func TestValidate(t *testing.T) {
	assert.Error(t, Config{Store: "sqlite"}.Validate())
	assert.Error(t, Config{Store: StoreMemory, RedisTTL: -time.Second}.Validate())
	assert.NoError(t, Config{Store: StoreFile}.Validate())
}

func TestEncryptionKeys(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
	old := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("o", 32)))

	active, fallback, err := Config{}.EncryptionKeys()
	require.NoError(t, err)
	assert.Nil(t, active)
	assert.Nil(t, fallback)

	t.Setenv("FSM_ENCRYPTION_KEY", key)
	t.Setenv("FSM_ENCRYPTION_FALLBACK_KEYS", old+","+old)
	cfg, err := Load()
	require.NoError(t, err)
	active, fallback, err = cfg.EncryptionKeys()
	require.NoError(t, err)
	assert.Len(t, active, 32)
	assert.Len(t, fallback, 2)

	bad := Config{Store: StoreMemory, EncryptionKey: base64.StdEncoding.EncodeToString([]byte("short"))}
	assert.ErrorContains(t, bad.Validate(), "want 32 bytes")

	orphan := Config{Store: StoreMemory, EncryptionFallbackKeys: []string{old}}
	assert.Error(t, orphan.Validate())
}
