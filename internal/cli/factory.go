package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/fsm/internal/config"
	"github.com/aretw0/fsm/pkg/adapters/file"
	"github.com/aretw0/fsm/pkg/adapters/memory"
	"github.com/aretw0/fsm/pkg/adapters/redis"
	"github.com/aretw0/fsm/pkg/domain"
	"github.com/aretw0/fsm/pkg/observability"
	"github.com/aretw0/fsm/pkg/persistence/middleware"
	"github.com/aretw0/fsm/pkg/ports"
	"github.com/aretw0/fsm/pkg/session"
)

// LoadDefinition reads the machine definition file named in cfg.
func LoadDefinition(ctx context.Context, cfg config.Config) (domain.Config, error) {
	def, err := file.NewLoader(cfg.File).Load(ctx)
	if err != nil {
		return domain.Config{}, err
	}
	if cfg.Strict {
		if err := def.States.Validate(def.Initial); err != nil {
			return domain.Config{}, fmt.Errorf("%s: %w", cfg.File, err)
		}
	}
	return def, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// setupPersistence selects the snapshot store (and locker, for Redis) named in cfg.
func setupPersistence(cfg config.Config) (ports.SnapshotStore, ports.DistributedLocker, io.Closer) {
	switch cfg.Store {
	case config.StoreFile:
		return file.NewStore(cfg.StoreDir), nil, nopCloser{}
	case config.StoreRedis:
		store := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, redis.WithTTL(cfg.RedisTTL))
		return store, redis.NewLocker(store.Client(), "fsm:"), store
	default:
		return memory.NewStore(), nil, nopCloser{}
	}
}

// withEncryption wraps store when an encryption key is configured.
func withEncryption(cfg config.Config, store ports.SnapshotStore) (ports.SnapshotStore, error) {
	active, fallback, err := cfg.EncryptionKeys()
	if err != nil || active == nil {
		return store, err
	}
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    active,
		FallbackKeys: fallback,
	})
	if err != nil {
		return nil, err
	}
	return middleware.Chain(store, mw), nil
}

// NewManager wires the definition, the configured store and optional metrics
// into a session.Manager. The returned closer releases store connections.
func NewManager(ctx context.Context, cfg config.Config, logger *slog.Logger, metrics *observability.Metrics) (*session.Manager, io.Closer, error) {
	def, err := LoadDefinition(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	store, locker, closer := setupPersistence(cfg)
	store, err = withEncryption(cfg, store)
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}

	opts := []session.Option{session.WithLogger(logger)}
	if locker != nil {
		opts = append(opts, session.WithLocker(locker))
	}
	if metrics != nil {
		opts = append(opts, session.WithMetrics(metrics))
	}
	if cfg.Strict {
		opts = append(opts, session.WithStrict())
	}

	mgr, err := session.NewManager(def, store, opts...)
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}

	logger.Debug("manager ready", "file", cfg.File, "store", cfg.Store, "states", def.States.Len())
	return mgr, closer, nil
}
