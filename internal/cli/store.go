package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/aretw0/canopy/internal/config"
	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/adapters/blob"
	"github.com/aretw0/canopy/pkg/adapters/file"
	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/adapters/redis"
	"github.com/aretw0/canopy/pkg/persistence/middleware"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/session"

	// Bucket URL schemes available to the blob backend.
	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// Backend is an opened snapshot store plus the resources that come with it.
type Backend struct {
	Store  ports.SnapshotStore
	Locker ports.DistributedLocker // nil unless the backend is shared between processes
	close  func() error
}

// Close releases the backend's connections.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// SessionManager wraps the backend's store, with distributed locking when available.
func (b *Backend) SessionManager(logger *slog.Logger) *session.Manager {
	opts := []session.Option{session.WithLogger(logger)}
	if b.Locker != nil {
		opts = append(opts, session.WithLocker(b.Locker))
	}
	return session.NewManager(b.Store, opts...)
}

// OpenBackend opens the store selected by cfg.Store.Backend, wrapped with the
// configured redaction and encryption.
func OpenBackend(ctx context.Context, cfg config.Config) (*Backend, error) {
	b, err := openBackend(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	mws, err := storeMiddlewares(cfg.Store)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	b.Store = middleware.Chain(b.Store, mws...)
	return b, nil
}

func storeMiddlewares(sc config.StoreConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(sc.Redact) > 0 {
		mw, err := middleware.NewRedactMiddleware(sc.Redact)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	if sc.Encryption.Key != "" {
		active, err := decodeKey(sc.Encryption.Key)
		if err != nil {
			return nil, err
		}
		enc := middleware.EncryptionConfig{ActiveKey: active}
		for _, k := range sc.Encryption.FallbackKeys {
			key, err := decodeKey(k)
			if err != nil {
				return nil, err
			}
			enc.FallbackKeys = append(enc.FallbackKeys, key)
		}
		mw, err := middleware.NewEncryptionMiddleware(enc)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return mws, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid base64: %w", err)
	}
	return key, nil
}

func openBackend(ctx context.Context, sc config.StoreConfig) (*Backend, error) {
	switch sc.Backend {
	case config.BackendMemory:
		return &Backend{Store: memory.NewStore()}, nil
	case config.BackendFile:
		return &Backend{Store: file.New(sc.Dir)}, nil
	case config.BackendRedis:
		var opts []redis.Option
		if sc.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(sc.Redis.Prefix))
		}
		if sc.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(sc.Redis.TTL))
		}
		store := redis.New(sc.Redis.Addr, sc.Redis.Password, sc.Redis.DB, opts...)
		if err := store.Client().Ping(ctx).Err(); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", sc.Redis.Addr, err)
		}
		lockPrefix := sc.Redis.Prefix
		if lockPrefix == "" {
			lockPrefix = redis.DefaultPrefix
		}
		return &Backend{
			Store:  store,
			Locker: redis.NewLocker(store.Client(), lockPrefix),
			close:  store.Close,
		}, nil
	case config.BackendBlob:
		store, err := blob.Open(ctx, sc.Blob.URL, sc.Blob.Prefix)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: store, close: store.Close}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", sc.Backend)
	}
}

// NewLogger builds the application logger for a configured level name.
func NewLogger(level string) (*slog.Logger, error) {
	l, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return logging.New(l), nil
}
