// Package bootstrap opens the runtime dependencies shared by the commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"threads/internal/cache"
	"threads/internal/config"
	"threads/internal/database"
	"threads/internal/docstore"
	"threads/internal/middleware"
	"threads/internal/repository"

	"github.com/redis/go-redis/v9"
)

// Runtime is the set of connections a process works against.
type Runtime struct {
	Handle *database.Handle
	Store  *repository.Store
	// Redis is nil when no Redis is reachable.
	Redis *redis.Client
}

// InitRuntime connects to the document store and Redis.
func InitRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	h, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	store, err := NewStore(ctx, h, cfg)
	if err != nil {
		_ = h.Close(ctx)
		return nil, err
	}

	// may be nil if unreachable
	r := cache.InitRedis(cfg.RedisURL)

	middleware.Logger.InfoContext(ctx, "runtime initialised",
		slog.String("store", string(h.Kind)),
		slog.Bool("redis", r != nil),
	)
	return &Runtime{Handle: h, Store: store, Redis: r}, nil
}

// NewStore builds the repositories for the backend behind h.
func NewStore(ctx context.Context, h *database.Handle, cfg *config.Config) (*repository.Store, error) {
	switch h.Kind {
	case database.KindDisabled:
		return repository.NewDisabledStore(), nil
	case database.KindMongo:
		if err := docstore.EnsureIndexes(ctx, h.Mongo); err != nil {
			return nil, fmt.Errorf("failed to ensure indexes: %w", err)
		}
		return docstore.NewStore(h.Mongo, cfg.MongoTransactions), nil
	default:
		return repository.NewGormStore(h.Gorm), nil
	}
}

// Close releases every connection held by r.
func (r *Runtime) Close(ctx context.Context) error {
	if r.Redis != nil {
		if err := r.Redis.Close(); err != nil {
			middleware.Logger.WarnContext(ctx, "error closing redis", slog.String("error", err.Error()))
		}
	}
	return r.Handle.Close(ctx)
}
