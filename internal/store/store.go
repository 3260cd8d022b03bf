// Package store persists optimisation sessions and looks up per-user
// context. Postgres backs both when a database URL is configured; otherwise
// everything lives in memory for the lifetime of the process.
package store

import (
	"context"

	"github.com/google/uuid"

	"atsoptimizer/internal/config"
	"atsoptimizer/internal/errors"
	"atsoptimizer/internal/types"
)

// SessionStore merges partial updates into sessions keyed by id.
type SessionStore interface {
	UpdateSession(ctx context.Context, id uuid.UUID, update types.SessionUpdate) error
	GetSession(ctx context.Context, id uuid.UUID) (*types.Session, error)
}

// UserContextStore returns the stored context for a user. A user without a
// profile yields an empty context and no error.
type UserContextStore interface {
	GetUserContext(ctx context.Context, userID string) (*types.UserContext, error)
}

// Store is the full persistence surface used by the service.
type Store interface {
	SessionStore
	UserContextStore
	Ping(ctx context.Context) error
	// Stats describes the backend for the stats endpoint.
	Stats() map[string]any
	Close() error
}

// Open selects the backend from cfg and, when Redis is enabled, puts a cache
// in front of user context lookups.
func Open(ctx context.Context, cfg *config.Config, logger *errors.Logger) (Store, error) {
	var base Store
	if cfg.Database.URL == "" {
		logger.Info("No database configured, using in-memory session store")
		base = NewMemory()
	} else {
		pg, err := NewPostgres(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		base = pg
	}

	if !cfg.Redis.Enabled {
		return base, nil
	}
	return NewCached(base, NewRedisCache(ctx, cfg.Redis, logger), cfg.Redis.UserContextTTL, logger), nil
}

func notFound(id uuid.UUID) error {
	return errors.NewStorageError(errors.ErrCodeSessionNotFound, "session not found", nil).
		WithContext("session_id", id.String())
}

func storageFailure(op string, err error) *errors.AppError {
	return errors.NewStorageError(errors.ErrCodeStorageFailed, "failed to "+op, err)
}
