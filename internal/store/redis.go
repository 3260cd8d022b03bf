package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"atsoptimizer/internal/config"
	"atsoptimizer/internal/errors"
	"atsoptimizer/internal/types"
)

const defaultUserContextTTL = 10 * time.Minute

// JSONCache is a key/value cache holding JSON documents.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RedisCache is a JSONCache that turns into a no-op when Redis cannot be
// reached at start-up.
type RedisCache struct {
	client *redis.Client
	logger *errors.Logger

	warnedUnavailable atomic.Bool
}

var _ JSONCache = (*RedisCache)(nil)

func NewRedisCache(ctx context.Context, cfg config.RedisConfig, logger *errors.Logger) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Redis unavailable, bypassing cache", "addr", cfg.Addr, "error", err)
		_ = client.Close()
		return &RedisCache{logger: logger}
	}
	logger.Info("Connected to Redis", "addr", cfg.Addr, "db", cfg.DB)
	return &RedisCache{client: client, logger: logger}
}

func (r *RedisCache) isUnavailable() bool {
	return r == nil || r.client == nil
}

func (r *RedisCache) warnUnavailableOnce(err error) {
	if r.warnedUnavailable.CompareAndSwap(false, true) {
		r.logger.Warn("Redis unavailable, bypassing cache", "error", err)
	}
}

func (r *RedisCache) Ping(ctx context.Context) error {
	if r.isUnavailable() {
		return stderrors.New("redis unavailable")
	}
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	if r.isUnavailable() {
		return false, nil
	}
	b, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return false, nil
		}
		r.warnUnavailableOnce(err)
		return false, err
	}
	if len(b) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, err
	}
	return true, nil
}

func (r *RedisCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if r.isUnavailable() {
		return nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, key, b, ttl).Err(); err != nil {
		r.warnUnavailableOnce(err)
		return err
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	if r.isUnavailable() {
		return nil
	}
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.warnUnavailableOnce(err)
		return err
	}
	return nil
}

func (r *RedisCache) Close() error {
	if r.isUnavailable() {
		return nil
	}
	return r.client.Close()
}

// Cached serves user context lookups from a cache before falling through to
// the underlying store. Cache errors are logged and never fail a lookup.
type Cached struct {
	Store
	cache  JSONCache
	ttl    time.Duration
	logger *errors.Logger
}

func NewCached(base Store, cache JSONCache, ttl time.Duration, logger *errors.Logger) *Cached {
	if ttl <= 0 {
		ttl = defaultUserContextTTL
	}
	return &Cached{Store: base, cache: cache, ttl: ttl, logger: logger}
}

func userContextKey(userID string) string {
	return "atsoptimizer:user_context:" + userID
}

func (c *Cached) GetUserContext(ctx context.Context, userID string) (*types.UserContext, error) {
	key := userContextKey(userID)

	var cached types.UserContext
	hit, err := c.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		c.logger.Debug("User context cache read failed", "user_id", userID, "error", err)
	}
	if hit {
		return &cached, nil
	}

	uc, err := c.Store.GetUserContext(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SetJSON(ctx, key, uc, c.ttl); err != nil {
		c.logger.Debug("User context cache write failed", "user_id", userID, "error", err)
	}
	return uc, nil
}

// InvalidateUserContext drops the cached entry for userID.
func (c *Cached) InvalidateUserContext(ctx context.Context, userID string) error {
	return c.cache.Delete(ctx, userContextKey(userID))
}

func (c *Cached) Close() error {
	var errs []error
	if closer, ok := c.cache.(interface{ Close() error }); ok {
		errs = append(errs, closer.Close())
	}
	errs = append(errs, c.Store.Close())
	return stderrors.Join(errs...)
}
