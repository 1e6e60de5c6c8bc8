// Package cache keeps a short-lived copy of the settings snapshot in Redis for
// display paths. The redemption unit of work always reads the store directly.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"pointshop/config"
	"pointshop/internal/domain"
)

const settingsKey = "pointshop:settings:v1"

// Loader reads the authoritative settings.
type Loader func(ctx context.Context) (domain.Settings, error)

type SettingsCache struct {
	client *redis.Client
	ttl    time.Duration
	load   Loader
	logger *zap.Logger
}

// NewSettingsCache wraps load. A nil client makes every call go to load.
func NewSettingsCache(client *redis.Client, ttl time.Duration, load Loader, logger *zap.Logger) *SettingsCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsCache{client: client, ttl: ttl, load: load, logger: logger}
}

// Snapshot returns cached settings when present, loading and caching them otherwise.
// Redis failures fall back to the loader.
func (c *SettingsCache) Snapshot(ctx context.Context) (domain.Settings, error) {
	if c.client == nil {
		return c.load(ctx)
	}
	raw, err := c.client.Get(ctx, settingsKey).Bytes()
	if err == nil {
		var s domain.Settings
		if jerr := json.Unmarshal(raw, &s); jerr == nil && s.Costs != nil {
			return s, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("settings cache read failed", zap.Error(err))
	}

	s, err := c.load(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	if data, jerr := json.Marshal(s); jerr == nil {
		if serr := c.client.Set(ctx, settingsKey, data, c.ttl).Err(); serr != nil {
			c.logger.Warn("settings cache write failed", zap.Error(serr))
		}
	}
	return s, nil
}

// Invalidate drops the cached copy after an admin change.
func (c *SettingsCache) Invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, settingsKey).Err(); err != nil {
		c.logger.Warn("settings cache invalidate failed", zap.Error(err))
	}
}

// NewRedisClient parses cfg.URL and verifies connectivity. An empty URL yields nil.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolTimeout = 4 * time.Second
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
