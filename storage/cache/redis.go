// Package cache holds the optional Redis-backed read-through caches.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tsedeniyafiseha/school-management-system/core"
	"github.com/tsedeniyafiseha/school-management-system/core/auth"
)

func Open(conf *core.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

// profileCache caches resolved profiles keyed by auth account ID.
// Cache failures are logged and treated as misses; the resolver falls back
// to the database.
type profileCache struct {
	client *redis.Client
	ttl    time.Duration
	logger core.Logger
}

var _ auth.ProfileCache = (*profileCache)(nil)

func NewProfileCache(client *redis.Client, conf *core.Config, logger core.Logger) *profileCache {
	return &profileCache{client: client, ttl: conf.Redis.ProfileTTL, logger: logger}
}

func (c *profileCache) key(authID string) string { return "profile:" + authID }

func (c *profileCache) Get(ctx context.Context, authID string) (auth.Profile, bool) {
	data, err := c.client.Get(ctx, c.key(authID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("reading profile cache", err)
		}
		return auth.Profile{}, false
	}

	var p auth.Profile
	if err = json.Unmarshal(data, &p); err != nil {
		c.logger.Warn("decoding cached profile", err)
		return auth.Profile{}, false
	}
	return p, true
}

func (c *profileCache) Set(ctx context.Context, authID string, p auth.Profile) {
	data, err := json.Marshal(p)
	if err != nil {
		c.logger.Warn("encoding profile for cache", err)
		return
	}
	if err = c.client.Set(ctx, c.key(authID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("writing profile cache", err)
	}
}

func (c *profileCache) Delete(ctx context.Context, authID string) {
	if err := c.client.Del(ctx, c.key(authID)).Err(); err != nil {
		c.logger.Warn("dropping cached profile", err)
	}
}
