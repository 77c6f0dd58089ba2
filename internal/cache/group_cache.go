package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type GroupSource interface {
	GroupExists(ctx context.Context, id int) (bool, error)
}

// GroupCache answers GroupExists from redis, falling back to the source on a
// miss or a redis failure. Only positive answers are cached.
type GroupCache struct {
	source GroupSource
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	log    *zap.Logger
}

func NewGroupCache(source GroupSource, rdb *redis.Client, prefix string, ttl time.Duration, log *zap.Logger) *GroupCache {
	return &GroupCache{source: source, rdb: rdb, prefix: prefix, ttl: ttl, log: log}
}

func (c *GroupCache) key(id int) string {
	return c.prefix + "group:exists:" + strconv.Itoa(id)
}

func (c *GroupCache) GroupExists(ctx context.Context, id int) (bool, error) {
	s, err := c.rdb.Get(ctx, c.key(id)).Result()
	switch {
	case err == nil:
		return s == "1", nil
	case errors.Is(err, redis.Nil):
	default:
		c.log.Warn("group cache read failed", zap.Int("group_id", id), zap.Error(err))
	}

	ok, err := c.source.GroupExists(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	if err := c.rdb.Set(ctx, c.key(id), "1", c.ttl).Err(); err != nil {
		c.log.Warn("group cache write failed", zap.Int("group_id", id), zap.Error(err))
	}
	return ok, nil
}

// Invalidate drops the cached answer for id; call it after the group is
// created or deleted.
func (c *GroupCache) Invalidate(ctx context.Context, id int) {
	if err := c.rdb.Del(ctx, c.key(id)).Err(); err != nil {
		c.log.Warn("group cache invalidate failed", zap.Int("group_id", id), zap.Error(err))
	}
}
