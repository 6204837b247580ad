package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type redisCache struct {
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewRedisCache(rdb *redis.Client, logger ...*zap.Logger) Cache {
	l := zap.L().Named("cache.redis")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("cache.redis")
	}
	return &redisCache{
		rdb:    rdb,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

func (c *redisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	payload, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, payload, ttl).Err()
}

func (c *redisCache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *redisCache) GetOrSet(ctx context.Context, key string, ttl time.Duration, factory Factory, dest any) error {
	// payload dibagikan antar goroutine lewat singleflight sebagai JSON bytes
	v, err, _ := c.sf.Do(key, func() (any, error) {
		payload, err := c.rdb.Get(ctx, key).Bytes()
		if err == nil {
			return payload, nil
		}
		if !errors.Is(err, redis.Nil) {
			// cache read failure falls back to computing directly
			c.logger.Warn("cache read failed, falling back to factory",
				zap.String("key", key),
				zap.Error(err),
			)
		}

		value, err := factory(ctx)
		if err != nil {
			return nil, err
		}
		payload, err = json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if err := c.rdb.Set(ctx, key, payload, ttl).Err(); err != nil {
			c.logger.Warn("cache write failed",
				zap.String("key", key),
				zap.Error(err),
			)
		}
		return payload, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(v.([]byte), dest)
}
