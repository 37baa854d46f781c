package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/edubanco/recursos/core"
)

// keyPrefix namespaces view-cache entries away from sessions sharing
// the same redis database.
const keyPrefix = "view:"

type Cache struct {
	rdb *redis.Client
}

var _ core.ViewCache = (*Cache)(nil)

func NewCache(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, errors.Wrap(err, "redis get")
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, errors.Wrap(err, "decoding cached value")
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, val interface{}, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return errors.Wrap(err, "encoding cached value")
	}
	return errors.Wrap(c.rdb.Set(ctx, keyPrefix+key, data, ttl).Err(), "redis set")
}

func (c *Cache) Invalidate(ctx context.Context, prefixes ...string) error {
	for _, prefix := range prefixes {
		iter := c.rdb.Scan(ctx, 0, keyPrefix+prefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
				return errors.Wrap(err, "redis del")
			}
		}
		if err := iter.Err(); err != nil {
			return errors.Wrap(err, "redis scan")
		}
	}
	return nil
}
