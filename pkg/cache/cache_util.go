package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache exposes the handful of namespaced Redis operations this service
// relies on: short-lived code storage, one-shot token ids, and the sliding
// counters behind OTP rate limiting. Namespaces (otp, otp_rate, token_jti)
// keep the concerns from colliding on a shared instance.
type Cache struct {
	rdb redis.UniversalClient
}

// NewCache dials a single node, or a cluster when more than one address is
// configured and clustering is enabled.
func NewCache(addrs []string, password string, useCluster bool) *Cache {
	if useCluster && len(addrs) > 1 {
		return &Cache{rdb: redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:    addrs,
			Password: password,
		})}
	}
	return &Cache{rdb: redis.NewClient(&redis.Options{
		Addr:     addrs[0],
		Password: password,
	})}
}

func nskey(namespace, key string) string { return namespace + ":" + key }

func (c *Cache) Set(ctx context.Context, namespace, key string, value interface{}, ttl time.Duration) error {
	return c.rdb.Set(ctx, nskey(namespace, key), value, ttl).Err()
}

func (c *Cache) Get(ctx context.Context, namespace, key string) (string, error) {
	return c.rdb.Get(ctx, nskey(namespace, key)).Result()
}

// GetDel reads and removes the value in one round trip, so a stored code or
// token id can only ever be observed once.
func (c *Cache) GetDel(ctx context.Context, namespace, key string) (string, error) {
	return c.rdb.GetDel(ctx, nskey(namespace, key)).Result()
}

func (c *Cache) Delete(ctx context.Context, namespace, key string) error {
	return c.rdb.Del(ctx, nskey(namespace, key)).Err()
}

func (c *Cache) GetTTL(ctx context.Context, namespace, key string) (time.Duration, error) {
	return c.rdb.TTL(ctx, nskey(namespace, key)).Result()
}

// IncrWithExpire bumps a counter, starting its window on the first hit.
func (c *Cache) IncrWithExpire(ctx context.Context, namespace, key string, window time.Duration) (int64, error) {
	cnt, err := c.rdb.Incr(ctx, nskey(namespace, key)).Result()
	if err != nil {
		return 0, err
	}
	if cnt == 1 {
		_ = c.rdb.Expire(ctx, nskey(namespace, key), window).Err()
	}
	return cnt, nil
}

func (c *Cache) Close() error {
	return c.rdb.Close()
}
