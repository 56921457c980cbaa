package presigned

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dmaldonado1992/MedVerify/internal/metrics"
)

// Cache stores links until they are too close to expiry to hand out.
type Cache interface {
	Get(ctx context.Context, key string) (Link, bool, error)
	Set(ctx context.Context, key string, link Link, ttl time.Duration) error
}

// RedisCache keeps links as JSON values under a key prefix.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache constructs a RedisCache.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, prefix: "medverify:presign:"}
}

func (c *RedisCache) Get(ctx context.Context, key string) (Link, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Link{}, false, nil
	}
	if err != nil {
		return Link{}, false, err
	}
	var link Link
	if err := json.Unmarshal(raw, &link); err != nil {
		return Link{}, false, err
	}
	return link, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, link Link, ttl time.Duration) error {
	raw, err := json.Marshal(link)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, raw, ttl).Err()
}

// CachedPresigner serves links from a cache while they keep at least half of
// their requested validity. Cache failures fall through to signing.
type CachedPresigner struct {
	next    Presigner
	cache   Cache
	log     *zap.Logger
	nowFunc func() time.Time
}

// NewCachedPresigner wraps next with cache.
func NewCachedPresigner(next Presigner, cache Cache, log *zap.Logger) *CachedPresigner {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedPresigner{next: next, cache: cache, log: log, nowFunc: time.Now}
}

func (c *CachedPresigner) PresignWithMode(ctx context.Context, mode Mode, bucket, key string, ttl time.Duration) (Link, error) {
	cacheKey := string(mode) + ":" + bucket + "/" + key + ":" + ttl.String()

	link, ok, err := c.cache.Get(ctx, cacheKey)
	switch {
	case err != nil:
		c.log.Warn("presign cache read failed", zap.String("key", key), zap.Error(err))
		metrics.LinkCache.WithLabelValues("error").Inc()
	case ok && link.ExpiresAt.Sub(c.nowFunc()) >= ttl/2:
		metrics.LinkCache.WithLabelValues("hit").Inc()
		return link, nil
	default:
		metrics.LinkCache.WithLabelValues("miss").Inc()
	}

	link, err = c.next.PresignWithMode(ctx, mode, bucket, key, ttl)
	if err != nil {
		return Link{}, err
	}

	keep := link.ExpiresAt.Sub(c.nowFunc()) - ttl/2
	if keep > 0 {
		if err := c.cache.Set(ctx, cacheKey, link, keep); err != nil {
			c.log.Warn("presign cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return link, nil
}
