package resolver

import (
	"context"
	"encoding/json"
	"time"

	redislib "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/hxnx/aria/internal/player"
)

// RequestCache maps an opaque resolver-specific key to a resolved
// track list with a TTL. A resolver holding one may skip I/O on a hit.
type RequestCache interface {
	TryGet(ctx context.Context, key string) ([]player.Track, bool)
	Set(ctx context.Context, key string, tracks []player.Track, ttl time.Duration)
}

const cacheKeyPrefix = "aria:resolve:"

// RedisCache is a RequestCache over a shared redis client. Entries are
// JSON-encoded track lists under a namespaced key.
type RedisCache struct {
	client *redislib.Client
}

func NewRedisCache(client *redislib.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) TryGet(ctx context.Context, key string) ([]player.Track, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	payload, err := c.client.Get(ctx, cacheKeyPrefix+key).Bytes()
	if err != nil {
		if err != redislib.Nil {
			log.WithError(err).Debug("resolve cache read failed")
		}
		return nil, false
	}

	var tracks []player.Track
	if err := json.Unmarshal(payload, &tracks); err != nil {
		log.WithError(err).Debug("resolve cache entry corrupt")
		return nil, false
	}
	return tracks, true
}

func (c *RedisCache) Set(ctx context.Context, key string, tracks []player.Track, ttl time.Duration) {
	if c == nil || c.client == nil || ttl <= 0 {
		return
	}

	payload, err := json.Marshal(tracks)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKeyPrefix+key, payload, ttl).Err(); err != nil {
		log.WithError(err).Debug("resolve cache write failed")
	}
}
