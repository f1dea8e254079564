package dedup

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	applog "prepcost/internal/log"
)

// Redis shares de-duplication state between processes with SET NX.
type Redis struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedis builds a Redis-backed Cache. Keys are namespaced with prefix.
func NewRedis(client redis.Cmdable, prefix string, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

// FirstSeen falls back to true when redis is unreachable; a duplicate log
// line is preferable to a lost one.
func (r *Redis) FirstSeen(ctx context.Context, key string) bool {
	ok, err := r.client.SetNX(ctx, r.prefix+key, 1, r.ttl).Result()
	if err != nil {
		applog.Debug(ctx, "dedup cache unavailable", "key", key, "error", err)
		return true
	}
	return ok
}
