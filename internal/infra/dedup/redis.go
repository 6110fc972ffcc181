package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/runoshun/agent-swarm/internal/domain"
)

// KeyPrefix namespaces event keys in Redis.
const KeyPrefix = "swarm:event:"

type setNXClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Close() error
}

// Redis shares the seen-set between webhook replicas through SET NX with expiry.
type Redis struct {
	client setNXClient
	ttl    time.Duration
}

var _ domain.EventDeduper = (*Redis)(nil)

// NewRedis connects to the Redis server at url.
func NewRedis(url string, ttl time.Duration) (*Redis, error) {
	if url == "" {
		url = "redis://127.0.0.1:6379"
	}
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Redis{client: redis.NewClient(options), ttl: windowOrDefault(ttl)}, nil
}

// Seen records key and reports whether it was already recorded within the TTL.
func (r *Redis) Seen(ctx context.Context, key string) (bool, error) {
	created, err := r.client.SetNX(ctx, KeyPrefix+key, 1, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("record event key: %w", err)
	}
	return !created, nil
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
