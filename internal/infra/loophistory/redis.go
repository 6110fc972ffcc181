package loophistory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/runoshun/agent-swarm/internal/domain"
)

// KeyPrefix namespaces window keys in Redis.
const KeyPrefix = "swarm:loop:"

// listClient is the subset of the go-redis client used by Redis.
type listClient interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// Redis keeps windows in Redis lists so that separate processes recording calls
// for the same session share one window. Idle windows expire after ttl.
type Redis struct {
	client listClient
	ttl    time.Duration
}

var _ domain.ToolCallHistory = (*Redis)(nil)

// NewRedis connects to the Redis server at url (redis://host:port/db).
func NewRedis(url string, ttl time.Duration) (*Redis, error) {
	if url == "" {
		url = "redis://127.0.0.1:6379"
	}
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return newRedisWithClient(redis.NewClient(options), ttl), nil
}

func newRedisWithClient(client listClient, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = domain.DefaultLoopHistoryTTL
	}
	return &Redis{client: client, ttl: ttl}
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) key(sessionKey string) string {
	return KeyPrefix + sessionKey
}

// Append pushes rec, trims the list to capacity and returns the window.
func (r *Redis) Append(ctx context.Context, sessionKey string, rec domain.ToolCallRecord, capacity int) ([]domain.ToolCallRecord, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode tool call: %w", err)
	}
	key := r.key(sessionKey)

	if err := r.client.RPush(ctx, key, raw).Err(); err != nil {
		return nil, fmt.Errorf("push tool call: %w", err)
	}
	if capacity > 0 {
		if err := r.client.LTrim(ctx, key, int64(-capacity), -1).Err(); err != nil {
			return nil, fmt.Errorf("trim window: %w", err)
		}
	}
	if r.ttl > 0 {
		if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
			return nil, fmt.Errorf("expire window: %w", err)
		}
	}

	items, err := r.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read window: %w", err)
	}
	window := make([]domain.ToolCallRecord, 0, len(items))
	for _, item := range items {
		var rec domain.ToolCallRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			continue
		}
		window = append(window, rec)
	}
	return window, nil
}

// Clear deletes the session window.
func (r *Redis) Clear(ctx context.Context, sessionKey string) error {
	if err := r.client.Del(ctx, r.key(sessionKey)).Err(); err != nil {
		return fmt.Errorf("clear window: %w", err)
	}
	return nil
}
