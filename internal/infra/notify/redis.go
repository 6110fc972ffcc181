package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/runoshun/agent-swarm/internal/domain"
)

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// Redis publishes events with PUBLISH.
type Redis struct {
	client  redisPublisher
	subject string
}

// NewRedis connects to the Redis server at url.
func NewRedis(url, subject string) (*Redis, error) {
	if url == "" {
		url = "redis://127.0.0.1:6379"
	}
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Redis{client: redis.NewClient(options), subject: subject}, nil
}

func (r *Redis) Notify(ctx context.Context, event domain.TaskEvent) error {
	raw, err := encode(event)
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, Subject(r.subject, event), raw).Err(); err != nil {
		return fmt.Errorf("publish task event: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
