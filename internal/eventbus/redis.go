package eventbus

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// StreamAdder is the part of redis.Cmdable used by the publisher.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// NewRedisClient parses a redis:// URL into a client.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// RedisStreamPublisher appends events to a Redis stream, one entry per event.
type RedisStreamPublisher struct {
	client StreamAdder
	stream string
	maxLen int64
}

// NewRedisStreamPublisher creates a publisher for stream. A positive maxLen
// caps the stream approximately; zero leaves it unbounded.
func NewRedisStreamPublisher(client StreamAdder, stream string, maxLen int64) *RedisStreamPublisher {
	return &RedisStreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

func (p *RedisStreamPublisher) Publish(ctx context.Context, event Event) error {
	detail, err := event.DetailJSON()
	if err != nil {
		return err
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"id":          event.Detail.ID,
			"source":      event.Source,
			"detail-type": event.DetailType,
			"detail":      string(detail),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}
