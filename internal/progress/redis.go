package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher publishes progress events to Redis pub/sub channels.
// Each audit gets its own channel so subscribers can follow one job.
type RedisPublisher struct {
	client *redis.Client
	prefix string
}

// NewRedisPublisher creates a publisher over an existing Redis client.
func NewRedisPublisher(client *redis.Client, prefix string) *RedisPublisher {
	if prefix == "" {
		prefix = "siteaudit"
	}
	return &RedisPublisher{client: client, prefix: prefix}
}

// Channel returns the pub/sub channel name for an audit id.
func (p *RedisPublisher) Channel(auditID string) string {
	return fmt.Sprintf("%s:progress:%s", p.prefix, auditID)
}

// PublishUpdate publishes a stage-transition event.
func (p *RedisPublisher) PublishUpdate(ctx context.Context, update Update) error {
	update.SentAt = time.Now()
	return p.publish(ctx, update.AuditID, update)
}

// PublishCompletion publishes the terminal event with final scores.
func (p *RedisPublisher) PublishCompletion(ctx context.Context, completion Completion) error {
	completion.SentAt = time.Now()
	return p.publish(ctx, completion.AuditID, completion)
}

func (p *RedisPublisher) publish(ctx context.Context, auditID string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal progress event: %w", err)
	}

	if err := p.client.Publish(ctx, p.Channel(auditID), data).Err(); err != nil {
		return fmt.Errorf("publish progress event: %w", err)
	}
	return nil
}
