package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rankwell/siteaudit/internal/domain"
)

// jobDataField is the field name for serialized job data in stream messages.
const jobDataField = "job"

// defaultMaxStreamLen caps the stream to prevent unbounded growth.
const defaultMaxStreamLen = 10000

// JobMessage is one enqueued audit job as carried on the stream.
type JobMessage struct {
	Audit      *domain.Audit `json:"audit"`
	EnqueuedAt time.Time     `json:"enqueued_at"`
}

// Producer enqueues audit jobs to the Redis Stream.
type Producer struct {
	client       *StreamsClient
	maxStreamLen int64
}

// NewProducer creates a new job producer.
func NewProducer(client *StreamsClient) *Producer {
	return &Producer{client: client, maxStreamLen: defaultMaxStreamLen}
}

// Enqueue adds an audit job to the stream. The audit must already be
// persisted with status queued.
func (p *Producer) Enqueue(ctx context.Context, audit *domain.Audit) (string, error) {
	msg := JobMessage{Audit: audit, EnqueuedAt: time.Now()}
	data, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("marshal job message: %w", err)
	}

	id, err := p.client.Client().XAdd(ctx, &redis.XAddArgs{
		Stream: p.client.StreamName(),
		MaxLen: p.maxStreamLen,
		Approx: true,
		Values: map[string]any{jobDataField: string(data)},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("enqueue audit %s: %w", audit.ID, err)
	}

	return id, nil
}
