package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// defaultConsumerGroup is the consumer group audits are read under.
	defaultConsumerGroup = "audit-workers"

	// defaultBlockTimeout bounds one blocking read.
	defaultBlockTimeout = 5 * time.Second

	// defaultBatchSize is the number of messages read per batch.
	defaultBatchSize = 10
)

// ConsumedJob is one audit job read from the stream, retaining the
// message id for acknowledgement.
type ConsumedJob struct {
	MessageID string
	Message   JobMessage
}

// ConsumerConfig holds configuration for the Consumer.
type ConsumerConfig struct {
	ConsumerGroup string
	ConsumerID    string
	BlockTimeout  time.Duration
	BatchSize     int64
}

// Consumer reads audit jobs from the Redis Stream under a consumer group.
type Consumer struct {
	client        *StreamsClient
	consumerGroup string
	consumerID    string
	blockTimeout  time.Duration
	batchSize     int64
}

// NewConsumer creates a new job consumer.
func NewConsumer(client *StreamsClient, cfg ConsumerConfig) (*Consumer, error) {
	if cfg.ConsumerID == "" {
		return nil, errors.New("consumer ID is required")
	}

	group := cfg.ConsumerGroup
	if group == "" {
		group = defaultConsumerGroup
	}

	blockTimeout := cfg.BlockTimeout
	if blockTimeout <= 0 {
		blockTimeout = defaultBlockTimeout
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	return &Consumer{
		client:        client,
		consumerGroup: group,
		consumerID:    cfg.ConsumerID,
		blockTimeout:  blockTimeout,
		batchSize:     batchSize,
	}, nil
}

// Initialize creates the consumer group for the audit stream.
func (c *Consumer) Initialize(ctx context.Context) error {
	return c.client.CreateConsumerGroup(ctx, c.consumerGroup)
}

// Read blocks for up to the configured timeout and returns the next batch
// of audit jobs. An empty slice means the read timed out with no work.
func (c *Consumer) Read(ctx context.Context) ([]*ConsumedJob, error) {
	streams, err := c.client.Client().XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.consumerGroup,
		Consumer: c.consumerID,
		Streams:  []string{c.client.StreamName(), ">"},
		Count:    c.batchSize,
		Block:    c.blockTimeout,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("read audit stream: %w", err)
	}

	var jobs []*ConsumedJob
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			job, parseErr := parseMessage(msg)
			if parseErr != nil {
				// Poison message: acknowledge so it is not redelivered
				// forever.
				_ = c.Ack(ctx, msg.ID)
				continue
			}
			jobs = append(jobs, job)
		}
	}

	return jobs, nil
}

// Ack acknowledges a processed message.
func (c *Consumer) Ack(ctx context.Context, messageID string) error {
	if err := c.client.Client().XAck(
		ctx, c.client.StreamName(), c.consumerGroup, messageID,
	).Err(); err != nil {
		return fmt.Errorf("ack message %s: %w", messageID, err)
	}
	return nil
}

// parseMessage decodes one stream entry into a consumed job.
func parseMessage(msg redis.XMessage) (*ConsumedJob, error) {
	raw, ok := msg.Values[jobDataField].(string)
	if !ok {
		return nil, fmt.Errorf("message %s has no %s field", msg.ID, jobDataField)
	}

	var jm JobMessage
	if err := json.Unmarshal([]byte(raw), &jm); err != nil {
		return nil, fmt.Errorf("decode message %s: %w", msg.ID, err)
	}
	if jm.Audit == nil || jm.Audit.ID == "" {
		return nil, fmt.Errorf("message %s carries no audit", msg.ID)
	}

	return &ConsumedJob{MessageID: msg.ID, Message: jm}, nil
}
