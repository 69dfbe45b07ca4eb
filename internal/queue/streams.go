// Package queue provides the Redis Streams job queue carrying enqueued
// audits to workers.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rankwell/siteaudit/internal/config"
)

// defaultConnectionTimeout bounds the initial Redis ping.
const defaultConnectionTimeout = 2 * time.Second

// StreamsClient wraps a Redis client with streams-specific operations.
type StreamsClient struct {
	client *redis.Client
	prefix string
}

// NewStreamsClient connects to Redis and verifies the connection.
func NewStreamsClient(cfg config.RedisConfig) (*StreamsClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectionTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "siteaudit"
	}

	return &StreamsClient{client: client, prefix: prefix}, nil
}

// NewStreamsClientFromRedis wraps an existing Redis client.
func NewStreamsClientFromRedis(client *redis.Client, prefix string) *StreamsClient {
	if prefix == "" {
		prefix = "siteaudit"
	}
	return &StreamsClient{client: client, prefix: prefix}
}

// StreamName returns the audit job stream key.
func (c *StreamsClient) StreamName() string {
	return fmt.Sprintf("%s:audits", c.prefix)
}

// Client returns the underlying Redis client.
func (c *StreamsClient) Client() *redis.Client {
	return c.client
}

// Close closes the underlying Redis client.
func (c *StreamsClient) Close() error {
	return c.client.Close()
}

// CreateConsumerGroup creates a consumer group for the audit stream if it
// does not exist yet.
func (c *StreamsClient) CreateConsumerGroup(ctx context.Context, group string) error {
	err := c.client.XGroupCreateMkStream(ctx, c.StreamName(), group, "0").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return fmt.Errorf("create consumer group: %w", err)
	}
	return nil
}
