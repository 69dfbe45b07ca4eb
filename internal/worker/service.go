package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/rankwell/siteaudit/internal/logger"
	"github.com/rankwell/siteaudit/internal/queue"
)

// Service reads audit jobs off the queue and dispatches them to the
// worker pool. Jobs are acknowledged after the runner returns: the
// runner persists a terminal state for every failure it can reach, so
// redelivery would only repeat work.
type Service struct {
	consumer *queue.Consumer
	pool     *Pool
	logger   logger.Logger
}

// NewService wires a consumer and a handler into a running pool.
func NewService(cfg Config, consumer *queue.Consumer, handler JobHandler, log logger.Logger) (*Service, error) {
	if consumer == nil {
		return nil, errors.New("consumer cannot be nil")
	}
	if log == nil {
		log = logger.NewNop()
	}

	svc := &Service{consumer: consumer, logger: log}

	// Wrap the handler so every job is acknowledged exactly once, after
	// processing finishes.
	wrapped := func(ctx context.Context, job *queue.ConsumedJob) error {
		err := handler(ctx, job)
		if ackErr := consumer.Ack(ctx, job.MessageID); ackErr != nil {
			log.Error("failed to ack message",
				logger.String("message_id", job.MessageID),
				logger.Error(ackErr),
			)
		}
		return err
	}

	pool, err := NewPool(cfg, wrapped, log)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	svc.pool = pool

	return svc, nil
}

// Run consumes jobs until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.consumer.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize consumer: %w", err)
	}
	if err := s.pool.Start(); err != nil {
		return fmt.Errorf("start pool: %w", err)
	}

	s.logger.Info("worker service started")

	for {
		select {
		case <-ctx.Done():
			return s.shutdown()
		default:
		}

		jobs, err := s.consumer.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return s.shutdown()
			}
			s.logger.Error("failed to read jobs", logger.Error(err))
			continue
		}

		for _, job := range jobs {
			if err := s.pool.Submit(ctx, job); err != nil {
				if ctx.Err() != nil {
					return s.shutdown()
				}
				s.logger.Error("failed to submit job",
					logger.String("audit_id", job.Message.Audit.ID),
					logger.Error(err),
				)
			}
		}
	}
}

// Stats reports the pool's statistics.
func (s *Service) Stats() PoolStats {
	return s.pool.Stats()
}

// shutdown drains the pool, letting in-flight audits finish.
func (s *Service) shutdown() error {
	s.logger.Info("worker service stopping")

	drainCtx, cancel := context.WithTimeout(context.Background(), s.pool.config.DrainTimeout)
	defer cancel()

	return s.pool.Stop(drainCtx)
}
