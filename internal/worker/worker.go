package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rankwell/siteaudit/internal/logger"
	"github.com/rankwell/siteaudit/internal/queue"
)

// State represents the current state of a worker.
type State int32

const (
	// StateIdle means the worker is waiting for work.
	StateIdle State = iota

	// StateBusy means the worker is processing an audit.
	StateBusy

	// StateStopped means the worker has stopped.
	StateStopped
)

// String returns the string representation of a worker state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBusy:
		return "busy"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// JobHandler processes one consumed audit job.
type JobHandler func(ctx context.Context, job *queue.ConsumedJob) error

// Worker represents an individual worker in the pool.
type Worker struct {
	id         int
	state      atomic.Int32
	handler    JobHandler
	jobTimeout time.Duration
	logger     logger.Logger

	jobsProcessed atomic.Int64
	jobsSucceeded atomic.Int64
	jobsFailed    atomic.Int64
	lastJobAt     atomic.Int64
}

// NewWorker creates a new worker.
func NewWorker(id int, handler JobHandler, jobTimeout time.Duration, log logger.Logger) *Worker {
	w := &Worker{
		id:         id,
		handler:    handler,
		jobTimeout: jobTimeout,
		logger:     log,
	}
	w.state.Store(int32(StateIdle))
	return w
}

// ID returns the worker ID.
func (w *Worker) ID() int {
	return w.id
}

// State returns the current worker state.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// IsIdle returns true if the worker is idle.
func (w *Worker) IsIdle() bool {
	return w.State() == StateIdle
}

// IsBusy returns true if the worker is busy.
func (w *Worker) IsBusy() bool {
	return w.State() == StateBusy
}

// Process processes one audit job from the queue.
func (w *Worker) Process(ctx context.Context, job *queue.ConsumedJob) error {
	if job == nil || job.Message.Audit == nil {
		return fmt.Errorf("worker %d: job cannot be nil", w.id)
	}

	if !w.reserve() {
		return fmt.Errorf("worker %d: not idle, current state: %s", w.id, w.State())
	}
	return w.run(ctx, job)
}

// reserve claims the worker, moving it from idle to busy. The claim is
// atomic: exactly one caller wins a given idle worker.
func (w *Worker) reserve() bool {
	return w.state.CompareAndSwap(int32(StateIdle), int32(StateBusy))
}

// run executes one job on a worker already claimed via reserve and
// returns the worker to idle when done.
func (w *Worker) run(ctx context.Context, job *queue.ConsumedJob) error {
	defer w.state.Store(int32(StateIdle))

	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	auditID := job.Message.Audit.ID
	w.logger.Info("worker processing audit",
		logger.Int("worker_id", w.id),
		logger.String("audit_id", auditID),
	)

	startTime := time.Now()
	err := w.handler(jobCtx, job)
	duration := time.Since(startTime)

	w.jobsProcessed.Add(1)
	w.lastJobAt.Store(time.Now().UnixNano())

	if err != nil {
		w.jobsFailed.Add(1)
		w.logger.Error("worker audit failed",
			logger.Int("worker_id", w.id),
			logger.String("audit_id", auditID),
			logger.Duration("duration", duration),
			logger.Error(err),
		)
		return fmt.Errorf("worker %d: audit %s failed: %w", w.id, auditID, err)
	}

	w.jobsSucceeded.Add(1)
	w.logger.Info("worker audit completed",
		logger.Int("worker_id", w.id),
		logger.String("audit_id", auditID),
		logger.Duration("duration", duration),
	)

	return nil
}

// Stats returns the worker's statistics.
func (w *Worker) Stats() Stats {
	var lastJobTime time.Time
	if ts := w.lastJobAt.Load(); ts > 0 {
		lastJobTime = time.Unix(0, ts)
	}

	return Stats{
		ID:            w.id,
		State:         w.State(),
		JobsProcessed: w.jobsProcessed.Load(),
		JobsSucceeded: w.jobsSucceeded.Load(),
		JobsFailed:    w.jobsFailed.Load(),
		LastJobAt:     lastJobTime,
	}
}

// Stats holds statistics for a worker.
type Stats struct {
	ID            int
	State         State
	JobsProcessed int64
	JobsSucceeded int64
	JobsFailed    int64
	LastJobAt     time.Time
}
