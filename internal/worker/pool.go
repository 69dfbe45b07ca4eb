package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rankwell/siteaudit/internal/logger"
	"github.com/rankwell/siteaudit/internal/queue"
)

// PoolState represents the current state of the pool.
type PoolState int32

const (
	// PoolStateStopped means the pool is not running.
	PoolStateStopped PoolState = iota

	// PoolStateRunning means the pool is actively processing audits.
	PoolStateRunning

	// PoolStateDraining means the pool is shutting down gracefully.
	PoolStateDraining
)

// String returns the string representation of a pool state.
func (s PoolState) String() string {
	switch s {
	case PoolStateStopped:
		return "stopped"
	case PoolStateRunning:
		return "running"
	case PoolStateDraining:
		return "draining"
	default:
		return "unknown"
	}
}

// Pool manages a pool of workers for processing audit jobs.
type Pool struct {
	config  Config
	workers []*Worker
	handler JobHandler
	logger  logger.Logger
	state   atomic.Int32
	sem     chan struct{} // Semaphore for bounded concurrency
	wg      sync.WaitGroup
	stopCh  chan struct{}
	mu      sync.RWMutex

	totalJobsProcessed atomic.Int64
	totalJobsSucceeded atomic.Int64
	totalJobsFailed    atomic.Int64
}

// NewPool creates a new worker pool.
func NewPool(cfg Config, handler JobHandler, log logger.Logger) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if handler == nil {
		return nil, errors.New("handler cannot be nil")
	}
	if log == nil {
		log = logger.NewNop()
	}

	p := &Pool{
		config:  cfg,
		handler: handler,
		logger:  log,
		workers: make([]*Worker, cfg.PoolSize),
		sem:     make(chan struct{}, cfg.PoolSize),
		stopCh:  make(chan struct{}),
	}

	for i := range cfg.PoolSize {
		p.workers[i] = NewWorker(i, handler, cfg.JobTimeout, log)
	}

	p.state.Store(int32(PoolStateStopped))

	return p, nil
}

// Start starts the worker pool.
func (p *Pool) Start() error {
	if !p.state.CompareAndSwap(int32(PoolStateStopped), int32(PoolStateRunning)) {
		return errors.New("pool is already running")
	}

	p.logger.Info("worker pool started",
		logger.Int("pool_size", p.config.PoolSize),
	)

	return nil
}

// Stop gracefully stops the worker pool.
func (p *Pool) Stop(ctx context.Context) error {
	if !p.state.CompareAndSwap(int32(PoolStateRunning), int32(PoolStateDraining)) {
		return errors.New("pool is not running")
	}

	p.logger.Info("worker pool draining")

	close(p.stopCh)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped gracefully")
	case <-ctx.Done():
		p.logger.Warn("worker pool stop timed out")
	case <-time.After(p.config.DrainTimeout):
		p.logger.Warn("worker pool drain timeout exceeded")
	}

	p.state.Store(int32(PoolStateStopped))
	return nil
}

// Submit submits an audit job for processing. Blocks if all workers are
// busy.
func (p *Pool) Submit(ctx context.Context, job *queue.ConsumedJob) error {
	if p.State() != PoolStateRunning {
		return errors.New("pool is not running")
	}

	select {
	case p.sem <- struct{}{}:
		// Got a slot
	case <-ctx.Done():
		return ctx.Err()
	case <-p.stopCh:
		return errors.New("pool is stopping")
	}

	p.wg.Add(1)

	go func() {
		defer func() {
			<-p.sem
			p.wg.Done()
		}()

		worker := p.acquireWorker()
		if worker == nil {
			p.logger.Error("no idle worker available",
				logger.String("audit_id", job.Message.Audit.ID),
			)
			return
		}

		err := worker.run(ctx, job)

		p.totalJobsProcessed.Add(1)
		if err != nil {
			p.totalJobsFailed.Add(1)
		} else {
			p.totalJobsSucceeded.Add(1)
		}
	}()

	return nil
}

// acquireWorker claims an idle worker, moving it to busy. The claim is
// a compare-and-swap, so concurrent submissions never share a worker.
func (p *Pool) acquireWorker() *Worker {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, w := range p.workers {
		if w.reserve() {
			return w
		}
	}
	return nil
}

// State returns the current pool state.
func (p *Pool) State() PoolState {
	return PoolState(p.state.Load())
}

// IsRunning returns true if the pool is running.
func (p *Pool) IsRunning() bool {
	return p.State() == PoolStateRunning
}

// Size returns the pool size.
func (p *Pool) Size() int {
	return p.config.PoolSize
}

// BusyCount returns the number of busy workers.
func (p *Pool) BusyCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	count := 0
	for _, w := range p.workers {
		if w.IsBusy() {
			count++
		}
	}
	return count
}

// Stats returns pool statistics.
func (p *Pool) Stats() PoolStats {
	workerStats := make([]Stats, len(p.workers))
	for i, w := range p.workers {
		workerStats[i] = w.Stats()
	}

	return PoolStats{
		State:         p.State(),
		PoolSize:      p.config.PoolSize,
		BusyWorkers:   p.BusyCount(),
		JobsProcessed: p.totalJobsProcessed.Load(),
		JobsSucceeded: p.totalJobsSucceeded.Load(),
		JobsFailed:    p.totalJobsFailed.Load(),
		Workers:       workerStats,
	}
}

// PoolStats holds statistics for the pool.
type PoolStats struct {
	State         PoolState
	PoolSize      int
	BusyWorkers   int
	JobsProcessed int64
	JobsSucceeded int64
	JobsFailed    int64
	Workers       []Stats
}
