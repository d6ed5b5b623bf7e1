package jobs

import (
	"context"
	"errors"
	"sync"

	"github.com/kubev2v/stock-importer/pkg/metrics"
	"go.uber.org/zap"
)

// ErrQueueFull is returned by Submit when every worker is busy and the
// pending queue is at capacity. Callers should surface it as a retryable
// condition.
var ErrQueueFull = errors.New("import queue is full")

const (
	DefaultWorkers   = 4
	DefaultQueueSize = 16
)

// Task is one unit of background work. The context passed to it is the
// pool's run context, not the context of the request that submitted it.
type Task func(ctx context.Context)

type submission struct {
	task Task
	done chan struct{}
}

// Pool runs submitted tasks on a fixed number of worker goroutines over a
// bounded queue. Submit never blocks: when the queue is full it fails fast
// with ErrQueueFull so the accept path stays independent of file size and
// load.
type Pool struct {
	queue   chan submission
	workers int

	wg sync.WaitGroup

	mu     sync.Mutex
	active int
}

func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	return &Pool{
		queue:   make(chan submission, queueSize),
		workers: workers,
	}
}

// Start launches the workers. Tasks receive ctx as their run context.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for sub := range p.queue {
				p.run(ctx, sub)
			}
		}()
	}
}

// Submit enqueues a task and returns a channel closed when the task
// finishes. It returns ErrQueueFull instead of blocking when the pool is
// saturated.
func (p *Pool) Submit(task Task) (<-chan struct{}, error) {
	sub := submission{task: task, done: make(chan struct{})}
	select {
	case p.queue <- sub:
		return sub.done, nil
	default:
		return nil, ErrQueueFull
	}
}

// Shutdown stops accepting work and waits for queued and running tasks to
// finish, or for ctx to expire. Submit must not be called after Shutdown.
func (p *Pool) Shutdown(ctx context.Context) error {
	close(p.queue)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Active returns the number of tasks currently running.
func (p *Pool) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

func (p *Pool) run(ctx context.Context, sub submission) {
	p.mu.Lock()
	p.active++
	metrics.UpdateActiveImportsMetric(p.active)
	p.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			zap.S().Named("pool").Errorf("recovered from panic in background task: %v", r)
		}

		p.mu.Lock()
		p.active--
		metrics.UpdateActiveImportsMetric(p.active)
		p.mu.Unlock()

		close(sub.done)
	}()

	sub.task(ctx)
}
