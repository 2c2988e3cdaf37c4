package executor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/semaphore"

	"github.com/shuldan/eventbus/pkg/contracts"
)

// Pool runs submitted tasks on their own goroutines. With WithMaxGoroutines
// at most n tasks execute at once; the rest wait for a slot on their own
// goroutine, so Submit never blocks, not even when called from a running task.
type Pool struct {
	mu     sync.RWMutex
	closed bool
	tasks  *pool.Pool
	slots  *semaphore.Weighted
	logger contracts.Logger
}

var _ contracts.BackgroundExecutor = (*Pool)(nil)

type Option func(*config)

type config struct {
	maxGoroutines int
	logger        contracts.Logger
}

func WithMaxGoroutines(n int) Option {
	return func(c *config) {
		c.maxGoroutines = n
	}
}

func WithLogger(l contracts.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

func NewPool(opts ...Option) *Pool {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	p := &Pool{
		tasks:  pool.New(),
		logger: cfg.logger,
	}
	if cfg.maxGoroutines > 0 {
		p.slots = semaphore.NewWeighted(int64(cfg.maxGoroutines))
	}
	return p
}

// Submit never runs fn on the caller's goroutine. A panic inside fn is
// logged and does not reach other tasks or Close.
func (p *Pool) Submit(ctx context.Context, fn func(ctx context.Context)) error {
	if fn == nil {
		return ErrNilTask
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrExecutorClosed
	}

	p.tasks.Go(func() {
		p.run(ctx, fn)
	})
	return nil
}

func (p *Pool) run(ctx context.Context, fn func(ctx context.Context)) {
	if p.slots != nil {
		// Acquire with a background context only returns once a slot frees up.
		_ = p.slots.Acquire(context.Background(), 1)
		defer p.slots.Release(1)
	}
	defer p.recoverTask()
	fn(ctx)
}

// Close rejects new tasks and waits for the submitted ones to finish.
// It is safe to call more than once. Close must not be called from inside a
// task of the same pool: it would wait for that task to return.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.tasks.Wait()
	return nil
}

func (p *Pool) recoverTask() {
	r := recover()
	if r == nil {
		return
	}
	if p.logger != nil {
		p.logger.Critical("background task panicked", "panic_value", r, "stack", string(debug.Stack()))
		return
	}
	slog.Error("background task panicked", slog.String("panic_value", fmt.Sprint(r)), slog.String("stack", string(debug.Stack())))
}
