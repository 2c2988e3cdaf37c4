package affinity

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/shuldan/eventbus/pkg/contracts"
)

type ctxKey struct{}

type task struct {
	ctx context.Context
	fn  func(ctx context.Context)
}

// Loop is a single serial execution context. Callables run one at a time,
// in the order they were scheduled, on whichever goroutine called Run.
//
// Go has no goroutine identity, so a callable learns it is on the loop from
// the context it receives: IsOnAffinity reports true only for contexts the
// loop handed out (and their children).
type Loop struct {
	mu      sync.Mutex
	queue   []task
	stopped bool

	wake     chan struct{}
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
	running  atomic.Bool

	logger contracts.Logger
}

var _ contracts.AffinityScheduler = (*Loop)(nil)

type Option func(*Loop)

func WithLogger(l contracts.Logger) Option {
	return func(loop *Loop) {
		loop.logger = l
	}
}

func NewLoop(opts ...Option) *Loop {
	l := &Loop{
		wake:   make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loop) IsOnAffinity(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	owner, _ := ctx.Value(ctxKey{}).(*Loop)
	return owner == l
}

func (l *Loop) Detach(ctx context.Context) context.Context {
	if !l.IsOnAffinity(ctx) {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, (*Loop)(nil))
}

// Schedule queues fn behind everything already scheduled and returns at once.
func (l *Loop) Schedule(ctx context.Context, fn func(ctx context.Context)) error {
	if fn == nil {
		return ErrNilCallable
	}
	if ctx == nil {
		ctx = context.Background()
	}

	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return ErrLoopStopped
	}
	l.queue = append(l.queue, task{ctx: ctx, fn: fn})
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Pending reports how many callables are waiting to run.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Run turns the calling goroutine into the affinity context and blocks until
// Stop is called or ctx is done. Callables queued before Stop still run.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	return l.run(ctx)
}

// Start runs the loop on a dedicated goroutine. It is a no-op if the loop
// is already running.
func (l *Loop) Start() {
	if !l.running.CompareAndSwap(false, true) {
		return
	}
	go func() {
		_ = l.run(context.Background())
	}()
}

func (l *Loop) run(ctx context.Context) error {
	defer close(l.done)

	for {
		l.drain()

		select {
		case <-l.wake:
		case <-l.stopCh:
			l.markStopped()
			l.drain()
			return nil
		case <-ctx.Done():
			l.markStopped()
			l.drain()
			return ctx.Err()
		}
	}
}

// Stop rejects further Schedule calls and asks Run to return once the queue
// is drained. It does not wait; use Done for that.
func (l *Loop) Stop() {
	l.markStopped()
	l.stopOnce.Do(func() {
		close(l.stopCh)
	})
}

// Done is closed when Run returns. It is never closed for a loop that never ran.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Running reports whether Run or Start has been called.
func (l *Loop) Running() bool {
	return l.running.Load()
}

func (l *Loop) markStopped() {
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		for _, t := range batch {
			l.execute(t)
		}
	}
}

func (l *Loop) execute(t task) {
	defer func() {
		if r := recover(); r != nil {
			l.reportPanic(r)
		}
	}()
	t.fn(context.WithValue(t.ctx, ctxKey{}, l))
}

func (l *Loop) reportPanic(r any) {
	if l.logger != nil {
		l.logger.Critical("affinity callable panicked", "panic_value", r, "stack", string(debug.Stack()))
		return
	}
	slog.Error("affinity callable panicked", slog.String("panic_value", fmt.Sprint(r)), slog.String("stack", string(debug.Stack())))
}
