package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shuldan/eventbus/pkg/affinity"
	"github.com/shuldan/eventbus/pkg/contracts"
)

type OrderCreated struct {
	ID int
}

type OrderShipped struct {
	ID int
}

type subscriberA struct{ name string }
type subscriberB struct{ name string }

type recordingErrorHandler struct {
	mu     sync.Mutex
	errs   []error
	events []any
}

func (r *recordingErrorHandler) Handle(event any, _ any, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
	r.events = append(r.events, event)
}

func (r *recordingErrorHandler) all() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

type recordingPanicHandler struct {
	mu     sync.Mutex
	values []any
	stacks [][]byte
}

func (r *recordingPanicHandler) Handle(_ any, _ any, panicValue any, stack []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, panicValue)
	r.stacks = append(r.stacks, stack)
}

func (r *recordingPanicHandler) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}

type logEntry struct {
	level string
	msg   string
	args  []any
}

type mockLogger struct {
	mu   sync.Mutex
	logs []logEntry
}

func (m *mockLogger) add(level, msg string, args []any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, logEntry{level, msg, args})
}

func (m *mockLogger) Trace(msg string, args ...any)    { m.add("trace", msg, args) }
func (m *mockLogger) Debug(msg string, args ...any)    { m.add("debug", msg, args) }
func (m *mockLogger) Info(msg string, args ...any)     { m.add("info", msg, args) }
func (m *mockLogger) Warn(msg string, args ...any)     { m.add("warn", msg, args) }
func (m *mockLogger) Error(msg string, args ...any)    { m.add("error", msg, args) }
func (m *mockLogger) Critical(msg string, args ...any) { m.add("critical", msg, args) }
func (m *mockLogger) With(_ ...any) contracts.Logger   { return m }

func (m *mockLogger) entries(level string) []logEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []logEntry
	for _, e := range m.logs {
		if e.level == level {
			out = append(out, e)
		}
	}
	return out
}

func newTestBus(t *testing.T, opts ...Option) *Bus {
	t.Helper()
	b, err := New(opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

// newLoopBus returns a bus whose affinity context is a loop the test controls.
func newLoopBus(t *testing.T, opts ...Option) (*Bus, *affinity.Loop) {
	t.Helper()
	loop := affinity.NewLoop()
	loop.Start()
	t.Cleanup(func() {
		loop.Stop()
		<-loop.Done()
	})
	return newTestBus(t, append([]Option{WithAffinityScheduler(loop)}, opts...)...), loop
}

// onLoop runs fn on the affinity loop and waits for it.
func onLoop(t *testing.T, loop *affinity.Loop, fn func(ctx context.Context)) {
	t.Helper()
	done := make(chan struct{})
	if err := loop.Schedule(context.Background(), func(ctx context.Context) {
		defer close(done)
		fn(ctx)
	}); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	waitClosed(t, done)
}

func waitClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
