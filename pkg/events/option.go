package events

import (
	"github.com/shuldan/eventbus/pkg/contracts"
)

type Option func(*busConfig)

type busConfig struct {
	scheduler         contracts.AffinityScheduler
	executor          contracts.BackgroundExecutor
	maxGoroutines     int
	panicHandler      PanicHandler
	errorHandler      ErrorHandler
	logger            contracts.Logger
	counter           Counter
	defaultMode       Mode
	logNoSubscribers  bool
	noSubscriberEvent bool
}

// WithAffinityScheduler sets the scheduler that owns the affinity context.
// Without it the bus starts, and on Close stops, a private affinity.Loop.
func WithAffinityScheduler(s contracts.AffinityScheduler) Option {
	return func(c *busConfig) {
		c.scheduler = s
	}
}

// WithExecutor sets the executor for async and background handlers.
// Without it the bus owns an executor.Pool and closes it on Close.
func WithExecutor(e contracts.BackgroundExecutor) Option {
	return func(c *busConfig) {
		c.executor = e
	}
}

// WithMaxGoroutines bounds the bus-owned executor. Zero means unbounded.
// It has no effect together with WithExecutor.
func WithMaxGoroutines(n int) Option {
	return func(c *busConfig) {
		c.maxGoroutines = n
	}
}

func WithPanicHandler(h PanicHandler) Option {
	return func(c *busConfig) {
		c.panicHandler = h
	}
}

func WithErrorHandler(h ErrorHandler) Option {
	return func(c *busConfig) {
		c.errorHandler = h
	}
}

// WithLogger is used by the default error and panic handlers and for
// bus diagnostics.
func WithLogger(l contracts.Logger) Option {
	return func(c *busConfig) {
		c.logger = l
	}
}

func WithCounter(counter Counter) Option {
	return func(c *busConfig) {
		c.counter = counter
	}
}

// WithDefaultMode applies to descriptors registered without WithMode.
func WithDefaultMode(mode Mode) Option {
	return func(c *busConfig) {
		c.defaultMode = mode
	}
}

// WithLogNoSubscribers logs at debug level when a posted event has no subscribers.
func WithLogNoSubscribers(enabled bool) Option {
	return func(c *busConfig) {
		c.logNoSubscribers = enabled
	}
}

// WithNoSubscriberEvent posts a NoSubscriberEvent wrapping any event that
// had no subscribers.
func WithNoSubscriberEvent(enabled bool) Option {
	return func(c *busConfig) {
		c.noSubscriberEvent = enabled
	}
}
