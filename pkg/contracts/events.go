package contracts

import (
	"context"
)

const (
	ConfigModuleName   = "config"
	LoggerModuleName   = "logger"
	AffinityModuleName = "affinity"
	EventBusModuleName = "events"
)

// EventBus routes posted events to the handlers registered for their exact runtime type.
// RegisterSubscriber accepts values that describe their own handlers.
type EventBus interface {
	RegisterSubscriber(subscriber any) error
	Unregister(subscriber any)
	IsRegistered(subscriber any) bool
	Post(ctx context.Context, event any) error
	Close() error
}

// AffinityScheduler owns the single designated serial execution context.
type AffinityScheduler interface {
	// IsOnAffinity reports whether ctx was issued to a callable running on the affinity context.
	IsOnAffinity(ctx context.Context) bool
	// Schedule enqueues fn behind previously scheduled callables. It never waits for fn.
	Schedule(ctx context.Context, fn func(ctx context.Context)) error
	// Detach returns a ctx that no longer claims the affinity context.
	Detach(ctx context.Context) context.Context
}

type BackgroundExecutor interface {
	Submit(ctx context.Context, fn func(ctx context.Context)) error
}
