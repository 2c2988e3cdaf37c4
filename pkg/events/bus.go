package events

import (
	"context"
	"reflect"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shuldan/eventbus/pkg/contracts"
	"github.com/shuldan/eventbus/pkg/errors"
)

// NoSubscriberEvent is posted, when enabled, for events nobody subscribed to.
type NoSubscriberEvent struct {
	Event any
}

// Bus routes each posted event to the handlers registered for its exact
// runtime type, running every handler in the context its Mode asks for.
type Bus struct {
	registry *registry

	scheduler contracts.AffinityScheduler
	executor  contracts.BackgroundExecutor

	errorHandler ErrorHandler
	panicHandler PanicHandler
	logger       contracts.Logger
	counter      Counter

	defaultMode       Mode
	logNoSubscribers  bool
	noSubscriberEvent bool

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
	owned     []func() error
}

var _ contracts.EventBus = (*Bus)(nil)

// Register subscribes the handlers in descriptors on behalf of subscriber.
// subscriber is the identity later passed to Unregister and must be
// comparable; a pointer is the usual choice. Registering the same subscriber
// twice without Unregister fails with ErrAlreadyRegistered.
func (b *Bus) Register(subscriber any, descriptors ...Descriptor) error {
	subs, err := b.registry.register(subscriber, descriptors, b.defaultMode)
	if err != nil {
		return err
	}

	if b.logger != nil {
		for _, sub := range subs {
			b.logger.Trace("subscription registered",
				"subscription", sub.ID().String(),
				"handler", sub.Descriptor().Name(),
				"event_type", sub.EventType().String(),
				"mode", sub.Mode().String(),
			)
		}
	}
	return nil
}

// RegisterSubscriber registers a value that declares its own handlers.
func (b *Bus) RegisterSubscriber(subscriber any) error {
	s, ok := subscriber.(Subscriber)
	if !ok {
		return ErrNotSubscriber.WithDetail("subscriber", describe(subscriber))
	}
	return b.Register(subscriber, s.Subscriptions()...)
}

// Unregister removes every handler of subscriber. Events already handed to
// the affinity scheduler or the executor are still delivered.
func (b *Bus) Unregister(subscriber any) {
	removed := b.registry.unregister(subscriber)
	if b.logger != nil && removed > 0 {
		b.logger.Trace("subscriber unregistered", "subscriber", describe(subscriber), "subscriptions", removed)
	}
}

func (b *Bus) IsRegistered(subscriber any) bool {
	return b.registry.isRegistered(subscriber)
}

// HasSubscribers reports whether events of eventType's type have handlers.
func (b *Bus) HasSubscribers(eventType any) bool {
	t, ok := eventType.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(eventType)
	}
	if t == nil {
		return false
	}
	return b.registry.hasSubscribers(t)
}

// SubscribedTypes lists the event types subscriber currently handles.
func (b *Bus) SubscribedTypes(subscriber any) []reflect.Type {
	return b.registry.eventTypesOf(subscriber)
}

// Post delivers event to the current subscribers of its runtime type in
// registration order. Posting handlers, and affinity or background handlers
// that can run where the caller already is, finish before Post returns.
//
// Handler errors and panics go to the error and panic handlers; Post only
// fails when the bus is closed.
func (b *Bus) Post(ctx context.Context, event any) error {
	if b.closed.Load() {
		return ErrPublishOnClosedBus
	}
	if event == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	eventType := reflect.TypeOf(event)
	typeName := eventType.String()
	b.counter.IncPosted(typeName)

	subs := b.registry.subscriptionsFor(eventType)
	if len(subs) == 0 {
		b.noSubscribers(ctx, event, typeName)
		return nil
	}

	onAffinity := b.scheduler.IsOnAffinity(ctx)
	for _, sub := range subs {
		b.dispatch(ctx, sub, event, onAffinity)
	}
	return nil
}

func (b *Bus) dispatch(ctx context.Context, sub *Subscription, event any, onAffinity bool) {
	switch sub.Mode() {
	case ModePosting:
		b.invoke(ctx, sub, event)
	case ModeAffinity:
		if onAffinity {
			b.invoke(ctx, sub, event)
			return
		}
		b.toAffinity(ctx, sub, event)
	case ModeAsync:
		b.toExecutor(ctx, sub, event)
	case ModeBackground:
		if onAffinity {
			b.toExecutor(ctx, sub, event)
			return
		}
		b.invoke(ctx, sub, event)
	}
}

// toAffinity outlives the poster, so the poster's cancellation is dropped.
func (b *Bus) toAffinity(ctx context.Context, sub *Subscription, event any) {
	err := b.scheduler.Schedule(context.WithoutCancel(ctx), func(ctx context.Context) {
		b.invoke(ctx, sub, event)
	})
	if err != nil {
		b.scheduleFailed(sub, event, err)
	}
}

// toExecutor also strips the affinity marker so the handler, and anything it
// posts, is treated as running off the affinity context.
func (b *Bus) toExecutor(ctx context.Context, sub *Subscription, event any) {
	detached := b.scheduler.Detach(context.WithoutCancel(ctx))
	err := b.executor.Submit(detached, func(ctx context.Context) {
		b.invoke(ctx, sub, event)
	})
	if err != nil {
		b.scheduleFailed(sub, event, err)
	}
}

func (b *Bus) invoke(ctx context.Context, sub *Subscription, event any) {
	typeName := sub.EventType().String()
	mode := sub.Mode().String()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			b.counter.IncFailed(typeName, mode)
			b.panicHandler.Handle(event, sub, r, debug.Stack())
		}
	}()

	err := sub.invoke(ctx, event)
	b.counter.ObserveHandlerTime(typeName, mode, time.Since(start))
	if err != nil {
		b.counter.IncFailed(typeName, mode)
		b.errorHandler.Handle(event, sub, ErrInvocation.
			WithDetail("subscription", sub.String()).
			WithDetail("event_type", typeName).
			WithDetail("mode", mode).
			WithCause(err))
		return
	}
	b.counter.IncDelivered(typeName, mode)
}

func (b *Bus) scheduleFailed(sub *Subscription, event any, err error) {
	b.counter.IncFailed(sub.EventType().String(), sub.Mode().String())
	b.errorHandler.Handle(event, sub, ErrScheduleFailed.
		WithDetail("subscription", sub.String()).
		WithDetail("event_type", sub.EventType().String()).
		WithDetail("mode", sub.Mode().String()).
		WithCause(err))
}

func (b *Bus) noSubscribers(ctx context.Context, event any, typeName string) {
	b.counter.IncNoSubscribers(typeName)

	if b.logNoSubscribers && b.logger != nil {
		b.logger.Debug("no subscribers for event", "event_type", typeName)
	}

	if _, wrapped := event.(NoSubscriberEvent); wrapped || !b.noSubscriberEvent {
		return
	}
	_ = b.Post(ctx, NoSubscriberEvent{Event: event})
}

// Close rejects further registrations and posts, then stops the collaborators
// the bus created itself, waiting for queued handlers to finish. Schedulers
// and executors passed in through options are left running.
//
// Close must not be called from a handler the bus is running: on a bus-owned
// affinity loop it waits for the loop it is blocking, and from an async or
// background handler it waits for the executor task it runs in. Handlers that
// need to close the bus do it from a goroutine of their own.
func (b *Bus) Close() error {
	b.closeOnce.Do(func() {
		b.closed.Store(true)
		b.registry.close()

		var errs []error
		for i := len(b.owned) - 1; i >= 0; i-- {
			if err := b.owned[i](); err != nil {
				errs = append(errs, err)
			}
		}
		b.closeErr = errors.Join(errs...)
	})
	return b.closeErr
}
