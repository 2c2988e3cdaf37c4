package events

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// registry maps event types to subscriptions and subscribers to the event
// types they hold. Both maps change together under mu.
//
// Slices stored in byEventType are never modified in place: every change
// installs a new slice. A slice handed out by subscriptionsFor therefore stays
// a valid point-in-time snapshot without copying.
type registry struct {
	mu           sync.RWMutex
	closed       bool
	byEventType  map[reflect.Type][]*Subscription
	bySubscriber map[any][]reflect.Type
}

func newRegistry() *registry {
	return &registry{
		byEventType:  make(map[reflect.Type][]*Subscription),
		bySubscriber: make(map[any][]reflect.Type),
	}
}

// register validates every descriptor before touching the maps, so a rejected
// call leaves the registry unchanged.
func (r *registry) register(subscriber any, descriptors []Descriptor, defaultMode Mode) ([]*Subscription, error) {
	if err := validateSubscriber(subscriber); err != nil {
		return nil, err
	}
	if len(descriptors) == 0 {
		return nil, ErrNoHandlers.WithDetail("subscriber", describe(subscriber))
	}

	seen := make(map[reflect.Type]struct{}, len(descriptors))
	for i, d := range descriptors {
		if d.IsZero() {
			return nil, ErrInvalidDescriptor.WithDetail("index", i)
		}
		if d.eventType.Kind() == reflect.Interface {
			return nil, ErrInvalidEventType.
				WithDetail("event_type", d.eventType.String()).
				WithDetail("reason", "events are routed by concrete runtime type")
		}
		if d.modeSet && !d.mode.valid() {
			return nil, ErrUnknownMode.WithDetail("mode", int(d.mode))
		}
		if _, dup := seen[d.eventType]; dup {
			return nil, ErrDuplicateHandler.
				WithDetail("subscriber", describe(subscriber)).
				WithDetail("event_type", d.eventType.String())
		}
		seen[d.eventType] = struct{}{}
	}

	subs := make([]*Subscription, 0, len(descriptors))
	types := make([]reflect.Type, 0, len(descriptors))
	for _, d := range descriptors {
		mode := defaultMode
		if d.modeSet {
			mode = d.mode
		}
		subs = append(subs, newSubscription(subscriber, d, mode))
		types = append(types, d.eventType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrBusClosed
	}
	if _, exists := r.bySubscriber[subscriber]; exists {
		return nil, ErrAlreadyRegistered.WithDetail("subscriber", describe(subscriber))
	}

	for _, sub := range subs {
		current := r.byEventType[sub.EventType()]
		next := make([]*Subscription, len(current), len(current)+1)
		copy(next, current)
		r.byEventType[sub.EventType()] = append(next, sub)
	}
	r.bySubscriber[subscriber] = types

	return subs, nil
}

// unregister removes every subscription held by subscriber and reports how
// many were removed. Unknown subscribers are ignored.
func (r *registry) unregister(subscriber any) int {
	if validateSubscriber(subscriber) != nil {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	types, ok := r.bySubscriber[subscriber]
	if !ok {
		return 0
	}

	removed := 0
	for _, eventType := range types {
		current := r.byEventType[eventType]
		next := make([]*Subscription, 0, len(current))
		for _, sub := range current {
			if sub.subscriber == subscriber {
				removed++
				continue
			}
			next = append(next, sub)
		}
		if len(next) == 0 {
			delete(r.byEventType, eventType)
		} else {
			r.byEventType[eventType] = next
		}
	}
	delete(r.bySubscriber, subscriber)

	return removed
}

// close makes every later register fail with ErrBusClosed.
func (r *registry) close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

// subscriptionsFor returns the subscriptions for exactly eventType in
// registration order. Callers must not modify the returned slice.
func (r *registry) subscriptionsFor(eventType reflect.Type) []*Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byEventType[eventType]
}

func (r *registry) isRegistered(subscriber any) bool {
	if validateSubscriber(subscriber) != nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bySubscriber[subscriber]
	return ok
}

func (r *registry) hasSubscribers(eventType reflect.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byEventType[eventType]) > 0
}

// eventTypesOf returns the event types subscriber is registered for, in
// registration order.
func (r *registry) eventTypesOf(subscriber any) []reflect.Type {
	if validateSubscriber(subscriber) != nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.bySubscriber[subscriber])
}

func (r *registry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, subs := range r.byEventType {
		n += len(subs)
	}
	return n
}

func validateSubscriber(subscriber any) error {
	if subscriber == nil {
		return ErrInvalidSubscriber.WithDetail("subscriber", "nil")
	}
	v := reflect.ValueOf(subscriber)
	if v.Kind() == reflect.Pointer && v.IsNil() {
		return ErrInvalidSubscriber.WithDetail("subscriber", describe(subscriber))
	}
	if !v.Comparable() {
		return ErrInvalidSubscriber.WithDetail("subscriber", describe(subscriber))
	}
	return nil
}

func describe(subscriber any) string {
	return fmt.Sprintf("%T", subscriber)
}
