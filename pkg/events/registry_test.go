package events

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
)

var (
	orderCreatedType = reflect.TypeOf(OrderCreated{})
	orderShippedType = reflect.TypeOf(OrderShipped{})
)

func noop[T any]() func(context.Context, T) error {
	return func(context.Context, T) error { return nil }
}

func TestRegistry_RegisterKeepsInsertionOrder(t *testing.T) {
	r := newRegistry()
	a, b := &subscriberA{"a"}, &subscriberB{"b"}

	if _, err := r.register(a, []Descriptor{On(noop[OrderCreated]())}, ModePosting); err != nil {
		t.Fatal(err)
	}
	if _, err := r.register(b, []Descriptor{On(noop[OrderCreated]()), On(noop[OrderShipped]())}, ModeAsync); err != nil {
		t.Fatal(err)
	}

	subs := r.subscriptionsFor(orderCreatedType)
	if len(subs) != 2 || subs[0].Subscriber() != a || subs[1].Subscriber() != b {
		t.Fatalf("unexpected order: %v", subs)
	}
	if subs[1].Mode() != ModeAsync {
		t.Errorf("default mode should apply to descriptors without WithMode, got %v", subs[1].Mode())
	}
	if got := r.eventTypesOf(b); !reflect.DeepEqual(got, []reflect.Type{orderCreatedType, orderShippedType}) {
		t.Errorf("unexpected event types for b: %v", got)
	}
	if r.count() != 3 {
		t.Errorf("expected 3 subscriptions, got %d", r.count())
	}
}

func TestRegistry_ExplicitModeWinsOverDefault(t *testing.T) {
	r := newRegistry()
	subs, err := r.register(&subscriberA{}, []Descriptor{On(noop[OrderCreated](), WithMode(ModePosting))}, ModeBackground)
	if err != nil {
		t.Fatal(err)
	}
	if subs[0].Mode() != ModePosting {
		t.Errorf("expected posting, got %v", subs[0].Mode())
	}
}

func TestRegistry_RegisterValidation(t *testing.T) {
	valid := []Descriptor{On(noop[OrderCreated]())}
	var nilPtr *subscriberA

	tests := []struct {
		name        string
		subscriber  any
		descriptors []Descriptor
		want        error
	}{
		{"nil subscriber", nil, valid, ErrInvalidSubscriber},
		{"nil pointer", nilPtr, valid, ErrInvalidSubscriber},
		{"non-comparable", []int{1}, valid, ErrInvalidSubscriber},
		{"no handlers", &subscriberA{}, nil, ErrNoHandlers},
		{"zero descriptor", &subscriberA{}, []Descriptor{On(noop[OrderCreated]()), {}}, ErrInvalidDescriptor},
		{"interface event type", &subscriberA{}, []Descriptor{On(noop[fmt.Stringer]())}, ErrInvalidEventType},
		{"unknown mode", &subscriberA{}, []Descriptor{On(noop[OrderCreated](), WithMode(Mode(9)))}, ErrUnknownMode},
		{"duplicate type", &subscriberA{}, []Descriptor{On(noop[OrderCreated]()), On(noop[OrderCreated]())}, ErrDuplicateHandler},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			r := newRegistry()
			if _, err := r.register(tt.subscriber, tt.descriptors, ModePosting); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if r.count() != 0 || len(r.bySubscriber) != 0 {
				t.Error("rejected registration must not change the registry")
			}
		})
	}
}

func TestRegistry_AlreadyRegistered(t *testing.T) {
	r := newRegistry()
	a := &subscriberA{}

	if _, err := r.register(a, []Descriptor{On(noop[OrderCreated]())}, ModePosting); err != nil {
		t.Fatal(err)
	}
	_, err := r.register(a, []Descriptor{On(noop[OrderShipped]())}, ModePosting)
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
	if r.hasSubscribers(orderShippedType) {
		t.Error("rejected registration leaked a subscription")
	}

	r.unregister(a)
	if _, err := r.register(a, []Descriptor{On(noop[OrderShipped]())}, ModePosting); err != nil {
		t.Errorf("register after unregister should succeed: %v", err)
	}
}

func TestRegistry_RegisterAfterClose(t *testing.T) {
	r := newRegistry()
	a := &subscriberA{}
	if _, err := r.register(a, []Descriptor{On(noop[OrderCreated]())}, ModePosting); err != nil {
		t.Fatal(err)
	}

	r.close()

	_, err := r.register(&subscriberB{}, []Descriptor{On(noop[OrderCreated]())}, ModePosting)
	if !errors.Is(err, ErrBusClosed) {
		t.Fatalf("expected ErrBusClosed, got %v", err)
	}
	if got := len(r.subscriptionsFor(orderCreatedType)); got != 1 {
		t.Errorf("expected 1 subscription after close, got %d", got)
	}
	if r.unregister(a) != 1 {
		t.Error("unregister should still work on a closed registry")
	}
}

func TestRegistry_ValueSubscribersCompareByValue(t *testing.T) {
	r := newRegistry()
	if _, err := r.register(subscriberA{"x"}, []Descriptor{On(noop[OrderCreated]())}, ModePosting); err != nil {
		t.Fatal(err)
	}
	if !r.isRegistered(subscriberA{"x"}) || r.isRegistered(subscriberA{"y"}) {
		t.Error("value subscribers should be identified by equality")
	}
}

func TestRegistry_Unregister(t *testing.T) {
	r := newRegistry()
	a, b := &subscriberA{}, &subscriberB{}
	_, _ = r.register(a, []Descriptor{On(noop[OrderCreated]()), On(noop[OrderShipped]())}, ModePosting)
	_, _ = r.register(b, []Descriptor{On(noop[OrderCreated]())}, ModePosting)

	if n := r.unregister(a); n != 2 {
		t.Errorf("expected 2 removed, got %d", n)
	}

	subs := r.subscriptionsFor(orderCreatedType)
	if len(subs) != 1 || subs[0].Subscriber() != b {
		t.Errorf("expected only b to remain, got %v", subs)
	}
	if _, ok := r.byEventType[orderShippedType]; ok {
		t.Error("empty event type entry should be deleted")
	}
	if r.isRegistered(a) {
		t.Error("a should no longer be registered")
	}
}

func TestRegistry_UnregisterIsIdempotent(t *testing.T) {
	r := newRegistry()
	a := &subscriberA{}
	_, _ = r.register(a, []Descriptor{On(noop[OrderCreated]())}, ModePosting)

	if n := r.unregister(a); n != 1 {
		t.Errorf("expected 1 removed, got %d", n)
	}
	if n := r.unregister(a); n != 0 {
		t.Errorf("second unregister should be a no-op, removed %d", n)
	}
	if n := r.unregister(&subscriberB{}); n != 0 {
		t.Errorf("unknown subscriber should be a no-op, removed %d", n)
	}
	if n := r.unregister(nil); n != 0 {
		t.Errorf("nil subscriber should be a no-op, removed %d", n)
	}
	if n := r.unregister([]int{1}); n != 0 {
		t.Errorf("non-comparable subscriber should be a no-op, removed %d", n)
	}
}

func TestRegistry_SnapshotSurvivesMutation(t *testing.T) {
	r := newRegistry()
	a, b := &subscriberA{}, &subscriberB{}
	_, _ = r.register(a, []Descriptor{On(noop[OrderCreated]())}, ModePosting)
	_, _ = r.register(b, []Descriptor{On(noop[OrderCreated]())}, ModePosting)

	snapshot := r.subscriptionsFor(orderCreatedType)
	r.unregister(a)
	_, _ = r.register(&subscriberA{"late"}, []Descriptor{On(noop[OrderCreated]())}, ModePosting)

	if len(snapshot) != 2 || snapshot[0].Subscriber() != a || snapshot[1].Subscriber() != b {
		t.Errorf("snapshot changed under mutation: %v", snapshot)
	}
}

// Both maps must agree after any interleaving of register and unregister.
func TestRegistry_ConcurrentLockstep(t *testing.T) {
	r := newRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := &subscriberA{name: fmt.Sprint(i)}
			for j := 0; j < 50; j++ {
				_, _ = r.register(s, []Descriptor{On(noop[OrderCreated]()), On(noop[OrderShipped]())}, ModePosting)
				_ = r.subscriptionsFor(orderCreatedType)
				if j%2 == 0 {
					r.unregister(s)
				}
			}
		}()
	}
	wg.Wait()

	r.mu.RLock()
	defer r.mu.RUnlock()
	for eventType, subs := range r.byEventType {
		if len(subs) == 0 {
			t.Errorf("empty entry left for %v", eventType)
		}
		for _, sub := range subs {
			types, ok := r.bySubscriber[sub.Subscriber()]
			if !ok {
				t.Fatalf("subscription for unregistered subscriber %v", sub.Subscriber())
			}
			found := false
			for _, et := range types {
				found = found || et == eventType
			}
			if !found {
				t.Errorf("subscriber index missing %v", eventType)
			}
		}
	}
	for subscriber, types := range r.bySubscriber {
		for _, et := range types {
			held := 0
			for _, sub := range r.byEventType[et] {
				if sub.Subscriber() == subscriber {
					held++
				}
			}
			if held != 1 {
				t.Errorf("expected exactly one subscription for %v on %v, got %d", subscriber, et, held)
			}
		}
	}
}
