package events

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// Subscription binds one subscriber to one descriptor. It never changes after
// registration, so dispatch reads it without locking.
type Subscription struct {
	id         uuid.UUID
	subscriber any
	descriptor Descriptor
	mode       Mode
}

func newSubscription(subscriber any, d Descriptor, mode Mode) *Subscription {
	return &Subscription{
		id:         uuid.New(),
		subscriber: subscriber,
		descriptor: d,
		mode:       mode,
	}
}

func (s *Subscription) ID() uuid.UUID {
	return s.id
}

func (s *Subscription) Subscriber() any {
	return s.subscriber
}

func (s *Subscription) Descriptor() Descriptor {
	return s.descriptor
}

func (s *Subscription) EventType() reflect.Type {
	return s.descriptor.eventType
}

// Mode is the effective mode, after the bus default has been applied.
func (s *Subscription) Mode() Mode {
	return s.mode
}

func (s *Subscription) String() string {
	return fmt.Sprintf("%s[%s]", s.descriptor.name, s.id)
}

func (s *Subscription) invoke(ctx context.Context, event any) error {
	return s.descriptor.handler(ctx, event)
}
