package events

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

type handlerFunc func(ctx context.Context, event any) error

// Descriptor describes one handler: the exact event type it accepts, the
// mode it runs in and the callable the bus invokes. It is immutable.
//
// Priority and sticky are carried for callers that inspect descriptors;
// the bus does not reorder by priority and does not replay sticky events.
type Descriptor struct {
	eventType reflect.Type
	mode      Mode
	modeSet   bool
	priority  int
	sticky    bool
	name      string
	handler   handlerFunc
}

type DescriptorOption func(*Descriptor)

func WithMode(mode Mode) DescriptorOption {
	return func(d *Descriptor) {
		d.mode = mode
		d.modeSet = true
	}
}

func WithPriority(priority int) DescriptorOption {
	return func(d *Descriptor) {
		d.priority = priority
	}
}

func WithSticky(sticky bool) DescriptorOption {
	return func(d *Descriptor) {
		d.sticky = sticky
	}
}

// WithName overrides the handler name used in logs and errors.
func WithName(name string) DescriptorOption {
	return func(d *Descriptor) {
		d.name = name
	}
}

// On builds a descriptor for a handler of events of type T.
func On[T any](fn func(ctx context.Context, event T) error, opts ...DescriptorOption) Descriptor {
	if fn == nil {
		return Descriptor{}
	}

	eventType := reflect.TypeOf((*T)(nil)).Elem()
	d := Descriptor{
		eventType: eventType,
		name:      funcName(fn),
		handler: func(ctx context.Context, event any) error {
			e, ok := event.(T)
			if !ok {
				return ErrInvalidEventType.
					WithDetail("event_type", fmt.Sprintf("%T", event)).
					WithDetail("reason", "handler expects "+eventType.String())
			}
			return fn(ctx, e)
		},
	}
	return d.apply(opts)
}

// NewDescriptor is the reflective counterpart of On for handlers whose event
// type is only known at runtime. fn must be func(context.Context, T) error.
func NewDescriptor(fn any, opts ...DescriptorOption) (Descriptor, error) {
	fnValue := reflect.ValueOf(fn)
	if !fnValue.IsValid() || fnValue.Kind() != reflect.Func || fnValue.IsNil() {
		return Descriptor{}, ErrInvalidListenerFunction.WithDetail("signature", fmt.Sprintf("%T", fn))
	}

	fnType := fnValue.Type()
	if fnType.NumIn() != 2 || fnType.NumOut() != 1 || fnType.IsVariadic() ||
		fnType.In(0) != contextType || fnType.Out(0) != errorType {
		return Descriptor{}, ErrInvalidListenerFunction.WithDetail("signature", fnType.String())
	}

	eventType := fnType.In(1)
	d := Descriptor{
		eventType: eventType,
		name:      funcName(fn),
		handler: func(ctx context.Context, event any) error {
			ev := reflect.ValueOf(event)
			if !ev.IsValid() || ev.Type() != eventType {
				return ErrInvalidEventType.
					WithDetail("event_type", fmt.Sprintf("%T", event)).
					WithDetail("reason", "handler expects "+eventType.String())
			}
			out := fnValue.Call([]reflect.Value{reflect.ValueOf(ctx), ev})
			if err, _ := out[0].Interface().(error); err != nil {
				return err
			}
			return nil
		},
	}
	return d.apply(opts), nil
}

func (d Descriptor) apply(opts []DescriptorOption) Descriptor {
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func (d Descriptor) EventType() reflect.Type {
	return d.eventType
}

// Mode is the declared mode. A descriptor without WithMode reports ModePosting
// here; the bus substitutes its default mode at registration.
func (d Descriptor) Mode() Mode {
	return d.mode
}

func (d Descriptor) Priority() int {
	return d.priority
}

func (d Descriptor) Sticky() bool {
	return d.sticky
}

func (d Descriptor) Name() string {
	return d.name
}

// IsZero reports whether d was declared without On or NewDescriptor.
func (d Descriptor) IsZero() bool {
	return d.eventType == nil || d.handler == nil
}

// Subscriber is implemented by values that declare their own handlers.
type Subscriber interface {
	Subscriptions() []Descriptor
}

func funcName(fn any) string {
	if f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()); f != nil {
		return f.Name()
	}
	return fmt.Sprintf("%T", fn)
}
