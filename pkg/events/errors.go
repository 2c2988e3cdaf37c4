package events

import "github.com/shuldan/eventbus/pkg/errors"

var newEventCode = errors.WithPrefix("EVENTS")

var (
	ErrInvalidListenerFunction = newEventCode().New("listener function must have signature func(context.Context, T) error, got {{.signature}}")
	ErrInvalidEventType        = newEventCode().New("invalid event type {{.event_type}}: {{.reason}}")
	ErrInvalidSubscriber       = newEventCode().New("subscriber must be a non-nil comparable value, got {{.subscriber}}")
	ErrNotSubscriber           = newEventCode().New("{{.subscriber}} does not implement events.Subscriber")
	ErrInvalidDescriptor       = newEventCode().New("descriptor #{{.index}} is empty; build descriptors with On or NewDescriptor")
	ErrNoHandlers              = newEventCode().New("subscriber {{.subscriber}} declares no handlers")
	ErrAlreadyRegistered       = newEventCode().New("subscriber {{.subscriber}} is already registered")
	ErrDuplicateHandler        = newEventCode().New("subscriber {{.subscriber}} declares more than one handler for {{.event_type}}")
	ErrBusClosed               = newEventCode().New("cannot register: event bus is closed")
	ErrPublishOnClosedBus      = newEventCode().New("cannot publish: event bus is closed")
	ErrInvocation              = newEventCode().New("handler {{.subscription}} failed on {{.event_type}} in {{.mode}} mode")
	ErrScheduleFailed          = newEventCode().New("could not schedule handler {{.subscription}} for {{.event_type}} in {{.mode}} mode")
	ErrUnknownMode             = newEventCode().New("unknown thread mode {{.mode}}")
	ErrInvalidBusInstance      = newEventCode().New("events bus instance must be a *events.Bus")
	ErrBusNotFound             = newEventCode().New("events bus not found")
)
