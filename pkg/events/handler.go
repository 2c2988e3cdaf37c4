package events

import (
	"fmt"
	"log/slog"

	"github.com/shuldan/eventbus/pkg/contracts"
)

// ErrorHandler receives handler failures. listener is the *Subscription
// that failed. Implementations must not panic.
type ErrorHandler interface {
	Handle(event any, listener any, err error)
}

// PanicHandler receives panics recovered from handlers.
type PanicHandler interface {
	Handle(event any, listener any, panicValue any, stack []byte)
}

type defaultPanicHandler struct {
	logger contracts.Logger
}

func NewDefaultPanicHandler(logger contracts.Logger) PanicHandler {
	return &defaultPanicHandler{logger: logger}
}

func (d *defaultPanicHandler) Handle(event any, listener any, panicValue any, stack []byte) {
	args := append(listenerArgs(event, listener),
		"panic_value", fmt.Sprint(panicValue),
		"stack", string(stack),
	)
	if d.logger == nil {
		slog.Error("event handler panicked", args...)
		return
	}
	d.logger.Critical("event handler panicked", args...)
}

type defaultErrorHandler struct {
	logger contracts.Logger
}

func NewDefaultErrorHandler(logger contracts.Logger) ErrorHandler {
	return &defaultErrorHandler{logger: logger}
}

func (d *defaultErrorHandler) Handle(event any, listener any, err error) {
	args := append(listenerArgs(event, listener), "error", err.Error())
	if d.logger == nil {
		slog.Error("event handler failed", args...)
		return
	}
	d.logger.Error("event handler failed", args...)
}

func listenerArgs(event any, listener any) []any {
	args := []any{"event_type", fmt.Sprintf("%T", event)}
	if sub, ok := listener.(*Subscription); ok {
		return append(args,
			"subscription", sub.ID().String(),
			"handler", sub.Descriptor().Name(),
			"mode", sub.Mode().String(),
		)
	}
	return append(args, "listener", fmt.Sprint(listener))
}
