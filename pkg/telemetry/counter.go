// Package telemetry exports event bus statistics through OpenTelemetry metrics.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/shuldan/eventbus"

// Counter records dispatch statistics. It satisfies events.Counter.
type Counter struct {
	posted        metric.Int64Counter
	delivered     metric.Int64Counter
	failed        metric.Int64Counter
	noSubscribers metric.Int64Counter
	handlerTime   metric.Float64Histogram
}

type Option func(*config)

type config struct {
	provider metric.MeterProvider
}

// WithMeterProvider replaces the global provider from otel.GetMeterProvider.
func WithMeterProvider(p metric.MeterProvider) Option {
	return func(c *config) {
		c.provider = p
	}
}

func NewCounter(opts ...Option) (*Counter, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.provider == nil {
		cfg.provider = otel.GetMeterProvider()
	}
	meter := cfg.provider.Meter(meterName)

	posted, err := meter.Int64Counter("eventbus.events.posted",
		metric.WithDescription("Number of events posted"),
	)
	if err != nil {
		return nil, err
	}

	delivered, err := meter.Int64Counter("eventbus.handler.delivered",
		metric.WithDescription("Number of handler invocations that returned without error"),
	)
	if err != nil {
		return nil, err
	}

	failed, err := meter.Int64Counter("eventbus.handler.failed",
		metric.WithDescription("Number of handler invocations that failed, panicked or could not be scheduled"),
	)
	if err != nil {
		return nil, err
	}

	noSubscribers, err := meter.Int64Counter("eventbus.events.no_subscribers",
		metric.WithDescription("Number of posted events without subscribers"),
	)
	if err != nil {
		return nil, err
	}

	handlerTime, err := meter.Float64Histogram("eventbus.handler.latency_ms",
		metric.WithDescription("Handler execution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Counter{
		posted:        posted,
		delivered:     delivered,
		failed:        failed,
		noSubscribers: noSubscribers,
		handlerTime:   handlerTime,
	}, nil
}

func (c *Counter) IncPosted(eventType string) {
	c.posted.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
	))
}

func (c *Counter) IncDelivered(eventType, mode string) {
	c.delivered.Add(context.Background(), 1, handlerAttrs(eventType, mode))
}

func (c *Counter) IncFailed(eventType, mode string) {
	c.failed.Add(context.Background(), 1, handlerAttrs(eventType, mode))
}

func (c *Counter) IncNoSubscribers(eventType string) {
	c.noSubscribers.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
	))
}

func (c *Counter) ObserveHandlerTime(eventType, mode string, d time.Duration) {
	c.handlerTime.Record(context.Background(), float64(d)/float64(time.Millisecond), handlerAttrs(eventType, mode))
}

func handlerAttrs(eventType, mode string) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("mode", mode),
	)
}
