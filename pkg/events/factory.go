package events

import (
	"github.com/shuldan/eventbus/pkg/affinity"
	"github.com/shuldan/eventbus/pkg/contracts"
	"github.com/shuldan/eventbus/pkg/executor"
)

// New builds a bus. Collaborators that are not supplied through options are
// created here and owned by the bus.
func New(opts ...Option) (*Bus, error) {
	cfg := &busConfig{defaultMode: ModePosting}
	for _, opt := range opts {
		opt(cfg)
	}

	if !cfg.defaultMode.valid() {
		return nil, ErrUnknownMode.WithDetail("mode", int(cfg.defaultMode))
	}

	b := &Bus{
		registry:          newRegistry(),
		scheduler:         cfg.scheduler,
		executor:          cfg.executor,
		errorHandler:      cfg.errorHandler,
		panicHandler:      cfg.panicHandler,
		logger:            cfg.logger,
		counter:           cfg.counter,
		defaultMode:       cfg.defaultMode,
		logNoSubscribers:  cfg.logNoSubscribers,
		noSubscriberEvent: cfg.noSubscriberEvent,
	}

	if b.errorHandler == nil {
		b.errorHandler = NewDefaultErrorHandler(b.logger)
	}
	if b.panicHandler == nil {
		b.panicHandler = NewDefaultPanicHandler(b.logger)
	}
	if b.counter == nil {
		b.counter = NoOpCounter{}
	}

	if b.executor == nil {
		poolOpts := []executor.Option{executor.WithMaxGoroutines(cfg.maxGoroutines)}
		if b.logger != nil {
			poolOpts = append(poolOpts, executor.WithLogger(b.logger))
		}
		pool := executor.NewPool(poolOpts...)
		b.executor = pool
		b.owned = append(b.owned, pool.Close)
	}

	if b.scheduler == nil {
		var loopOpts []affinity.Option
		if b.logger != nil {
			loopOpts = append(loopOpts, affinity.WithLogger(b.logger))
		}
		loop := affinity.NewLoop(loopOpts...)
		loop.Start()
		b.scheduler = loop
		b.owned = append(b.owned, func() error {
			loop.Stop()
			<-loop.Done()
			return nil
		})
	}

	return b, nil
}

// NewModule registers the bus as contracts.EventBus and *Bus.
func NewModule(opts ...Option) contracts.AppModule {
	return &module{opts: opts}
}
