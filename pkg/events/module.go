package events

import (
	"github.com/shuldan/eventbus/pkg/app"
	"github.com/shuldan/eventbus/pkg/contracts"
	"github.com/shuldan/eventbus/pkg/telemetry"
)

type module struct {
	opts []Option
}

func (m *module) Name() string {
	return contracts.EventBusModuleName
}

// Register wires the bus from the container. Config keys under "events",
// the logger and the affinity scheduler are used when present; explicit
// module options win over config.
func (m *module) Register(container contracts.DIContainer) error {
	if err := container.Factory(app.TypeOf[*Bus](), m.build); err != nil {
		return err
	}
	return container.Factory(app.TypeOf[contracts.EventBus](), func(c contracts.DIContainer) (any, error) {
		return app.Resolve[*Bus](c)
	})
}

func (m *module) build(c contracts.DIContainer) (any, error) {
	var opts []Option

	log, hasLogger, err := app.ResolveOptional[contracts.Logger](c)
	if err != nil {
		return nil, err
	}
	if hasLogger {
		log = log.With("component", "events")
		opts = append(opts, WithLogger(log))
	}

	scheduler, ok, err := app.ResolveOptional[contracts.AffinityScheduler](c)
	if err != nil {
		return nil, err
	}
	if ok {
		opts = append(opts, WithAffinityScheduler(scheduler))
	}

	cfg, ok, err := app.ResolveOptional[contracts.Config](c)
	if err != nil {
		return nil, err
	}
	if ok {
		fromCfg, err := optionsFromConfig(cfg, log)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fromCfg...)
	}

	return New(append(opts, m.opts...)...)
}

func optionsFromConfig(cfg contracts.Config, log contracts.Logger) ([]Option, error) {
	var opts []Option

	if cfg.Has("events.default_mode") {
		mode, err := ParseMode(cfg.GetString("events.default_mode"))
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithDefaultMode(mode))
	}
	if n := cfg.GetInt("events.max_goroutines"); n > 0 {
		opts = append(opts, WithMaxGoroutines(n))
	}
	opts = append(opts,
		WithLogNoSubscribers(cfg.GetBool("events.log_no_subscribers")),
		WithNoSubscriberEvent(cfg.GetBool("events.no_subscriber_event")),
	)

	if cfg.GetBool("events.metrics") {
		counter, err := telemetry.NewCounter()
		if err != nil {
			if log != nil {
				log.Warn("event metrics disabled", "error", err.Error())
			}
		} else {
			opts = append(opts, WithCounter(counter))
		}
	}

	return opts, nil
}

// Start builds the bus eagerly so configuration errors surface at startup.
func (m *module) Start(ctx contracts.AppContext) error {
	_, err := m.resolve(ctx.Container())
	return err
}

func (m *module) Stop(ctx contracts.AppContext) error {
	b, err := m.resolve(ctx.Container())
	if err != nil {
		return err
	}
	return b.Close()
}

func (m *module) resolve(c contracts.DIContainer) (*Bus, error) {
	raw, err := c.Resolve(app.TypeOf[*Bus]())
	if err != nil {
		return nil, ErrBusNotFound.WithCause(err)
	}
	b, ok := raw.(*Bus)
	if !ok {
		return nil, ErrInvalidBusInstance
	}
	return b, nil
}
