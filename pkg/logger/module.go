package logger

import (
	"github.com/shuldan/eventbus/pkg/app"
	"github.com/shuldan/eventbus/pkg/contracts"
)

type module struct {
	opts []Option
}

// NewModule registers a contracts.Logger. When a config is available,
// logger.level and logger.format ("json" or "text") are applied before opts.
func NewModule(opts ...Option) contracts.AppModule {
	return &module{opts: opts}
}

func (m *module) Name() string {
	return contracts.LoggerModuleName
}

func (m *module) Register(container contracts.DIContainer) error {
	return container.Factory(app.TypeOf[contracts.Logger](), func(c contracts.DIContainer) (any, error) {
		cfg, ok, err := app.ResolveOptional[contracts.Config](c)
		if err != nil {
			return nil, err
		}
		var opts []Option
		if ok {
			opts = append(opts, fromConfig(cfg)...)
		}
		return NewLogger(append(opts, m.opts...)...)
	})
}

func (m *module) Start(_ contracts.AppContext) error {
	return nil
}

func (m *module) Stop(_ contracts.AppContext) error {
	return nil
}

func fromConfig(cfg contracts.Config) []Option {
	var opts []Option
	if cfg.Has("logger.level") {
		opts = append(opts, WithLevel(ParseLevel(cfg.GetString("logger.level"))))
	}
	if cfg.GetString("logger.format") == "json" {
		opts = append(opts, WithJSON())
	}
	if cfg.GetBool("logger.color") {
		opts = append(opts, WithColor())
	}
	return opts
}
