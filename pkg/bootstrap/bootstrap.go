package bootstrap

import (
	"os"
	"time"

	"github.com/shuldan/eventbus/pkg/affinity"
	"github.com/shuldan/eventbus/pkg/app"
	"github.com/shuldan/eventbus/pkg/config"
	"github.com/shuldan/eventbus/pkg/contracts"
	"github.com/shuldan/eventbus/pkg/events"
	"github.com/shuldan/eventbus/pkg/logger"
)

// Defaults are the lowest configuration layer; YAML and environment
// variables override them.
var Defaults = map[string]any{
	"logger": map[string]any{
		"level":  "info",
		"format": "text",
	},
	"events": map[string]any{
		"default_mode":        "posting",
		"max_goroutines":      0,
		"log_no_subscribers":  false,
		"no_subscriber_event": false,
		"metrics":             false,
	},
}

type Bootstrap struct {
	appName         string
	appVersion      string
	appEnvironment  string
	modules         []contracts.AppModule
	gracefulTimeout time.Duration
	onReady         []func(ctx contracts.AppContext) error
}

func New(appName string, appVersion string, envPrefix string, configPaths ...string) *Bootstrap {
	appEnvironment := os.Getenv("APP_ENVIRONMENT")
	if appEnvironment == "" {
		appEnvironment = "development"
	}

	return &Bootstrap{
		appName:         appName,
		appVersion:      appVersion,
		appEnvironment:  appEnvironment,
		modules:         []contracts.AppModule{config.NewModule(envPrefix, Defaults, configPaths...)},
		gracefulTimeout: 30 * time.Second,
	}
}

func (b *Bootstrap) WithGracefulTimeout(timeout time.Duration) *Bootstrap {
	b.gracefulTimeout = timeout
	return b
}

func (b *Bootstrap) WithLogger(opts ...logger.Option) *Bootstrap {
	b.modules = append(b.modules, logger.NewModule(opts...))
	return b
}

// WithAffinity runs a shared affinity loop for the application. Register it
// before WithEventBus so the bus picks it up.
func (b *Bootstrap) WithAffinity(opts ...affinity.Option) *Bootstrap {
	b.modules = append(b.modules, affinity.NewModule(opts...))
	return b
}

func (b *Bootstrap) WithEventBus(opts ...events.Option) *Bootstrap {
	b.modules = append(b.modules, events.NewModule(opts...))
	return b
}

// OnReady runs fn once every module has started.
func (b *Bootstrap) OnReady(fn func(ctx contracts.AppContext) error) *Bootstrap {
	b.onReady = append(b.onReady, fn)
	return b
}

func (b *Bootstrap) CreateApp() (contracts.App, error) {
	opts := []app.Option{app.WithGracefulTimeout(b.gracefulTimeout)}
	for _, fn := range b.onReady {
		opts = append(opts, app.WithOnReady(fn))
	}

	a := app.New(
		app.AppInfo{
			AppName:     b.appName,
			Version:     b.appVersion,
			Environment: b.appEnvironment,
		},
		app.NewContainer(),
		app.NewRegistry(),
		opts...,
	)

	for _, module := range b.modules {
		if err := a.Register(module); err != nil {
			return nil, err
		}
	}

	return a, nil
}
