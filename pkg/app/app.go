package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/shuldan/eventbus/pkg/contracts"
)

const defaultShutdownTimeout = 10 * time.Second

type Option func(*app)

type app struct {
	container       contracts.DIContainer
	registry        contracts.AppRegistry
	info            AppInfo
	appCtx          *appContext
	appCtxMu        sync.RWMutex
	isRunning       atomic.Bool
	shutdownTimeout time.Duration
	onReady         []func(ctx contracts.AppContext) error
}

func New(info AppInfo, container contracts.DIContainer, registry contracts.AppRegistry, opts ...Option) contracts.App {
	if container == nil {
		container = NewContainer()
	}
	if registry == nil {
		registry = NewRegistry()
	}

	a := &app{
		container:       container,
		registry:        registry,
		info:            info,
		shutdownTimeout: defaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func WithGracefulTimeout(timeout time.Duration) Option {
	return func(a *app) {
		a.shutdownTimeout = timeout
	}
}

// WithOnReady runs fn after every module has started. An error stops the
// application. Callers use it to subscribe handlers and post initial events.
func WithOnReady(fn func(ctx contracts.AppContext) error) Option {
	return func(a *app) {
		if fn != nil {
			a.onReady = append(a.onReady, fn)
		}
	}
}

func (a *app) Register(module contracts.AppModule) error {
	return a.registry.Register(module)
}

func (a *app) getAppCtx() *appContext {
	a.appCtxMu.RLock()
	defer a.appCtxMu.RUnlock()
	return a.appCtx
}

func (a *app) setAppCtx(ctx *appContext) {
	a.appCtxMu.Lock()
	defer a.appCtxMu.Unlock()
	a.appCtx = ctx
}

func (a *app) Run() error {
	if !a.isRunning.CompareAndSwap(false, true) {
		return ErrAppRun.WithDetail("reason", "application is already running")
	}

	ctx := newAppContext(a.info, a.container)
	a.setAppCtx(ctx)

	modules := a.registry.All()
	for _, module := range modules {
		if err := module.Register(a.container); err != nil {
			ctx.Stop()
			return ErrModuleRegister.
				WithDetail("module", module.Name()).
				WithCause(err)
		}
	}

	for i, module := range modules {
		if err := module.Start(ctx); err != nil {
			ctx.Stop()
			a.stopStarted(ctx, modules[:i])
			return ErrModuleStart.
				WithDetail("module", module.Name()).
				WithCause(err)
		}
	}

	for _, fn := range a.onReady {
		if err := fn(ctx); err != nil {
			ctx.Stop()
			_ = a.registry.Shutdown(ctx)
			return ErrAppRun.WithDetail("reason", "ready hook failed").WithCause(err)
		}
	}

	go watchSignals(ctx)

	<-ctx.Ctx().Done()

	return a.shutdown(ctx)
}

func (a *app) shutdown(ctx *appContext) error {
	if a.shutdownTimeout <= 0 {
		return a.registry.Shutdown(ctx)
	}

	timeout, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.registry.Shutdown(ctx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-timeout.Done():
		return ErrAppStop.WithDetail("reason", "graceful shutdown timed out after "+a.shutdownTimeout.String())
	}
}

func (a *app) stopStarted(appCtx contracts.AppContext, started []contracts.AppModule) {
	for i := len(started) - 1; i >= 0; i-- {
		_ = started[i].Stop(appCtx)
	}
}

func watchSignals(ctx contracts.AppContext) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
		ctx.Stop()
	case <-ctx.Ctx().Done():
	}
}
