package affinity

import (
	"github.com/shuldan/eventbus/pkg/app"
	"github.com/shuldan/eventbus/pkg/contracts"
)

type module struct {
	opts []Option
}

// NewModule provides the affinity loop as contracts.AffinityScheduler and runs
// it on its own goroutine for the lifetime of the application.
func NewModule(opts ...Option) contracts.AppModule {
	return &module{opts: opts}
}

func (m *module) Name() string {
	return contracts.AffinityModuleName
}

func (m *module) Register(container contracts.DIContainer) error {
	return container.Factory(app.TypeOf[contracts.AffinityScheduler](), func(c contracts.DIContainer) (any, error) {
		log, ok, err := app.ResolveOptional[contracts.Logger](c)
		if err != nil {
			return nil, err
		}
		opts := m.opts
		if ok {
			opts = append([]Option{WithLogger(log.With("component", "affinity"))}, opts...)
		}
		return NewLoop(opts...), nil
	})
}

func (m *module) Start(ctx contracts.AppContext) error {
	loop, err := resolveLoop(ctx.Container())
	if err != nil {
		return err
	}
	loop.Start()
	return nil
}

func (m *module) Stop(ctx contracts.AppContext) error {
	loop, err := resolveLoop(ctx.Container())
	if err != nil {
		return err
	}
	loop.Stop()
	if loop.Running() {
		<-loop.Done()
	}
	return nil
}

func resolveLoop(c contracts.DIContainer) (*Loop, error) {
	scheduler, err := app.Resolve[contracts.AffinityScheduler](c)
	if err != nil {
		return nil, ErrLoopNotRegistered.WithCause(err)
	}
	loop, ok := scheduler.(*Loop)
	if !ok {
		return nil, ErrInvalidLoop
	}
	return loop, nil
}
