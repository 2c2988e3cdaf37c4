package app

import (
	"sync"

	"github.com/shuldan/eventbus/pkg/contracts"
	"github.com/shuldan/eventbus/pkg/errors"
)

type registry struct {
	mu      sync.RWMutex
	modules []contracts.AppModule
	names   map[string]struct{}
}

func NewRegistry() contracts.AppRegistry {
	return &registry{
		modules: make([]contracts.AppModule, 0),
		names:   make(map[string]struct{}),
	}
}

func (r *registry) Register(module contracts.AppModule) error {
	if module == nil {
		return ErrNilModule
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.names[module.Name()]; exists {
		return ErrDuplicateModule.WithDetail("module", module.Name())
	}
	r.names[module.Name()] = struct{}{}
	r.modules = append(r.modules, module)
	return nil
}

func (r *registry) All() []contracts.AppModule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]contracts.AppModule, len(r.modules))
	copy(result, r.modules)
	return result
}

// Shutdown stops modules in reverse registration order so the event bus
// drains before the affinity loop and logger it depends on go away.
func (r *registry) Shutdown(ctx contracts.AppContext) error {
	var errs []error
	modules := r.All()
	for i := len(modules) - 1; i >= 0; i-- {
		if err := modules[i].Stop(ctx); err != nil {
			errs = append(errs, ErrModuleStop.
				WithDetail("module", modules[i].Name()).
				WithCause(err))
		}
	}
	return errors.Join(errs...)
}
