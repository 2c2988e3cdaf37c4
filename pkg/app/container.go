package app

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/shuldan/eventbus/pkg/contracts"
)

type factoryFunc = func(c contracts.DIContainer) (any, error)

type container struct {
	mu        sync.RWMutex
	factories map[reflect.Type]factoryFunc
	instances map[reflect.Type]any
}

func NewContainer() contracts.DIContainer {
	return &container{
		factories: make(map[reflect.Type]factoryFunc),
		instances: make(map[reflect.Type]any),
	}
}

// TypeOf returns the container key for T. Interfaces are keyed by the
// interface type itself, not by a pointer to it.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Resolve looks up T and asserts the stored value.
func Resolve[T any](c contracts.DIContainer) (T, error) {
	var zero T
	key := TypeOf[T]()
	raw, err := c.Resolve(key)
	if err != nil {
		return zero, err
	}
	v, ok := raw.(T)
	if !ok {
		return zero, ErrTypeMismatch.
			WithDetail("type", key.String()).
			WithDetail("actual", fmt.Sprintf("%T", raw))
	}
	return v, nil
}

// ResolveOptional is Resolve for dependencies a module can run without.
func ResolveOptional[T any](c contracts.DIContainer) (T, bool, error) {
	var zero T
	if !c.Has(TypeOf[T]()) {
		return zero, false, nil
	}
	v, err := Resolve[T](c)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

func (c *container) Has(abstract reflect.Type) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, hasFactory := c.factories[abstract]
	_, hasInstance := c.instances[abstract]
	return hasFactory || hasInstance
}

func (c *container) Instance(abstract reflect.Type, concrete any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.instances[abstract]; exists {
		return ErrDuplicateInstance.WithDetail("type", abstract.String())
	}
	c.instances[abstract] = concrete
	return nil
}

func (c *container) Factory(abstract reflect.Type, factory func(c contracts.DIContainer) (any, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.factories[abstract]; exists {
		return ErrDuplicateFactory.WithDetail("type", abstract.String())
	}
	c.factories[abstract] = factory
	return nil
}

func (c *container) Resolve(abstract reflect.Type) (any, error) {
	return c.resolveWithStack(abstract, make(map[reflect.Type]bool))
}

func (c *container) resolveWithStack(abstract reflect.Type, resolving map[reflect.Type]bool) (any, error) {
	c.mu.RLock()
	instance, exists := c.instances[abstract]
	factory, hasFactory := c.factories[abstract]
	c.mu.RUnlock()

	if exists {
		return instance, nil
	}
	if resolving[abstract] {
		return nil, ErrCircularDep.WithDetail("type", abstract.String())
	}
	if !hasFactory {
		return nil, ErrValueNotFound.WithDetail("type", abstract.String())
	}

	resolving[abstract] = true
	defer delete(resolving, abstract)

	built, err := factory(&containerProxy{container: c, resolving: resolving})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// another goroutine may have resolved it first; keep a single instance
	if existing, ok := c.instances[abstract]; ok {
		return existing, nil
	}
	c.instances[abstract] = built
	return built, nil
}

// containerProxy carries the resolution stack into nested factory calls.
type containerProxy struct {
	container *container
	resolving map[reflect.Type]bool
}

func (cp *containerProxy) Has(abstract reflect.Type) bool {
	return cp.container.Has(abstract)
}

func (cp *containerProxy) Instance(abstract reflect.Type, concrete any) error {
	return cp.container.Instance(abstract, concrete)
}

func (cp *containerProxy) Factory(abstract reflect.Type, factory func(c contracts.DIContainer) (any, error)) error {
	return cp.container.Factory(abstract, factory)
}

func (cp *containerProxy) Resolve(abstract reflect.Type) (any, error) {
	return cp.container.resolveWithStack(abstract, cp.resolving)
}
