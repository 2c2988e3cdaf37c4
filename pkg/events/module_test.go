package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shuldan/eventbus/pkg/affinity"
	"github.com/shuldan/eventbus/pkg/app"
	"github.com/shuldan/eventbus/pkg/config"
	"github.com/shuldan/eventbus/pkg/contracts"
)

type stubAppContext struct {
	contracts.AppContext
	container contracts.DIContainer
}

func (s stubAppContext) Container() contracts.DIContainer { return s.container }

func newModuleContainer(t *testing.T, values map[string]any) contracts.DIContainer {
	t.Helper()
	c := app.NewContainer()
	if values != nil {
		if err := c.Instance(app.TypeOf[contracts.Config](), config.NewMapConfig(values)); err != nil {
			t.Fatal(err)
		}
	}
	return c
}

func TestModule_Lifecycle(t *testing.T) {
	c := newModuleContainer(t, map[string]any{
		"events": map[string]any{
			"default_mode":        "async",
			"no_subscriber_event": true,
			"metrics":             true,
		},
	})
	log := &mockLogger{}
	_ = c.Instance(app.TypeOf[contracts.Logger](), log)

	m := NewModule()
	if m.Name() != contracts.EventBusModuleName {
		t.Errorf("unexpected name %q", m.Name())
	}
	if err := m.Register(c); err != nil {
		t.Fatal(err)
	}
	appCtx := stubAppContext{container: c}
	if err := m.Start(appCtx); err != nil {
		t.Fatal(err)
	}

	bus, err := app.Resolve[contracts.EventBus](c)
	if err != nil {
		t.Fatal(err)
	}
	concrete, err := app.Resolve[*Bus](c)
	if err != nil {
		t.Fatal(err)
	}
	if bus != concrete {
		t.Error("EventBus and *Bus should resolve to the same instance")
	}
	if concrete.defaultMode != ModeAsync || !concrete.noSubscriberEvent {
		t.Errorf("config not applied: mode=%v noSubscriberEvent=%v", concrete.defaultMode, concrete.noSubscriberEvent)
	}
	if _, ok := concrete.counter.(NoOpCounter); ok {
		t.Error("events.metrics should install a telemetry counter")
	}

	if err := m.Stop(appCtx); err != nil {
		t.Fatal(err)
	}
	if err := bus.Post(context.Background(), OrderCreated{}); !errors.Is(err, ErrPublishOnClosedBus) {
		t.Errorf("expected closed bus after Stop, got %v", err)
	}
}

func TestModule_UsesRegisteredScheduler(t *testing.T) {
	c := newModuleContainer(t, nil)
	loop := affinity.NewLoop()
	loop.Start()
	defer func() {
		loop.Stop()
		<-loop.Done()
	}()
	_ = c.Instance(app.TypeOf[contracts.AffinityScheduler](), loop)

	m := NewModule()
	_ = m.Register(c)
	b, err := app.Resolve[*Bus](c)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	seen := make(chan bool, 1)
	_ = b.Register(&subscriberA{}, On(func(ctx context.Context, _ OrderCreated) error {
		seen <- loop.IsOnAffinity(ctx)
		return nil
	}, WithMode(ModeAffinity)))
	_ = b.Post(context.Background(), OrderCreated{})

	select {
	case onLoop := <-seen:
		if !onLoop {
			t.Error("handler should run on the registered loop")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler never ran")
	}
}

func TestModule_InvalidDefaultMode(t *testing.T) {
	c := newModuleContainer(t, map[string]any{
		"events": map[string]any{"default_mode": "sometimes"},
	})
	m := NewModule()
	_ = m.Register(c)

	if err := m.Start(stubAppContext{container: c}); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("expected ErrUnknownMode, got %v", err)
	}
}

func TestModule_OptionsOverrideConfig(t *testing.T) {
	c := newModuleContainer(t, map[string]any{
		"events": map[string]any{"default_mode": "async"},
	})
	m := NewModule(WithDefaultMode(ModeBackground))
	_ = m.Register(c)

	b, err := app.Resolve[*Bus](c)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	if b.defaultMode != ModeBackground {
		t.Errorf("expected module option to win, got %v", b.defaultMode)
	}
}
