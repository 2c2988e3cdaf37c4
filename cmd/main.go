package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/shuldan/eventbus/pkg/app"
	"github.com/shuldan/eventbus/pkg/bootstrap"
	"github.com/shuldan/eventbus/pkg/contracts"
	"github.com/shuldan/eventbus/pkg/events"
)

type OrderCreated struct {
	ID    int
	Total float64
}

type OrderShipped struct {
	ID int
}

// receipts prints inline, before Post returns.
type receipts struct{}

func (r *receipts) Subscriptions() []events.Descriptor {
	return []events.Descriptor{
		events.On(r.onOrderCreated, events.WithMode(events.ModePosting)),
	}
}

func (r *receipts) onOrderCreated(_ context.Context, e *OrderCreated) error {
	fmt.Printf("receipt: order %d, total %.2f\n", e.ID, e.Total)
	return nil
}

// warehouse reserves stock on the background pool and reports back on the
// affinity loop.
type warehouse struct {
	bus  contracts.EventBus
	done *sync.WaitGroup
}

func (w *warehouse) Subscriptions() []events.Descriptor {
	return []events.Descriptor{
		events.On(w.reserve, events.WithMode(events.ModeAsync)),
		events.On(w.shipped, events.WithMode(events.ModeAffinity)),
	}
}

func (w *warehouse) reserve(ctx context.Context, e *OrderCreated) error {
	fmt.Printf("warehouse: reserving stock for order %d\n", e.ID)
	return w.bus.Post(ctx, OrderShipped{ID: e.ID})
}

func (w *warehouse) shipped(_ context.Context, e OrderShipped) error {
	defer w.done.Done()
	fmt.Printf("warehouse: order %d shipped\n", e.ID)
	return nil
}

func main() {
	var done sync.WaitGroup

	a, err := bootstrap.New("orders", "0.1.0", "ORDERS_", "eventbus.yaml").
		WithLogger().
		WithAffinity().
		WithEventBus().
		OnReady(func(ctx contracts.AppContext) error {
			bus, err := app.Resolve[contracts.EventBus](ctx.Container())
			if err != nil {
				return err
			}
			if err := bus.RegisterSubscriber(&receipts{}); err != nil {
				return err
			}
			if err := bus.RegisterSubscriber(&warehouse{bus: bus, done: &done}); err != nil {
				return err
			}

			done.Add(1)
			if err := bus.Post(ctx.Ctx(), &OrderCreated{ID: 42, Total: 99.5}); err != nil {
				return err
			}
			fmt.Println("posted order 42")

			go func() {
				done.Wait()
				ctx.Stop()
			}()
			return nil
		}).
		CreateApp()
	if err != nil {
		log.Fatal(err)
	}

	if err := a.Run(); err != nil {
		log.Print(err)
		os.Exit(1)
	}
}
