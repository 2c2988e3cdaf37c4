package app

import (
	"context"
	"sync"
	"time"

	"github.com/shuldan/eventbus/pkg/contracts"
)

type AppInfo struct {
	AppName     string
	Version     string
	Environment string
}

// appContext is handed to every module. Its Ctx is cancelled by Stop, which
// is what Run waits on before shutting modules down.
type appContext struct {
	ctx       context.Context
	cancel    context.CancelFunc
	container contracts.DIContainer
	info      AppInfo
	startTime time.Time

	mu       sync.RWMutex
	stopTime time.Time
}

var _ contracts.AppContext = (*appContext)(nil)

func newAppContext(info AppInfo, container contracts.DIContainer) *appContext {
	ctx, cancel := context.WithCancel(context.Background())
	return &appContext{
		ctx:       ctx,
		cancel:    cancel,
		container: container,
		info:      info,
		startTime: time.Now(),
	}
}

func (c *appContext) Ctx() context.Context             { return c.ctx }
func (c *appContext) Container() contracts.DIContainer { return c.container }
func (c *appContext) AppName() string                  { return c.info.AppName }
func (c *appContext) Version() string                  { return c.info.Version }
func (c *appContext) Environment() string              { return c.info.Environment }
func (c *appContext) StartTime() time.Time             { return c.startTime }

func (c *appContext) StopTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stopTime
}

func (c *appContext) IsRunning() bool {
	return c.ctx.Err() == nil
}

// Stop is idempotent; the first call records the stop time.
func (c *appContext) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx.Err() != nil {
		return
	}
	c.stopTime = time.Now()
	c.cancel()
}
