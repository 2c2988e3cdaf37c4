package app

import (
	"errors"
	"testing"
	"time"

	"github.com/shuldan/eventbus/pkg/contracts"
)

func waitForCtx(t *testing.T, a *app) *appContext {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if ctx := a.getAppCtx(); ctx != nil {
			return ctx
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("application context was never created")
	return nil
}

func TestApplication_Run_Success(t *testing.T) {
	a := New(AppInfo{AppName: "test"}, nil, nil).(*app)

	stopped := false
	_ = a.Register(&mockModule{
		name: "test",
		stop: func(ctx contracts.AppContext) error {
			stopped = true
			return nil
		},
	})

	done := make(chan error, 1)
	go func() {
		done <- a.Run()
	}()

	waitForCtx(t, a).Stop()

	if err := <-done; err != nil {
		t.Errorf("Run() returned error: %v", err)
	}
	if !stopped {
		t.Error("module should be stopped on shutdown")
	}
}

func TestApplication_OnReady(t *testing.T) {
	a := New(AppInfo{AppName: "ready"}, nil, nil, WithOnReady(func(ctx contracts.AppContext) error {
		ctx.Stop()
		return nil
	}))

	if err := a.Run(); err != nil {
		t.Errorf("Run() returned error: %v", err)
	}
}

func TestApplication_OnReadyError(t *testing.T) {
	a := New(AppInfo{AppName: "ready"}, nil, nil, WithOnReady(func(ctx contracts.AppContext) error {
		return errors.New("boom")
	}))

	if err := a.Run(); !errors.Is(err, ErrAppRun) {
		t.Errorf("Expected ErrAppRun, got %v", err)
	}
}

func TestApplication_GracefulTimeout(t *testing.T) {
	a := New(AppInfo{AppName: "timeout"}, nil, nil, WithGracefulTimeout(50*time.Millisecond)).(*app)

	_ = a.Register(&mockModule{
		name: "slow",
		stop: func(ctx contracts.AppContext) error {
			time.Sleep(500 * time.Millisecond)
			return nil
		},
	})

	done := make(chan error, 1)
	go func() {
		done <- a.Run()
	}()

	waitForCtx(t, a).Stop()

	if err := <-done; !errors.Is(err, ErrAppStop) {
		t.Errorf("Expected ErrAppStop, got %v", err)
	}
}

func TestApplication_DoubleRun(t *testing.T) {
	a := New(AppInfo{AppName: "test"}, nil, nil).(*app)

	done := make(chan error, 1)
	go func() {
		done <- a.Run()
	}()

	ctx := waitForCtx(t, a)
	if err := a.Run(); !errors.Is(err, ErrAppRun) {
		t.Errorf("Expected ErrAppRun, got %v", err)
	}

	ctx.Stop()
	<-done
}

func TestApplication_StartError_StopsStartedModules(t *testing.T) {
	a := New(AppInfo{AppName: "test"}, nil, nil)

	stopped := false
	_ = a.Register(&mockModule{
		name: "success",
		stop: func(ctx contracts.AppContext) error {
			stopped = true
			return nil
		},
	})
	_ = a.Register(&mockModule{
		name: "failing",
		start: func(ctx contracts.AppContext) error {
			return errors.New("start failed")
		},
	})

	if err := a.Run(); !errors.Is(err, ErrModuleStart) {
		t.Fatalf("Expected ErrModuleStart, got %v", err)
	}
	if !stopped {
		t.Error("previously started module should be stopped")
	}
}

func TestApplication_DefaultTimeout(t *testing.T) {
	a := New(AppInfo{AppName: "test"}, nil, nil).(*app)
	if a.shutdownTimeout != defaultShutdownTimeout {
		t.Errorf("Expected default timeout %v, got %v", defaultShutdownTimeout, a.shutdownTimeout)
	}
}
