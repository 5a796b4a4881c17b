package process

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// blockUntilCancelled is a RunFunc that behaves like a healthy component.
func blockUntilCancelled(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func waitForStatus(t *testing.T, m *Manager, want Status) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.Status() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Status() = %q, want %q", m.Status(), want)
}

func TestManager_StartAndStop(t *testing.T) {
	m := NewManager(Config{Name: "test", Run: blockUntilCancelled})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitForStatus(t, m, StatusRunning)

	if m.Uptime() <= 0 {
		t.Error("Uptime() should be positive while running")
	}

	if err := m.Stop(2 * time.Second); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if m.Status() != StatusStopped {
		t.Errorf("Status() = %q, want stopped", m.Status())
	}
	if m.Uptime() != 0 {
		t.Errorf("Uptime() = %v, want 0 when stopped", m.Uptime())
	}
}

func TestManager_StartTwice(t *testing.T) {
	m := NewManager(Config{Name: "test", Run: blockUntilCancelled})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitForStatus(t, m, StatusRunning)

	if err := m.Start(context.Background()); err == nil {
		t.Error("second Start() should fail while running")
	}

	if err := m.Stop(2 * time.Second); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}

func TestManager_StartWithoutRun(t *testing.T) {
	m := NewManager(Config{Name: "test"})

	if err := m.Start(context.Background()); err == nil {
		t.Error("Start() should fail without a run function")
	}
}

func TestManager_RestartsOnFailure(t *testing.T) {
	var starts atomic.Int32
	run := func(ctx context.Context) error {
		if starts.Add(1) == 1 {
			return errors.New("transient failure")
		}
		<-ctx.Done()
		return nil
	}

	m := NewManager(Config{
		Name:             "flaky",
		Run:              run,
		RestartOnFailure: true,
		RestartDelay:     10 * time.Millisecond,
	})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && starts.Load() < 2 {
		time.Sleep(5 * time.Millisecond)
	}
	if starts.Load() < 2 {
		t.Fatalf("component started %d times, want restart after failure", starts.Load())
	}

	waitForStatus(t, m, StatusRunning)
	if m.RestartCount() != 1 {
		t.Errorf("RestartCount() = %d, want 1", m.RestartCount())
	}
	if m.LastError() == nil {
		t.Error("LastError() should record the failure")
	}

	if err := m.Stop(2 * time.Second); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}

func TestManager_ExhaustsRestartAttempts(t *testing.T) {
	errCh := make(chan error, 1)

	m := NewManager(Config{
		Name:               "broken",
		Run:                func(context.Context) error { return errors.New("always fails") },
		RestartOnFailure:   true,
		RestartDelay:       time.Millisecond,
		MaxRestartAttempts: 2,
		OnStop:             func(err error) { errCh <- err },
	})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case stopErr := <-errCh:
		if stopErr == nil {
			t.Error("OnStop should receive the final error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("component should give up after exhausting restarts")
	}

	if m.Status() != StatusFailed {
		t.Errorf("Status() = %q, want failed", m.Status())
	}
	if m.RestartCount() != 2 {
		t.Errorf("RestartCount() = %d, want 2", m.RestartCount())
	}
}

func TestManager_NoRestartWhenDisabled(t *testing.T) {
	stopped := make(chan struct{})

	m := NewManager(Config{
		Name:             "once",
		Run:              func(context.Context) error { return errors.New("boom") },
		RestartOnFailure: false,
		OnStop:           func(error) { close(stopped) },
	})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("component should stop after first failure")
	}

	if m.Status() != StatusFailed {
		t.Errorf("Status() = %q, want failed", m.Status())
	}
	if m.RestartCount() != 0 {
		t.Errorf("RestartCount() = %d, want 0", m.RestartCount())
	}
}

func TestManager_ContextCancellationStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	m := NewManager(Config{Name: "test", Run: blockUntilCancelled})
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitForStatus(t, m, StatusRunning)

	cancel()
	waitForStatus(t, m, StatusStopped)
}

func TestManager_Callbacks(t *testing.T) {
	var onStart, onRestart atomic.Int32
	var starts atomic.Int32

	m := NewManager(Config{
		Name: "callbacks",
		Run: func(ctx context.Context) error {
			if starts.Add(1) == 1 {
				return errors.New("first run fails")
			}
			<-ctx.Done()
			return nil
		},
		RestartOnFailure: true,
		RestartDelay:     time.Millisecond,
		OnStart:          func() { onStart.Add(1) },
		OnRestart:        func(int) { onRestart.Add(1) },
	})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && onStart.Load() < 2 {
		time.Sleep(5 * time.Millisecond)
	}

	if onStart.Load() != 2 {
		t.Errorf("OnStart called %d times, want 2", onStart.Load())
	}
	if onRestart.Load() != 1 {
		t.Errorf("OnRestart called %d times, want 1", onRestart.Load())
	}

	if err := m.Stop(2 * time.Second); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("poller", blockUntilCancelled)

	if cfg.Name != "poller" {
		t.Errorf("Name = %q, want poller", cfg.Name)
	}
	if !cfg.RestartOnFailure {
		t.Error("RestartOnFailure should default to true")
	}
	if cfg.RestartDelay != 5*time.Second {
		t.Errorf("RestartDelay = %v, want 5s", cfg.RestartDelay)
	}
	if cfg.MaxRestartAttempts != 10 {
		t.Errorf("MaxRestartAttempts = %d, want 10", cfg.MaxRestartAttempts)
	}
}

func TestManager_StopWhenNeverStarted(t *testing.T) {
	m := NewManager(Config{Name: "test", Run: blockUntilCancelled})

	if err := m.Stop(time.Second); err != nil {
		t.Errorf("Stop() on a never-started manager should be a no-op, got %v", err)
	}
}
