package process

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Status represents the current state of a managed component.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusFailed   Status = "failed"
)

// RunFunc is a long-running component. It should block until the context
// is cancelled, returning nil on clean shutdown and an error on failure.
type RunFunc func(ctx context.Context) error

// Config holds configuration for a managed component.
type Config struct {
	// Name is a human-readable identifier for logging.
	Name string

	// Run is the component body.
	Run RunFunc

	// RestartOnFailure enables automatic restart when Run returns an error.
	RestartOnFailure bool

	// RestartDelay is the time to wait before restarting after a failure.
	RestartDelay time.Duration

	// MaxRestartAttempts limits restart attempts. 0 means unlimited.
	MaxRestartAttempts int

	// OnStart is called each time the component starts.
	OnStart func()

	// OnStop is called when the component stops for good (cleanly or after
	// exhausting restarts).
	OnStop func(err error)

	// OnRestart is called before each restart attempt.
	OnRestart func(attempt int)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(name string, run RunFunc) Config {
	return Config{
		Name:               name,
		Run:                run,
		RestartOnFailure:   true,
		RestartDelay:       5 * time.Second,
		MaxRestartAttempts: 10,
	}
}

// Logger defines the logging interface for the manager.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Manager supervises the lifecycle of one long-running component, keeping
// it alive across failures per the restart policy.
type Manager struct {
	config Config
	logger Logger

	mu            sync.RWMutex
	status        Status
	restartCount  int
	lastError     error
	startTime     time.Time
	stopRequested bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a new manager with the given configuration.
func NewManager(cfg Config) *Manager {
	if cfg.RestartDelay == 0 {
		cfg.RestartDelay = 5 * time.Second
	}

	return &Manager{
		config: cfg,
		logger: noopLogger{},
		status: StatusStopped,
	}
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) {
	if logger != nil {
		m.logger = logger
	}
}

// Start launches the component and begins supervising it.
// The component is restarted on failure if configured.
func (m *Manager) Start(ctx context.Context) error {
	if m.config.Run == nil {
		return fmt.Errorf("component %s has no run function", m.config.Name)
	}

	m.mu.Lock()
	if m.status == StatusRunning || m.status == StatusStarting {
		m.mu.Unlock()
		return fmt.Errorf("component %s is already running", m.config.Name)
	}
	m.status = StatusStarting
	m.stopRequested = false
	m.restartCount = 0
	m.done = make(chan struct{})
	m.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()

	go m.supervise(runCtx)

	return nil
}

// supervise runs the component, restarting per policy until it stops
// cleanly or restarts are exhausted.
func (m *Manager) supervise(ctx context.Context) {
	defer close(m.done)

	for {
		m.mu.Lock()
		m.status = StatusRunning
		m.startTime = time.Now()
		m.mu.Unlock()

		m.logger.Info("component started", "name", m.config.Name)
		if m.config.OnStart != nil {
			m.config.OnStart()
		}

		err := m.config.Run(ctx)

		// Clean shutdown: context cancelled or Stop() requested.
		if ctx.Err() != nil || m.isStopRequested() {
			m.mu.Lock()
			m.status = StatusStopped
			m.mu.Unlock()
			m.logger.Info("component stopped", "name", m.config.Name)
			if m.config.OnStop != nil {
				m.config.OnStop(nil)
			}
			return
		}

		if err == nil {
			err = fmt.Errorf("component %s exited unexpectedly", m.config.Name)
		}

		m.mu.Lock()
		m.status = StatusFailed
		m.lastError = err
		attempt := m.restartCount + 1
		m.mu.Unlock()

		m.logger.Error("component failed",
			"name", m.config.Name,
			"error", err,
		)

		if !m.config.RestartOnFailure {
			if m.config.OnStop != nil {
				m.config.OnStop(err)
			}
			return
		}
		if m.config.MaxRestartAttempts > 0 && attempt > m.config.MaxRestartAttempts {
			m.logger.Error("restart attempts exhausted",
				"name", m.config.Name,
				"attempts", m.config.MaxRestartAttempts,
			)
			if m.config.OnStop != nil {
				m.config.OnStop(err)
			}
			return
		}

		m.logger.Info("restarting component",
			"name", m.config.Name,
			"attempt", attempt,
			"delay", m.config.RestartDelay,
		)
		if m.config.OnRestart != nil {
			m.config.OnRestart(attempt)
		}

		select {
		case <-ctx.Done():
			m.mu.Lock()
			m.status = StatusStopped
			m.mu.Unlock()
			if m.config.OnStop != nil {
				m.config.OnStop(nil)
			}
			return
		case <-time.After(m.config.RestartDelay):
		}

		m.mu.Lock()
		m.restartCount++
		m.mu.Unlock()
	}
}

// Stop shuts the component down and waits for it to exit.
func (m *Manager) Stop(timeout time.Duration) error {
	m.mu.Lock()
	if m.status == StatusStopped || m.done == nil {
		m.mu.Unlock()
		return nil
	}
	m.stopRequested = true
	cancel := m.cancel
	done := m.done
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("component %s did not stop within %s", m.config.Name, timeout)
	}
}

// Status returns the component's current state.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// LastError returns the most recent failure, nil if none.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastError
}

// RestartCount returns the number of restarts performed.
func (m *Manager) RestartCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.restartCount
}

// Uptime returns how long the current incarnation has been running,
// zero when not running.
func (m *Manager) Uptime() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.status != StatusRunning {
		return 0
	}
	return time.Since(m.startTime)
}

func (m *Manager) isStopRequested() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stopRequested
}
