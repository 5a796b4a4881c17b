package poller

import (
	"context"
	"sync"
	"time"
)

// defaultInterval is used when a target does not set one.
const defaultInterval = time.Second

// PropertyReader is the slice of an instrument owner the poller needs.
// Satisfied by *instrument.Instrument and *instrument.Base.
type PropertyReader interface {
	Get(name string) (any, error)
}

// StatsWriter receives per-sweep counters. Satisfied by *influxdb.Client.
type StatsWriter interface {
	WritePollStats(instrumentID string, sampled, failed int, elapsed time.Duration)
}

// Logger is the logging interface the poller uses.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Target is one instrument to poll.
type Target struct {
	// InstrumentID identifies the instrument in logs and stats.
	InstrumentID string

	// Reader is the owner whose properties are sampled.
	Reader PropertyReader

	// Properties are the property names sampled each sweep.
	Properties []string

	// Interval is the time between sweeps. Defaults to one second.
	Interval time.Duration
}

// TargetStats are the running counters for one target.
type TargetStats struct {
	// Sweeps is the number of completed poll sweeps.
	Sweeps int64 `json:"sweeps"`

	// Sampled is the total number of successful property reads.
	Sampled int64 `json:"sampled"`

	// Failed is the total number of failed property reads.
	Failed int64 `json:"failed"`

	// LastSweep is when the most recent sweep finished (UTC).
	LastSweep time.Time `json:"last_sweep"`
}

// Poller runs one sampling loop per target.
type Poller struct {
	targets []Target
	logger  Logger
	stats   StatsWriter

	mu       sync.RWMutex
	counters map[string]TargetStats
}

// Option customises a Poller.
type Option func(*Poller)

// WithLogger sets the logger used for failed reads.
func WithLogger(logger Logger) Option {
	return func(p *Poller) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithStatsWriter forwards per-sweep counters to the time-series database.
func WithStatsWriter(stats StatsWriter) Option {
	return func(p *Poller) {
		p.stats = stats
	}
}

// New creates a Poller for the given targets.
func New(targets []Target, opts ...Option) *Poller {
	p := &Poller{
		targets:  targets,
		logger:   noopLogger{},
		counters: make(map[string]TargetStats, len(targets)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run starts one loop per target and blocks until the context is cancelled
// and every loop has exited.
func (p *Poller) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, target := range p.targets {
		if target.Reader == nil || len(target.Properties) == 0 {
			p.logger.Warn("skipping poll target with no reader or properties",
				"instrument", target.InstrumentID,
			)
			continue
		}
		wg.Add(1)
		go func(t Target) {
			defer wg.Done()
			p.loop(ctx, t)
		}(target)
	}
	wg.Wait()
}

// Stats returns a snapshot of the counters for every target.
func (p *Poller) Stats() map[string]TargetStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snapshot := make(map[string]TargetStats, len(p.counters))
	for id, stats := range p.counters {
		snapshot[id] = stats
	}
	return snapshot
}

func (p *Poller) loop(ctx context.Context, target Target) {
	interval := target.Interval
	if interval <= 0 {
		interval = defaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.logger.Info("poll loop started",
		"instrument", target.InstrumentID,
		"properties", len(target.Properties),
		"interval", interval,
	)

	// First sweep immediately so a long interval does not delay the
	// initial readings.
	p.sweep(target)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poll loop stopped", "instrument", target.InstrumentID)
			return
		case <-ticker.C:
			p.sweep(target)
		}
	}
}

func (p *Poller) sweep(target Target) {
	start := time.Now()
	sampled, failed := 0, 0

	for _, property := range target.Properties {
		if _, err := target.Reader.Get(property); err != nil {
			failed++
			p.logger.Warn("poll read failed",
				"instrument", target.InstrumentID,
				"property", property,
				"error", err,
			)
			continue
		}
		sampled++
	}

	elapsed := time.Since(start)

	p.mu.Lock()
	counters := p.counters[target.InstrumentID]
	counters.Sweeps++
	counters.Sampled += int64(sampled)
	counters.Failed += int64(failed)
	counters.LastSweep = time.Now().UTC()
	p.counters[target.InstrumentID] = counters
	p.mu.Unlock()

	if p.stats != nil {
		p.stats.WritePollStats(target.InstrumentID, sampled, failed, elapsed)
	}
}
