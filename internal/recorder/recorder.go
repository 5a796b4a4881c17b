package recorder

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/calder-instruments/bench-core/internal/instrument"
)

// Reading is one recorded property access.
type Reading struct {
	// ID is the auto-incremented primary key, set when loaded from storage.
	ID int64 `json:"id,omitempty"`

	// SessionID groups readings taken during one daemon run.
	SessionID string `json:"session_id"`

	// InstrumentID identifies the instrument the reading came from.
	InstrumentID string `json:"instrument_id"`

	// Property is the property name that was read or written.
	Property string `json:"property"`

	// Op is the access direction, "get" or "set".
	Op string `json:"op"`

	// Value is the display rendering of the value.
	Value string `json:"value"`

	// Numeric carries the value as a float when it has one, nil otherwise.
	Numeric *float64 `json:"numeric,omitempty"`

	// RecordedAt is the capture timestamp (UTC).
	RecordedAt time.Time `json:"recorded_at"`
}

// Sink receives recorded readings. Implementations must be safe for
// concurrent use.
type Sink interface {
	Record(ctx context.Context, reading Reading) error
}

// Logger is the logging interface the recorder uses.
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

// Recorder stamps readings with the current session and fans them out to
// the configured sinks.
type Recorder struct {
	sessionID string
	benchID   string
	sinks     []Sink
	logger    Logger
}

// Option customises a Recorder.
type Option func(*Recorder)

// WithLogger sets the logger used for sink failures.
func WithLogger(logger Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithSessionID pins the session UUID instead of generating one. Used when
// resuming a session across restarts.
func WithSessionID(id string) Option {
	return func(r *Recorder) {
		if id != "" {
			r.sessionID = id
		}
	}
}

// New creates a Recorder with a fresh session UUID.
func New(benchID string, sinks []Sink, opts ...Option) *Recorder {
	r := &Recorder{
		sessionID: uuid.NewString(),
		benchID:   benchID,
		sinks:     sinks,
		logger:    noopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SessionID returns the UUID stamped on every reading this Recorder emits.
func (r *Recorder) SessionID() string {
	return r.sessionID
}

// BenchID returns the bench identifier the session belongs to.
func (r *Recorder) BenchID() string {
	return r.benchID
}

// Record stamps the reading with the session and current time where missing,
// then delivers it to every sink. A failing sink is logged and skipped so
// one slow or broken backend never loses readings for the others.
func (r *Recorder) Record(ctx context.Context, reading Reading) {
	if reading.SessionID == "" {
		reading.SessionID = r.sessionID
	}
	if reading.RecordedAt.IsZero() {
		reading.RecordedAt = time.Now().UTC()
	}

	for _, sink := range r.sinks {
		if err := sink.Record(ctx, reading); err != nil {
			r.logger.Error("recording reading",
				"instrument", reading.InstrumentID,
				"property", reading.Property,
				"error", err,
			)
		}
	}
}

// Observe returns a hook for instrument.Base.SetObserver that records every
// successful property access on the named instrument.
func (r *Recorder) Observe(instrumentID string) instrument.Observer {
	return func(op instrument.AccessOp, property string, value any) {
		display, numeric := renderValue(value)
		r.Record(context.Background(), Reading{
			InstrumentID: instrumentID,
			Property:     property,
			Op:           string(op),
			Value:        display,
			Numeric:      numeric,
		})
	}
}

// renderValue produces the display string for a value plus its float
// rendering when the value is numeric.
func renderValue(value any) (string, *float64) {
	switch v := value.(type) {
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), ptr(v)
	case float32:
		f := float64(v)
		return strconv.FormatFloat(f, 'g', -1, 64), ptr(f)
	case int:
		return strconv.Itoa(v), ptr(float64(v))
	case int64:
		return strconv.FormatInt(v, 10), ptr(float64(v))
	case bool:
		if v {
			return "true", ptr(1)
		}
		return "false", ptr(0)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return v, ptr(f)
		}
		return v, nil
	default:
		return fmt.Sprint(value), nil
	}
}

func ptr(f float64) *float64 {
	return &f
}
