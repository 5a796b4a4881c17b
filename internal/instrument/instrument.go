package instrument

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// maxErrorDrain bounds the SYST:ERR? loop so a device that never reports
// an empty queue cannot hang an access.
const maxErrorDrain = 10

// Instrument is the top-level owner: an adapter connection plus the common
// property machinery. Device packages embed it and register their
// properties and channel declarations in their constructor.
type Instrument struct {
	Base

	name string
	scpi bool
}

// InstrumentOption configures a new instrument.
type InstrumentOption func(*Instrument)

// WithSCPI controls whether the common SCPI properties (id, status,
// complete, options) and commands (reset, clear) are registered. Enabled
// by default; pass WithSCPI(false) for devices with a bare command set.
func WithSCPI(enabled bool) InstrumentOption {
	return func(i *Instrument) {
		i.scpi = enabled
	}
}

// WithQueryDelay sets the pause between a query write and its read.
func WithQueryDelay(d time.Duration) InstrumentOption {
	return func(i *Instrument) {
		i.queryDelay = d
	}
}

// WithLogger sets the instrument's logger.
func WithLogger(logger Logger) InstrumentOption {
	return func(i *Instrument) {
		i.logger = logger
	}
}

// New builds an instrument over a connection. The connection is usually an
// adapter from the adapters package.
func New(conn Connection, name string, opts ...InstrumentOption) *Instrument {
	i := &Instrument{
		Base: newBase(),
		name: name,
		scpi: true,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.conn = conn
	i.self = &i.Base
	if i.scpi {
		i.registerSCPI()
	}
	return i
}

// Name returns the instrument's display name.
func (i *Instrument) Name() string {
	return i.name
}

// ID is shared with channels through the Child interface; the top-level
// owner has no channel id.
func (i *Instrument) ID() string {
	return ""
}

func (i *Instrument) registerSCPI() {
	i.AddProperty("id", Measurement("*IDN?",
		"Get the identification of the instrument.",
		WithCast(CastString),
		WithSeparator("\x00"),
	))
	i.AddProperty("status", Measurement("*STB?",
		"Get the status byte as an integer.",
		WithCast(CastInt),
	))
	i.AddProperty("complete", Measurement("*OPC?",
		"Get the synchronization bit, 1 once pending operations finish.",
		WithCast(CastInt),
	))
	i.AddProperty("options", Measurement("*OPT?",
		"Get the device options installed.",
		WithCast(CastString),
	))
	i.SetErrorChecker(func() error { return i.CheckErrors() })
}

// Reset sends *RST to return the device to its power-on defaults.
func (i *Instrument) Reset() error {
	return i.Write("*RST")
}

// Clear sends *CLS to clear the device status registers and error queue.
func (i *Instrument) Clear() error {
	return i.Write("*CLS")
}

// CheckErrors drains the device error queue and joins everything found
// into one error. A healthy queue answers code zero and CheckErrors
// returns nil.
func (i *Instrument) CheckErrors() error {
	var errs []error
	for n := 0; n < maxErrorDrain; n++ {
		reply, err := i.Ask("SYST:ERR?")
		if err != nil {
			errs = append(errs, err)
			break
		}
		code, message := splitDeviceError(reply)
		if code == 0 {
			break
		}
		i.logger.Warn("device error", "instrument", i.name, "code", code, "message", message)
		errs = append(errs, fmt.Errorf("device error %d: %s", code, message))
	}
	return errors.Join(errs...)
}

// splitDeviceError parses a SYST:ERR? reply of the form `-113,"Undefined
// header"`. Unparseable replies report code -1 with the raw text.
func splitDeviceError(reply string) (int, string) {
	code, rest, found := strings.Cut(strings.TrimSpace(reply), ",")
	n, err := CastInt(code)
	if err != nil {
		return -1, reply
	}
	message := strings.Trim(rest, `" `)
	if !found {
		message = ""
	}
	return n.(int), message
}
