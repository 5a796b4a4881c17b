package recorder

import "errors"

// Domain errors for the recorder package.
var (
	// ErrEmptySession is returned when a session identifier is missing.
	ErrEmptySession = errors.New("recorder: session id is required")

	// ErrEmptyInstrument is returned when an instrument identifier is missing.
	ErrEmptyInstrument = errors.New("recorder: instrument id is required")

	// ErrUnknownSession is returned when ending a session that was never started.
	ErrUnknownSession = errors.New("recorder: unknown session")
)
