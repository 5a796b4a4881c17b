package adapters

import "errors"

var (
	// ErrClosed is returned when using an adapter after Close.
	ErrClosed = errors.New("adapters: adapter is closed")

	// ErrNoData is returned when a read finds nothing buffered. Only the
	// fake adapter reports it; network adapters block until their
	// deadline instead.
	ErrNoData = errors.New("adapters: no data available")

	// ErrScriptExhausted is returned by the protocol adapter when traffic
	// continues past the scripted exchanges.
	ErrScriptExhausted = errors.New("adapters: no scripted exchange left")

	// ErrScriptMismatch is returned by the protocol adapter when a
	// command deviates from the script.
	ErrScriptMismatch = errors.New("adapters: command does not match script")

	// ErrReplyTimeout is returned when a reply does not arrive within the
	// adapter's reply window.
	ErrReplyTimeout = errors.New("adapters: timed out waiting for reply")

	// ErrBadBinaryBlock is returned when a binary reply is not a valid
	// IEEE 488.2 definite-length block.
	ErrBadBinaryBlock = errors.New("adapters: malformed binary block")
)
