package adapters

import (
	"fmt"
	"sync"
)

// Exchange is one scripted step of a protocol test: the command the device
// expects and, for queries, the reply it gives. Binary holds a scripted
// binary-block reply instead of text.
type Exchange struct {
	Command  string
	Reply    string
	HasReply bool
	Binary   []float64
}

// Q scripts a query: a command followed by its reply.
func Q(command, reply string) Exchange {
	return Exchange{Command: command, Reply: reply, HasReply: true}
}

// W scripts a bare write with no reply.
func W(command string) Exchange {
	return Exchange{Command: command}
}

// B scripts a binary query answered with float samples.
func B(command string, samples ...float64) Exchange {
	return Exchange{Command: command, Binary: samples, HasReply: true}
}

// Protocol is a record/replay adapter for device package tests. It verifies
// that the traffic an owner produces matches a script exactly, without any
// device or network.
//
// Typical use:
//
//	adapter := adapters.NewProtocol(
//	    adapters.W("*RST"),
//	    adapters.Q("VOLT?", "1.5"),
//	)
//	...
//	if err := adapter.Complete(); err != nil { ... }
type Protocol struct {
	mu    sync.Mutex
	steps []Exchange
	pos   int
}

// NewProtocol builds a scripted adapter from ordered exchanges.
func NewProtocol(steps ...Exchange) *Protocol {
	return &Protocol{steps: steps}
}

// Write verifies the command against the current scripted exchange.
func (p *Protocol) Write(command string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pos >= len(p.steps) {
		return fmt.Errorf("%w: unexpected write %q", ErrScriptExhausted, command)
	}
	step := p.steps[p.pos]
	if command != step.Command {
		return fmt.Errorf("%w: got %q, want %q", ErrScriptMismatch, command, step.Command)
	}
	if !step.HasReply {
		p.pos++
	}
	return nil
}

// Read returns the scripted reply for the exchange opened by the last
// Write.
func (p *Protocol) Read() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pos >= len(p.steps) || !p.steps[p.pos].HasReply {
		return "", fmt.Errorf("%w: unexpected read", ErrScriptExhausted)
	}
	step := p.steps[p.pos]
	p.pos++
	if step.Binary != nil {
		return string(encodeBinaryBlock(step.Binary)), nil
	}
	return step.Reply, nil
}

// ReadBinaryValues answers a binary query from the script.
func (p *Protocol) ReadBinaryValues(command string) ([]float64, error) {
	if err := p.Write(command); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pos >= len(p.steps) || !p.steps[p.pos].HasReply {
		return nil, fmt.Errorf("%w: unexpected binary read", ErrScriptExhausted)
	}
	step := p.steps[p.pos]
	p.pos++
	if step.Binary == nil {
		return nil, fmt.Errorf("%w: exchange %q has no binary reply", ErrScriptMismatch, command)
	}
	return append([]float64(nil), step.Binary...), nil
}

// Complete reports whether the whole script was consumed. Tests call it
// before finishing to catch missing traffic.
func (p *Protocol) Complete() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pos != len(p.steps) {
		return fmt.Errorf("%w: %d of %d exchanges consumed",
			ErrScriptMismatch, p.pos, len(p.steps))
	}
	return nil
}

// Close is a no-op; the script keeps its state for Complete.
func (p *Protocol) Close() error {
	return nil
}
