package adapters

import "sync"

// Fake is a loopback adapter: every written command is buffered and read
// back verbatim. Owners under test see their own formatted commands as
// replies, which makes set/get round trips self-checking.
type Fake struct {
	mu     sync.Mutex
	buffer []string
	closed bool
}

// NewFake builds an empty loopback adapter.
func NewFake() *Fake {
	return &Fake{}
}

// Write buffers the command for the next Read.
func (f *Fake) Write(command string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	f.buffer = append(f.buffer, command)
	return nil
}

// Read drains the oldest buffered command.
func (f *Fake) Read() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return "", ErrClosed
	}
	if len(f.buffer) == 0 {
		return "", ErrNoData
	}
	reply := f.buffer[0]
	f.buffer = f.buffer[1:]
	return reply, nil
}

// Pending reports how many written commands await a Read.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.buffer)
}

// Close marks the adapter closed; further traffic fails with ErrClosed.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
