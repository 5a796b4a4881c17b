package instrument

import (
	"fmt"
	"sort"
	"sync"
)

// Entry is one registered instrument with its bench metadata.
type Entry struct {
	// ID is the unique bench identifier, e.g. "dmm-1".
	ID string

	// Owner is the instrument itself.
	Owner *Instrument

	// AdapterKind names the transport, e.g. "tcp" or "mqtt".
	AdapterKind string
}

// Registry holds the instruments on a bench, keyed by ID.
//
// All public methods are thread-safe.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	logger  Logger
}

// NewRegistry creates an empty instrument registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// Add registers an instrument. Returns ErrDuplicateInstrument when the ID
// is already taken.
func (r *Registry) Add(entry *Entry) error {
	if entry == nil || entry.ID == "" || entry.Owner == nil {
		return fmt.Errorf("%w: entry needs an id and an owner", ErrInvalidEntry)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[entry.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateInstrument, entry.ID)
	}
	r.entries[entry.ID] = entry

	r.logger.Info("instrument registered",
		"id", entry.ID,
		"name", entry.Owner.Name(),
		"adapter", entry.AdapterKind,
	)
	return nil
}

// Get returns the entry for an ID, or ErrUnknownInstrument.
func (r *Registry) Get(id string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownInstrument, id)
	}
	return entry, nil
}

// List returns every entry sorted by ID.
func (r *Registry) List() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]*Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ID < entries[j].ID
	})
	return entries
}

// Remove unregisters an instrument.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownInstrument, id)
	}
	delete(r.entries, id)
	return nil
}

// Count returns the number of registered instruments.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
