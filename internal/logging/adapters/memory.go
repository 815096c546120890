package adapters

import (
	"sync"

	"ats-aggregator/internal/logging/types"
)

// MemoryAdapter keeps the most recent entries in a ring.
type MemoryAdapter struct {
	name     string
	capacity int
	entries  []types.LogEntry
	next     int
	full     bool
	mu       sync.Mutex
}

// NewMemoryAdapter creates a ring holding up to capacity entries
func NewMemoryAdapter(name string, capacity int) *MemoryAdapter {
	if capacity <= 0 {
		capacity = 256
	}
	return &MemoryAdapter{
		name:     name,
		capacity: capacity,
		entries:  make([]types.LogEntry, capacity),
	}
}

func (a *MemoryAdapter) Write(entry *types.LogEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.entries[a.next] = *entry
	a.next = (a.next + 1) % a.capacity
	if a.next == 0 {
		a.full = true
	}
	return nil
}

// Entries returns the retained entries, oldest first
func (a *MemoryAdapter) Entries() []types.LogEntry {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.full {
		return append([]types.LogEntry(nil), a.entries[:a.next]...)
	}
	out := make([]types.LogEntry, 0, a.capacity)
	out = append(out, a.entries[a.next:]...)
	return append(out, a.entries[:a.next]...)
}

// Find returns the retained entries with the given message
func (a *MemoryAdapter) Find(message string) []types.LogEntry {
	var out []types.LogEntry
	for _, e := range a.Entries() {
		if e.Message == message {
			out = append(out, e)
		}
	}
	return out
}

func (a *MemoryAdapter) Close() error { return nil }

func (a *MemoryAdapter) Name() string { return a.name }
