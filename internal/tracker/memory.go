package tracker

import (
	"context"
	"sync"
	"time"
)

// MemoryTracker keeps payment status entries in a process-lifetime map.
// There is no eviction; entries are removed only when their loan is deleted.
type MemoryTracker struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{
		entries: make(map[string]Entry),
	}
}

func (t *MemoryTracker) Set(ctx context.Context, checkoutRequestID, state, description string) error {
	t.mu.Lock()
	t.entries[checkoutRequestID] = Entry{
		State:       state,
		Description: description,
		UpdatedAt:   time.Now(),
	}
	t.mu.Unlock()
	return nil
}

func (t *MemoryTracker) Get(ctx context.Context, checkoutRequestID string) (Entry, bool) {
	t.mu.RLock()
	entry, ok := t.entries[checkoutRequestID]
	t.mu.RUnlock()
	return entry, ok
}

func (t *MemoryTracker) Remove(ctx context.Context, checkoutRequestID string) error {
	t.mu.Lock()
	delete(t.entries, checkoutRequestID)
	t.mu.Unlock()
	return nil
}
