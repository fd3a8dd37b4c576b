package tracker

import (
	"context"
	"time"
)

// Payment states reported by the gateway callback.
const (
	StatePending   = "pending"
	StateSuccess   = "success"
	StateCancelled = "cancelled"
	StateFailed    = "failed"
)

// Entry records the last known state of one STK push attempt.
type Entry struct {
	State       string    `json:"state"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Tracker maps a CheckoutRequestID to its payment status entry. Set inserts
// or overwrites, always stamping the current time; last write wins per key.
// Entries live until Remove is called. The tracker is diagnostic state, not
// the source of truth for a loan's status.
type Tracker interface {
	Set(ctx context.Context, checkoutRequestID, state, description string) error
	Get(ctx context.Context, checkoutRequestID string) (Entry, bool)
	Remove(ctx context.Context, checkoutRequestID string) error
}
