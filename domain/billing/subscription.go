// Package billing provides subscription record and payment event value
// types. This package has NO dependencies on I/O or external packages.
package billing

import "time"

// Status is the derived state of a user's subscription.
type Status string

// Subscription states. ACTIVE is re-entrant: a renewal extends the
// expiry without changing state.
const (
	StatusNone    Status = "none"
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
)

// Record tracks a user's API key and its validity window.
// The key string is never cleared once issued; cancellation and
// payment failure only close the validity window (soft-expire).
type Record struct {
	UserID       string
	APIKey       string
	KeyExpiresAt *time.Time
	UpdatedAt    time.Time
}

// Status derives the subscription state at the given instant.
// KeyExpiresAt is only meaningful when APIKey is present.
func (r Record) Status(now time.Time) Status {
	if r.APIKey == "" {
		return StatusNone
	}
	if r.KeyExpiresAt == nil || !r.KeyExpiresAt.After(now) {
		return StatusExpired
	}
	return StatusActive
}

// WithExpiry returns a copy with the validity window set.
func (r Record) WithExpiry(at time.Time) Record {
	r.KeyExpiresAt = &at
	return r
}
