package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/artpar/shopgate/ports"
)

// OutboxStore is an in-memory implementation of ports.OutboxStore.
type OutboxStore struct {
	mu  sync.Mutex
	ops map[string]ports.KeyOp
}

// NewOutboxStore creates a new in-memory outbox store.
func NewOutboxStore() *OutboxStore {
	return &OutboxStore{ops: make(map[string]ports.KeyOp)}
}

// Enqueue stores a pending operation, replacing any older pending
// operation for the same user.
func (s *OutboxStore) Enqueue(ctx context.Context, op ports.KeyOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.ops {
		if existing.UserID == op.UserID {
			delete(s.ops, id)
		}
	}
	s.ops[op.ID] = op
	return nil
}

// Due returns operations whose NextTry is at or before now.
func (s *OutboxStore) Due(ctx context.Context, now time.Time, limit int) ([]ports.KeyOp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []ports.KeyOp
	for _, op := range s.ops {
		if !op.NextTry.After(now) {
			out = append(out, op)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextTry.Before(out[j].NextTry) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Update rewrites an operation.
func (s *OutboxStore) Update(ctx context.Context, op ports.KeyOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ops[op.ID]; !ok {
		return ErrNotFound
	}
	s.ops[op.ID] = op
	return nil
}

// Delete removes a completed operation.
func (s *OutboxStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.ops, id)
	return nil
}

// DeleteForUser removes all pending operations for a user.
func (s *OutboxStore) DeleteForUser(ctx context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, op := range s.ops {
		if op.UserID == userID {
			delete(s.ops, id)
			n++
		}
	}
	return n, nil
}

// Pending returns the number of stored operations (for testing).
func (s *OutboxStore) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ops)
}

// Ensure interface compliance.
var _ ports.OutboxStore = (*OutboxStore)(nil)
