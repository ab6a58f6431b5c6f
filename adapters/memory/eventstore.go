package memory

import (
	"context"
	"sync"
	"time"

	"github.com/artpar/shopgate/ports"
)

// ProcessedEventStore is an in-memory implementation of
// ports.ProcessedEventStore.
type ProcessedEventStore struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

// NewProcessedEventStore creates a new in-memory processed-event store.
func NewProcessedEventStore() *ProcessedEventStore {
	return &ProcessedEventStore{seen: make(map[string]time.Time)}
}

// Seen reports whether the event ID is recorded.
func (s *ProcessedEventStore) Seen(ctx context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.seen[eventID]
	return ok, nil
}

// Mark records the event ID as applied.
func (s *ProcessedEventStore) Mark(ctx context.Context, eventID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[eventID]; !ok {
		s.seen[eventID] = at
	}
	return nil
}

// Prune removes entries recorded before the cutoff.
func (s *ProcessedEventStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, at := range s.seen {
		if at.Before(before) {
			delete(s.seen, id)
			n++
		}
	}
	return n, nil
}

// Ensure interface compliance.
var _ ports.ProcessedEventStore = (*ProcessedEventStore)(nil)
