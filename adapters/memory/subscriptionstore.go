package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/artpar/shopgate/domain/billing"
	"github.com/artpar/shopgate/ports"
)

// SubscriptionStore is an in-memory implementation of
// ports.SubscriptionStore.
type SubscriptionStore struct {
	mu      sync.RWMutex
	records map[string]billing.Record
}

// NewSubscriptionStore creates a new in-memory subscription store.
func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{records: make(map[string]billing.Record)}
}

// Get retrieves the record for a user. Users without a key have a zero
// record, not an error.
func (s *SubscriptionStore) Get(ctx context.Context, userID string) (billing.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[userID]
	if !ok {
		return billing.Record{UserID: userID}, nil
	}
	return rec, nil
}

// Put stores the record for a user.
func (s *SubscriptionStore) Put(ctx context.Context, rec billing.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.UserID] = rec
	return nil
}

// ListWithExpiry returns all records that track an expiry.
func (s *SubscriptionStore) ListWithExpiry(ctx context.Context) ([]billing.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []billing.Record
	for _, rec := range s.records {
		if rec.KeyExpiresAt != nil {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// Ensure interface compliance.
var _ ports.SubscriptionStore = (*SubscriptionStore)(nil)
