package memory

import (
	"context"
	"sync"

	"github.com/artpar/shopgate/domain/cart"
	"github.com/artpar/shopgate/ports"
)

// CartStore is an in-memory implementation of ports.CartStore.
type CartStore struct {
	mu    sync.RWMutex
	carts map[string][]cart.Line
}

// NewCartStore creates a new in-memory cart store.
func NewCartStore() *CartStore {
	return &CartStore{carts: make(map[string][]cart.Line)}
}

// Get retrieves the cart lines for a session, empty if absent.
func (s *CartStore) Get(ctx context.Context, sessionID string) ([]cart.Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := s.carts[sessionID]
	out := make([]cart.Line, len(lines))
	copy(out, lines)
	return out, nil
}

// Put stores the cart lines for a session.
func (s *CartStore) Put(ctx context.Context, sessionID string, lines []cart.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]cart.Line, len(lines))
	copy(stored, lines)
	s.carts[sessionID] = stored
	return nil
}

// Delete removes a session's cart.
func (s *CartStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, sessionID)
	return nil
}

// Ensure interface compliance.
var _ ports.CartStore = (*CartStore)(nil)
