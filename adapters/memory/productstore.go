// Package memory provides in-memory store implementations for testing
// and single-process development mode.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/artpar/shopgate/domain/catalog"
	"github.com/artpar/shopgate/ports"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ProductStore is an in-memory implementation of ports.ProductStore.
type ProductStore struct {
	mu       sync.RWMutex
	products map[string]catalog.Product
}

// NewProductStore creates a new in-memory product store.
func NewProductStore() *ProductStore {
	return &ProductStore{products: make(map[string]catalog.Product)}
}

// Get retrieves a product by ID.
func (s *ProductStore) Get(ctx context.Context, id string) (catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return catalog.Product{}, ErrNotFound
	}
	return p, nil
}

// List returns all products ordered by ID.
func (s *ProductStore) List(ctx context.Context) ([]catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]catalog.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Create stores a new product.
func (s *ProductStore) Create(ctx context.Context, p catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products[p.ID] = p
	return nil
}

// Ensure interface compliance.
var _ ports.ProductStore = (*ProductStore)(nil)
