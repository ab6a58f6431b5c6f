package app

import (
	"context"

	"github.com/artpar/shopgate/adapters/metrics"
	"github.com/artpar/shopgate/domain/cart"
	"github.com/artpar/shopgate/ports"
	"github.com/rs/zerolog"
)

// CartService manages per-session carts and their derived totals.
// Prices are looked up live from the catalog at computation time;
// nothing is snapshotted into the cart.
type CartService struct {
	carts    ports.CartStore
	products ports.ProductStore
	metrics  *metrics.Collector
	logger   zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(
	carts ports.CartStore,
	products ports.ProductStore,
	collector *metrics.Collector,
	logger zerolog.Logger,
) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		metrics:  collector,
		logger:   logger,
	}
}

// AddItem increments the quantity for productID by one and returns the
// new total item count. Unknown product IDs are accepted here; checkout
// validates against the catalog.
func (s *CartService) AddItem(ctx context.Context, sessionID, productID string) (int, error) {
	lines, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	c := cart.FromLines(lines)
	count := c.AddItem(productID)

	if err := s.carts.Put(ctx, sessionID, c.Lines()); err != nil {
		return 0, err
	}
	if s.metrics != nil {
		s.metrics.CartMutations.WithLabelValues("add").Inc()
	}
	s.logger.Debug().
		Str("session_id", sessionID).
		Str("product_id", productID).
		Int("item_count", count).
		Msg("cart item added")
	return count, nil
}

// Totals is the money view of a cart after a quantity change.
// All amounts are integer minor units.
type Totals struct {
	ProductSubtotalCents int64
	TotalCents           int64
}

// SetQuantity sets the quantity for productID (clamped to at least 1)
// and returns the line subtotal and the cart total, priced from the
// current catalog.
func (s *CartService) SetQuantity(ctx context.Context, sessionID, productID string, quantity int) (Totals, error) {
	lines, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return Totals{}, err
	}
	c := cart.FromLines(lines)
	c.SetQuantity(productID, quantity)

	if err := s.carts.Put(ctx, sessionID, c.Lines()); err != nil {
		return Totals{}, err
	}
	if s.metrics != nil {
		s.metrics.CartMutations.WithLabelValues("set_quantity").Inc()
	}

	total, err := s.Total(ctx, sessionID)
	if err != nil {
		return Totals{}, err
	}
	subtotal, err := s.Subtotal(ctx, sessionID, productID)
	if err != nil {
		return Totals{}, err
	}
	return Totals{ProductSubtotalCents: subtotal, TotalCents: total}, nil
}

// Subtotal returns price x quantity for one line, using the current
// catalog price. Lines whose product no longer exists contribute zero.
func (s *CartService) Subtotal(ctx context.Context, sessionID, productID string) (int64, error) {
	lines, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	c := cart.FromLines(lines)
	qty := c.Quantity(productID)
	if qty == 0 {
		return 0, nil
	}
	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return 0, nil
	}
	return p.PriceCents * int64(qty), nil
}

// Total returns the sum of line subtotals using current catalog prices.
func (s *CartService) Total(ctx context.Context, sessionID string) (int64, error) {
	lines, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, line := range lines {
		p, err := s.products.Get(ctx, line.ProductID)
		if err != nil {
			continue
		}
		total += p.PriceCents * int64(line.Quantity)
	}
	return total, nil
}

// Lines returns the current cart lines for a session.
func (s *CartService) Lines(ctx context.Context, sessionID string) ([]cart.Line, error) {
	return s.carts.Get(ctx, sessionID)
}

// Clear removes the session's cart, typically after a finalized payment.
func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	if s.metrics != nil {
		s.metrics.CartMutations.WithLabelValues("clear").Inc()
	}
	return s.carts.Delete(ctx, sessionID)
}
