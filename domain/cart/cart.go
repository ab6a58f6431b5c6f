// Package cart provides the session-scoped shopping cart value type.
// This package has NO dependencies on I/O or external packages.
package cart

// Line is one cart entry: a product and its quantity.
type Line struct {
	ProductID string
	Quantity  int
}

// Cart maps products to quantities, preserving first-add order.
// It is an explicit value object owned by a session; mutations never
// touch shared state. Quantities are always >= 1: the cart clamps at
// its own boundary rather than trusting callers.
type Cart struct {
	lines []Line
}

// New creates an empty cart.
func New() *Cart {
	return &Cart{}
}

// FromLines restores a cart from persisted lines, preserving order.
// Lines with non-positive quantities are clamped to 1.
func FromLines(lines []Line) *Cart {
	c := New()
	for _, l := range lines {
		if l.Quantity < 1 {
			l.Quantity = 1
		}
		c.lines = append(c.lines, l)
	}
	return c
}

// AddItem increments the quantity for productID by one, initializing
// to 1 if absent. It returns the new total item count. Product
// existence is not validated here; checkout validates against the
// catalog.
func (c *Cart) AddItem(productID string) int {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines[i].Quantity++
			return c.ItemCount()
		}
	}
	c.lines = append(c.lines, Line{ProductID: productID, Quantity: 1})
	return c.ItemCount()
}

// SetQuantity sets the quantity for productID directly, creating the
// line if absent. Quantities below 1 are clamped to 1.
func (c *Cart) SetQuantity(productID string, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines[i].Quantity = quantity
			return
		}
	}
	c.lines = append(c.lines, Line{ProductID: productID, Quantity: quantity})
}

// Quantity returns the quantity for productID, zero if absent.
func (c *Cart) Quantity(productID string) int {
	for _, l := range c.lines {
		if l.ProductID == productID {
			return l.Quantity
		}
	}
	return 0
}

// Lines returns the cart lines in first-add order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// ItemCount returns the sum of quantities across all lines.
func (c *Cart) ItemCount() int {
	var n int
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}
