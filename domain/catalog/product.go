// Package catalog provides product and category value types.
// This package has NO dependencies on I/O or external packages.
package catalog

import "time"

// Interval is the billing interval of a subscription product.
type Interval string

// Supported billing intervals.
const (
	IntervalMonthly Interval = "monthly"
	IntervalYearly  Interval = "yearly"
)

// Valid reports whether the interval is a known value.
func (i Interval) Valid() bool {
	return i == IntervalMonthly || i == IntervalYearly
}

// NextExpiry returns the subscription expiry computed from now.
// Monthly adds one calendar month, yearly one calendar year.
func (i Interval) NextExpiry(now time.Time) time.Time {
	if i == IntervalYearly {
		return now.AddDate(1, 0, 0)
	}
	return now.AddDate(0, 1, 0)
}

// DefaultRole is granted to subscribers when a product specifies none.
const DefaultRole = "subscriber"

// Product represents a catalog product (immutable value type).
// All money amounts are integer minor units (cents).
type Product struct {
	ID                     string
	Name                   string
	Description            string
	PriceCents             int64
	Digital                bool
	Subscription           bool
	SubscriptionInterval   Interval
	SubscriptionPriceCents int64
	SubscriptionRole       string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Role returns the role granted on subscription, defaulting to
// DefaultRole when the product specifies none.
func (p Product) Role() string {
	if p.SubscriptionRole == "" {
		return DefaultRole
	}
	return p.SubscriptionRole
}

// Category groups products. Products and categories are many-to-many.
type Category struct {
	ID   string
	Name string
}
