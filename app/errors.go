// Package app contains application services orchestrating the checkout
// and subscription pipeline. All business logic is pure - I/O happens at
// the edges via injected stores.
package app

import (
	"errors"
	"fmt"
)

// ErrEmptyCart is returned when checkout is attempted with no cart lines.
var ErrEmptyCart = errors.New("cart is empty")

// ErrMissingCustomerInfo is returned when a guest checkout lacks a
// usable name or email.
var ErrMissingCustomerInfo = errors.New("customer name and email are required")

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = errors.New("not found")

// ProvisioningError wraps a failure to create or sign in the customer
// account during checkout.
type ProvisioningError struct {
	Email string
	Err   error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provision account for %s: %v", e.Email, e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }
