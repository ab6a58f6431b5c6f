// Package payment provides payment gateway adapters.
package payment

import (
	"errors"
	"fmt"
)

// Currency is fixed; the storefront charges in US dollars only.
const Currency = "usd"

// ErrInvalidAmount indicates a non-positive charge amount. Checked
// before any network call.
var ErrInvalidAmount = errors.New("payment amount must be positive")

// ErrNotConfigured indicates a missing processor secret credential.
var ErrNotConfigured = errors.New("payment gateway not configured")

// TransportError wraps a network-level failure reaching the processor.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("payment gateway transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RejectedError carries a processor-reported error verbatim for
// operator diagnosis.
type RejectedError struct {
	Code    string
	Message string
}

func (e *RejectedError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("payment gateway rejected request (%s): %s", e.Code, e.Message)
	}
	return "payment gateway rejected request: " + e.Message
}
