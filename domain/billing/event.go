package billing

import (
	"encoding/json"
	"errors"
)

// EventType identifies a payment processor webhook event.
type EventType string

// Event types driving subscription state transitions. Anything else is
// acknowledged without side effects.
const (
	EventCheckoutCompleted   EventType = "checkout.session.completed"
	EventSubscriptionDeleted EventType = "customer.subscription.deleted"
	EventInvoiceFailed       EventType = "invoice.payment_failed"
)

// ErrMalformedEvent indicates a payload that could not be decoded as an
// event envelope. The webhook endpoint answers 400 for these; every
// decodable event is acknowledged with 200.
var ErrMalformedEvent = errors.New("malformed webhook event payload")

// Event is the parsed webhook envelope. UserID and ProductID come from
// the processor-side metadata the checkout attached to the intent.
type Event struct {
	ID        string
	Type      EventType
	UserID    string
	ProductID string
}

// Handled reports whether the event type drives a state transition.
func (e Event) Handled() bool {
	switch e.Type {
	case EventCheckoutCompleted, EventSubscriptionDeleted, EventInvoiceFailed:
		return true
	}
	return false
}

// eventEnvelope mirrors the processor's wire shape.
type eventEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			Metadata struct {
				UserID    string `json:"user_id"`
				ProductID string `json:"product_id"`
			} `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// ParseEvent decodes a webhook payload into an Event.
// Undecodable JSON returns ErrMalformedEvent; unknown event types parse
// fine and are simply not Handled.
func ParseEvent(payload []byte) (Event, error) {
	var env eventEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Event{}, ErrMalformedEvent
	}
	if env.Type == "" {
		return Event{}, ErrMalformedEvent
	}
	return Event{
		ID:        env.ID,
		Type:      EventType(env.Type),
		UserID:    env.Data.Object.Metadata.UserID,
		ProductID: env.Data.Object.Metadata.ProductID,
	}, nil
}
