package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/artpar/shopgate/ports"
)

// Noop is a payment gateway that accepts everything without calling
// out. Useful for development and tests.
type Noop struct {
	mu      sync.Mutex
	counter int
	intents map[string]ports.Intent
}

// NewNoop creates a noop payment gateway.
func NewNoop() *Noop {
	return &Noop{intents: make(map[string]ports.Intent)}
}

// CreateIntent returns a deterministic fake intent.
func (n *Noop) CreateIntent(ctx context.Context, amountCents int64, meta ports.IntentMetadata) (ports.Intent, error) {
	if amountCents <= 0 {
		return ports.Intent{}, ErrInvalidAmount
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.counter++
	intent := ports.Intent{
		ID:           fmt.Sprintf("pi_noop_%d", n.counter),
		ClientSecret: fmt.Sprintf("pi_noop_%d_secret", n.counter),
		AmountCents:  amountCents,
		Status:       "requires_payment_method",
	}
	n.intents[intent.ID] = intent
	return intent, nil
}

// GetIntent retrieves a previously created fake intent.
func (n *Noop) GetIntent(ctx context.Context, id string) (ports.Intent, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	intent, ok := n.intents[id]
	if !ok {
		return ports.Intent{}, &RejectedError{Code: "resource_missing", Message: "no such payment_intent: " + id}
	}
	return intent, nil
}

// MarkSucceeded flips a fake intent to succeeded (for tests).
func (n *Noop) MarkSucceeded(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if intent, ok := n.intents[id]; ok {
		intent.Status = "succeeded"
		n.intents[id] = intent
	}
}

// VerifyWebhook accepts every payload.
func (n *Noop) VerifyWebhook(payload []byte, signature string) error {
	return nil
}

// Ensure interface compliance.
var _ ports.PaymentGateway = (*Noop)(nil)
