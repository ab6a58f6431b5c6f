package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/artpar/shopgate/ports"
)

func TestStripeCreateIntentRejectsNonPositiveAmounts(t *testing.T) {
	// No secret configured on purpose: the amount check must fire
	// before the configuration check and before any network call.
	g := NewStripeGateway(StripeConfig{})

	for _, amount := range []int64{0, -500} {
		_, err := g.CreateIntent(context.Background(), amount, ports.IntentMetadata{})
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("CreateIntent(%d) error = %v, want ErrInvalidAmount", amount, err)
		}
	}
}

func TestStripeCreateIntentRequiresSecret(t *testing.T) {
	g := NewStripeGateway(StripeConfig{})

	_, err := g.CreateIntent(context.Background(), 4500, ports.IntentMetadata{})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("CreateIntent() error = %v, want ErrNotConfigured", err)
	}
}

func TestStripeVerifyWebhookWithoutSecret(t *testing.T) {
	g := NewStripeGateway(StripeConfig{})
	if err := g.VerifyWebhook([]byte(`{}`), ""); err != nil {
		t.Errorf("VerifyWebhook() error = %v, want nil without a secret", err)
	}
}

func TestNoopRoundTrip(t *testing.T) {
	g := NewNoop()

	intent, err := g.CreateIntent(context.Background(), 4500, ports.IntentMetadata{UserID: "u1"})
	if err != nil {
		t.Fatalf("CreateIntent() error = %v", err)
	}
	if intent.ClientSecret == "" {
		t.Error("expected a client secret")
	}

	got, err := g.GetIntent(context.Background(), intent.ID)
	if err != nil {
		t.Fatalf("GetIntent() error = %v", err)
	}
	if got.AmountCents != 4500 {
		t.Errorf("AmountCents = %d, want 4500", got.AmountCents)
	}

	g.MarkSucceeded(intent.ID)
	got, _ = g.GetIntent(context.Background(), intent.ID)
	if got.Status != "succeeded" {
		t.Errorf("Status = %q, want succeeded", got.Status)
	}
}

func TestNoopUnknownIntent(t *testing.T) {
	g := NewNoop()
	_, err := g.GetIntent(context.Background(), "pi_missing")
	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Errorf("GetIntent() error = %v, want RejectedError", err)
	}
}
