package payment

import (
	"context"
	"errors"

	"github.com/artpar/shopgate/ports"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeConfig holds Stripe configuration.
type StripeConfig struct {
	SecretKey     string
	PublicKey     string
	WebhookSecret string
}

// StripeGateway implements ports.PaymentGateway for Stripe.
type StripeGateway struct {
	config StripeConfig
}

// NewStripeGateway creates a new Stripe payment gateway.
func NewStripeGateway(config StripeConfig) *StripeGateway {
	stripe.Key = config.SecretKey
	return &StripeGateway{config: config}
}

// CreateIntent creates a Stripe payment intent and returns its client
// secret. Validation failures happen before any network call.
func (g *StripeGateway) CreateIntent(ctx context.Context, amountCents int64, meta ports.IntentMetadata) (ports.Intent, error) {
	if amountCents <= 0 {
		return ports.Intent{}, ErrInvalidAmount
	}
	if g.config.SecretKey == "" {
		return ports.Intent{}, ErrNotConfigured
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("user_id", meta.UserID)
	params.AddMetadata("product_id", meta.ProductID)
	params.AddMetadata("customer_name", meta.CustomerName)
	params.AddMetadata("customer_email", meta.CustomerEmail)

	pi, err := paymentintent.New(params)
	if err != nil {
		return ports.Intent{}, mapStripeErr(err)
	}

	return ports.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountCents:  pi.Amount,
		Status:       string(pi.Status),
	}, nil
}

// GetIntent retrieves an existing payment intent.
func (g *StripeGateway) GetIntent(ctx context.Context, id string) (ports.Intent, error) {
	if g.config.SecretKey == "" {
		return ports.Intent{}, ErrNotConfigured
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := paymentintent.Get(id, params)
	if err != nil {
		return ports.Intent{}, mapStripeErr(err)
	}

	return ports.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountCents:  pi.Amount,
		Status:       string(pi.Status),
	}, nil
}

// VerifyWebhook checks a webhook payload signature. A gateway without
// a configured signing secret accepts everything, matching processors
// configured without signed webhooks.
func (g *StripeGateway) VerifyWebhook(payload []byte, signature string) error {
	if g.config.WebhookSecret == "" {
		return nil
	}
	_, err := webhook.ConstructEvent(payload, signature, g.config.WebhookSecret)
	return err
}

// mapStripeErr splits processor-reported errors from transport errors.
func mapStripeErr(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return &RejectedError{Code: string(stripeErr.Code), Message: stripeErr.Msg}
	}
	return &TransportError{Err: err}
}

// Ensure interface compliance.
var _ ports.PaymentGateway = (*StripeGateway)(nil)
