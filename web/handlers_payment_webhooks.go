package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/artpar/shopgate/app"
	"github.com/artpar/shopgate/domain/billing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// maxWebhookBody bounds webhook payload reads.
const maxWebhookBody = 1 << 20

// WebhookVerifier checks a webhook payload against its signature.
type WebhookVerifier interface {
	VerifyWebhook(payload []byte, signature string) error
}

// PaymentWebhookHandler handles incoming webhooks from the payment
// provider. Responses follow provider retry semantics: 400 tells the
// provider the payload is garbage, 200 acknowledges everything the
// service chose to act on or ignore.
type PaymentWebhookHandler struct {
	verifier WebhookVerifier
	service  *app.PaymentWebhookService
	logger   zerolog.Logger
}

// NewPaymentWebhookHandler creates a new payment webhook handler.
func NewPaymentWebhookHandler(
	verifier WebhookVerifier,
	service *app.PaymentWebhookService,
	logger zerolog.Logger,
) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{
		verifier: verifier,
		service:  service,
		logger:   logger,
	}
}

// Routes returns the chi router for payment webhooks.
// These routes are mounted at /webhooks.
func (h *PaymentWebhookHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/stripe", h.HandleStripeWebhook)
	return r
}

// ServeHTTP implements http.Handler.
func (h *PaymentWebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.Routes().ServeHTTP(w, r)
}

// HandleStripeWebhook handles Stripe webhook events.
func (h *PaymentWebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to read webhook body")
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if h.verifier != nil {
		if err := h.verifier.VerifyWebhook(payload, r.Header.Get("Stripe-Signature")); err != nil {
			h.logger.Warn().Err(err).Msg("webhook signature verification failed")
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
	}

	evt, err := billing.ParseEvent(payload)
	if err != nil {
		if errors.Is(err, billing.ErrMalformedEvent) {
			h.logger.Warn().Err(err).Msg("malformed webhook payload")
			http.Error(w, "malformed payload", http.StatusBadRequest)
			return
		}
		h.logger.Error().Err(err).Msg("failed to parse webhook event")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if err := h.service.HandleEvent(r.Context(), evt); err != nil {
		// Let the provider retry transient failures.
		h.logger.Error().Err(err).
			Str("event_id", evt.ID).
			Msg("webhook event processing failed")
		http.Error(w, "processing failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
