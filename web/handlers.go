package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/artpar/shopgate/adapters/payment"
	"github.com/artpar/shopgate/app"
	"github.com/artpar/shopgate/domain/billing"
	"github.com/artpar/shopgate/domain/catalog"
	"github.com/go-chi/chi/v5"
)

type productResponse struct {
	ID                     string `json:"id"`
	Name                   string `json:"name"`
	Description            string `json:"description"`
	PriceCents             int64  `json:"price_cents"`
	Digital                bool   `json:"digital"`
	Subscription           bool   `json:"subscription"`
	SubscriptionInterval   string `json:"subscription_interval,omitempty"`
	SubscriptionPriceCents int64  `json:"subscription_price_cents,omitempty"`
}

func toProductResponse(p catalog.Product) productResponse {
	resp := productResponse{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		PriceCents:   p.PriceCents,
		Digital:      p.Digital,
		Subscription: p.Subscription,
	}
	if p.Subscription {
		resp.SubscriptionInterval = string(p.SubscriptionInterval)
		resp.SubscriptionPriceCents = p.SubscriptionPriceCents
	}
	return resp
}

// ListProducts returns the catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list products")
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"products": out})
}

// GetProduct returns one product.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.Get(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		h.respondError(w, http.StatusNotFound, "product not found")
		return
	}
	h.respondJSON(w, http.StatusOK, toProductResponse(p))
}

// AddCartItem adds one unit of a product to the session cart and
// returns the new item count.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		h.respondError(w, http.StatusBadRequest, "product_id is required")
		return
	}

	sessionID, err := h.sessionID(w, r)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	count, err := h.cart.AddItem(r.Context(), sessionID, req.ProductID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to add cart item")
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]int{"cart_total": count})
}

// UpdateCartQuantity sets the quantity of a cart line and returns the
// recomputed line subtotal and cart total.
func (h *Handler) UpdateCartQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}

	sessionID, err := h.sessionID(w, r)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	totals, err := h.cart.SetQuantity(r.Context(), sessionID, chi.URLParam(r, "productID"), req.Quantity)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to update cart quantity")
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]int64{
		"product_subtotal": totals.ProductSubtotalCents,
		"total_price":      totals.TotalCents,
	})
}

// GetCart returns the session cart lines and total.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	sessionID, err := h.sessionID(w, r)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	lines, err := h.cart.Lines(r.Context(), sessionID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	total, err := h.cart.Total(r.Context(), sessionID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	type lineResponse struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	out := make([]lineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, lineResponse{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"lines":       out,
		"total_price": total,
	})
}

// CreateIntent starts checkout: validates the cart, provisions or signs
// in the customer, and returns client-confirmable payment data.
func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}

	sessionID, err := h.sessionID(w, r)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	result, err := h.checkout.CreateIntent(r.Context(), sessionID, h.currentUserID(r),
		app.CustomerInfo{Name: req.Name, Email: req.Email})
	if err != nil {
		h.respondCheckoutError(w, err)
		return
	}

	if result.Token != "" {
		h.setTokenCookie(w, result.Token)
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"intent_id":     result.IntentID,
		"client_secret": result.ClientSecret,
		"amount_cents":  result.AmountCents,
	})
}

func (h *Handler) respondCheckoutError(w http.ResponseWriter, err error) {
	var rejected *payment.RejectedError
	var provisioning *app.ProvisioningError
	switch {
	case errors.Is(err, app.ErrEmptyCart):
		h.respondError(w, http.StatusBadRequest, "cart is empty")
	case errors.Is(err, app.ErrMissingCustomerInfo):
		h.respondError(w, http.StatusBadRequest, "name and email are required")
	case errors.Is(err, payment.ErrInvalidAmount):
		h.respondError(w, http.StatusBadRequest, "order total must be positive")
	case errors.As(err, &rejected):
		h.respondError(w, http.StatusPaymentRequired, rejected.Message)
	case errors.As(err, &provisioning):
		h.logger.Error().Err(err).Msg("account provisioning failed")
		h.respondError(w, http.StatusInternalServerError, "could not create account")
	case errors.Is(err, payment.ErrNotConfigured):
		h.logger.Error().Err(err).Msg("payment gateway not configured")
		h.respondError(w, http.StatusServiceUnavailable, "payments unavailable")
	default:
		h.logger.Error().Err(err).Msg("checkout failed")
		h.respondError(w, http.StatusBadGateway, "payment processor unavailable")
	}
}

// FinalizePayment verifies a confirmed intent and clears the cart once
// the payment succeeded.
func (h *Handler) FinalizePayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IntentID string `json:"intent_id"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.IntentID == "" {
		h.respondError(w, http.StatusBadRequest, "intent_id is required")
		return
	}

	sessionID, err := h.sessionID(w, r)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	intent, err := h.checkout.Finalize(r.Context(), sessionID, req.IntentID)
	if err != nil {
		var rejected *payment.RejectedError
		if errors.As(err, &rejected) {
			h.respondError(w, http.StatusNotFound, rejected.Message)
			return
		}
		h.logger.Error().Err(err).Msg("finalize failed")
		h.respondError(w, http.StatusBadGateway, "payment processor unavailable")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"intent_id": intent.ID,
		"status":    intent.Status,
	})
}

// AccountSubscription returns the signed-in user's subscription state.
func (h *Handler) AccountSubscription(w http.ResponseWriter, r *http.Request) {
	userID := h.currentUserID(r)
	if userID == "" {
		h.respondError(w, http.StatusUnauthorized, "not signed in")
		return
	}

	rec, err := h.keys.Record(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to load subscription")
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	status := rec.Status(h.clock.Now().UTC())
	resp := map[string]any{
		"status": string(status),
	}
	if status == billing.StatusActive {
		resp["api_key"] = rec.APIKey
	}
	if rec.KeyExpiresAt != nil {
		resp["expires_at"] = rec.KeyExpiresAt.Format(time.RFC3339)
	}
	h.respondJSON(w, http.StatusOK, resp)
}
