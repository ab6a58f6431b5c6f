// Package web provides the storefront JSON API.
// Stateless design - cart identity and login both live in cookies, so
// no server-side session storage is needed.
package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/artpar/shopgate/adapters/auth"
	"github.com/artpar/shopgate/app"
	"github.com/artpar/shopgate/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Cookie names.
const (
	cartCookieName  = "shopgate_cart"
	tokenCookieName = "shopgate_token"
)

// cartCookieTTL keeps abandoned carts around long enough to come back
// to, without accumulating forever.
const cartCookieTTL = 30 * 24 * time.Hour

// Handler provides the storefront API endpoints.
type Handler struct {
	cart     *app.CartService
	checkout *app.CheckoutService
	keys     *app.KeyLifecycleService
	products ports.ProductStore
	tokens   *auth.TokenService
	random   ports.Random
	clock    ports.Clock
	logger   zerolog.Logger
}

// Deps contains dependencies for the storefront handler.
type Deps struct {
	Cart     *app.CartService
	Checkout *app.CheckoutService
	Keys     *app.KeyLifecycleService
	Products ports.ProductStore
	Tokens   *auth.TokenService
	Random   ports.Random
	Clock    ports.Clock
	Logger   zerolog.Logger
}

// NewHandler creates a new storefront handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		cart:     deps.Cart,
		checkout: deps.Checkout,
		keys:     deps.Keys,
		products: deps.Products,
		tokens:   deps.Tokens,
		random:   deps.Random,
		clock:    deps.Clock,
		logger:   deps.Logger,
	}
}

// Routes returns the chi router for the storefront API.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)
	r.Get("/products", h.ListProducts)
	r.Get("/products/{productID}", h.GetProduct)

	r.Post("/cart/items", h.AddCartItem)
	r.Put("/cart/items/{productID}", h.UpdateCartQuantity)
	r.Get("/cart", h.GetCart)

	r.Post("/checkout/intent", h.CreateIntent)
	r.Post("/checkout/finalize", h.FinalizePayment)

	r.Get("/account/subscription", h.AccountSubscription)

	return r
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.Routes().ServeHTTP(w, r)
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// sessionID returns the cart session ID from the cookie, minting a new
// one (and setting the cookie) when absent.
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) (string, error) {
	if cookie, err := r.Cookie(cartCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	id, err := h.random.String(32)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cartCookieName,
		Value:    id,
		Path:     "/",
		Expires:  h.clock.Now().Add(cartCookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id, nil
}

// currentUserID returns the authenticated user's ID, empty for guests
// and for stale or tampered tokens.
func (h *Handler) currentUserID(r *http.Request) string {
	cookie, err := r.Cookie(tokenCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	claims, err := h.tokens.ValidateToken(cookie.Value)
	if err != nil {
		return ""
	}
	return claims.UserID
}

func (h *Handler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
