package app

import (
	"context"
	"strings"

	"github.com/artpar/shopgate/adapters/auth"
	"github.com/artpar/shopgate/adapters/metrics"
	"github.com/artpar/shopgate/domain/cart"
	"github.com/artpar/shopgate/domain/catalog"
	"github.com/artpar/shopgate/ports"
	"github.com/rs/zerolog"
)

// CheckoutService orchestrates the cart-to-payment-intent flow:
// account provisioning for guests, total computation from live catalog
// prices, and payment intent creation with correlation metadata.
type CheckoutService struct {
	carts    *CartService
	products ports.ProductStore
	users    ports.UserStore
	gateway  ports.PaymentGateway
	tokens   *auth.TokenService
	idGen    ports.IDGenerator
	random   ports.Random
	hasher   ports.Hasher
	clock    ports.Clock
	metrics  *metrics.Collector
	logger   zerolog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	carts *CartService,
	products ports.ProductStore,
	users ports.UserStore,
	gateway ports.PaymentGateway,
	tokens *auth.TokenService,
	idGen ports.IDGenerator,
	random ports.Random,
	hasher ports.Hasher,
	clock ports.Clock,
	collector *metrics.Collector,
	logger zerolog.Logger,
) *CheckoutService {
	return &CheckoutService{
		carts:    carts,
		products: products,
		users:    users,
		gateway:  gateway,
		tokens:   tokens,
		idGen:    idGen,
		random:   random,
		hasher:   hasher,
		clock:    clock,
		metrics:  collector,
		logger:   logger,
	}
}

// CustomerInfo is what a guest supplies at checkout.
type CustomerInfo struct {
	Name  string
	Email string
}

// CheckoutResult is the client-confirmable payment data returned from
// a successful intent request.
type CheckoutResult struct {
	IntentID     string
	ClientSecret string
	AmountCents  int64
	UserID       string
	// Token is a fresh session token for the (possibly just-created)
	// account; empty when the caller was already signed in.
	Token string
}

// CreateIntent validates the cart, provisions or signs in the customer
// account, computes the total from current catalog prices, and requests
// a payment intent for it.
//
// userID is the authenticated user, empty for guests. Guests must
// supply a name and a plausible email.
func (s *CheckoutService) CreateIntent(ctx context.Context, sessionID, userID string, info CustomerInfo) (CheckoutResult, error) {
	lines, err := s.carts.Lines(ctx, sessionID)
	if err != nil {
		return CheckoutResult{}, err
	}
	if len(lines) == 0 {
		s.countAttempt("empty_cart")
		return CheckoutResult{}, ErrEmptyCart
	}

	var result CheckoutResult
	user, freshToken, err := s.resolveUser(ctx, userID, info, lines)
	if err != nil {
		return CheckoutResult{}, err
	}
	result.UserID = user.ID

	if freshToken {
		token, _, err := s.tokens.GenerateToken(user.ID, user.Email, user.Role)
		if err != nil {
			s.countAttempt("provisioning_error")
			return CheckoutResult{}, &ProvisioningError{Email: user.Email, Err: err}
		}
		result.Token = token
	}

	total, err := s.carts.Total(ctx, sessionID)
	if err != nil {
		return CheckoutResult{}, err
	}

	meta := ports.IntentMetadata{
		UserID:        user.ID,
		ProductID:     firstSubscriptionProduct(ctx, s.products, lines),
		CustomerName:  user.Name,
		CustomerEmail: user.Email,
	}

	intent, err := s.gateway.CreateIntent(ctx, total, meta)
	if err != nil {
		s.countAttempt("gateway_error")
		s.logger.Error().Err(err).
			Str("user_id", user.ID).
			Int64("amount_cents", total).
			Msg("payment intent creation failed")
		return CheckoutResult{}, err
	}

	s.countAttempt("ok")
	if s.metrics != nil {
		s.metrics.IntentAmount.Observe(float64(total))
	}
	s.logger.Info().
		Str("user_id", user.ID).
		Str("intent_id", intent.ID).
		Int64("amount_cents", total).
		Msg("payment intent created")

	result.IntentID = intent.ID
	result.ClientSecret = intent.ClientSecret
	result.AmountCents = intent.AmountCents
	return result, nil
}

// Finalize verifies the intent after client-side confirmation and
// clears the session cart once payment succeeded. Fulfilment itself is
// driven by the provider webhook, not by this call.
func (s *CheckoutService) Finalize(ctx context.Context, sessionID, intentID string) (ports.Intent, error) {
	intent, err := s.gateway.GetIntent(ctx, intentID)
	if err != nil {
		return ports.Intent{}, err
	}
	if intent.Status == "succeeded" {
		if err := s.carts.Clear(ctx, sessionID); err != nil {
			s.logger.Warn().Err(err).
				Str("session_id", sessionID).
				Msg("failed to clear cart after payment")
		}
	}
	return intent, nil
}

// resolveUser returns the account to bill: the signed-in user, an
// existing account matching the guest email, or a freshly provisioned
// one. The second return reports whether a session token should be
// issued.
func (s *CheckoutService) resolveUser(ctx context.Context, userID string, info CustomerInfo, lines []cart.Line) (ports.User, bool, error) {
	if userID != "" {
		user, err := s.users.Get(ctx, userID)
		if err != nil {
			return ports.User{}, false, &ProvisioningError{Err: err}
		}
		return user, false, nil
	}

	info.Name = strings.TrimSpace(info.Name)
	info.Email = strings.TrimSpace(strings.ToLower(info.Email))
	if info.Name == "" || !plausibleEmail(info.Email) {
		s.countAttempt("missing_info")
		return ports.User{}, false, ErrMissingCustomerInfo
	}

	// Existing account: sign the guest in by email. The payment they
	// are about to confirm is the proof of intent.
	if user, err := s.users.GetByEmail(ctx, info.Email); err == nil {
		return user, true, nil
	}

	password, err := s.random.String(24)
	if err != nil {
		s.countAttempt("provisioning_error")
		return ports.User{}, false, &ProvisioningError{Email: info.Email, Err: err}
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.countAttempt("provisioning_error")
		return ports.User{}, false, &ProvisioningError{Email: info.Email, Err: err}
	}

	now := s.clock.Now().UTC()
	user := ports.User{
		ID:           s.idGen.New(),
		Email:        info.Email,
		Name:         info.Name,
		PasswordHash: hash,
		Role:         subscriptionRole(ctx, s.products, lines),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.countAttempt("provisioning_error")
		return ports.User{}, false, &ProvisioningError{Email: info.Email, Err: err}
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Str("role", user.Role).
		Msg("account provisioned at checkout")
	return user, true, nil
}

func (s *CheckoutService) countAttempt(result string) {
	if s.metrics != nil {
		s.metrics.CheckoutAttempts.WithLabelValues(result).Inc()
	}
}

// firstSubscriptionProduct returns the product ID of the first
// subscription line in first-add order, empty if none. Webhook
// fulfilment keys off this.
func firstSubscriptionProduct(ctx context.Context, products ports.ProductStore, lines []cart.Line) string {
	for _, line := range lines {
		p, err := products.Get(ctx, line.ProductID)
		if err != nil {
			continue
		}
		if p.Subscription {
			return p.ID
		}
	}
	return ""
}

// subscriptionRole returns the role to grant a provisioned account:
// the first subscription product's role, or the default.
func subscriptionRole(ctx context.Context, products ports.ProductStore, lines []cart.Line) string {
	for _, line := range lines {
		p, err := products.Get(ctx, line.ProductID)
		if err != nil {
			continue
		}
		if p.Subscription {
			return p.Role()
		}
	}
	return catalog.DefaultRole
}

// plausibleEmail applies the same lightweight shape check the storefront
// uses: one @ with something on both sides and a dot in the domain.
func plausibleEmail(email string) bool {
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.Contains(domain, "@")
}
