package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/artpar/shopgate/adapters/auth"
	"github.com/artpar/shopgate/adapters/clock"
	"github.com/artpar/shopgate/adapters/hasher"
	"github.com/artpar/shopgate/adapters/idgen"
	"github.com/artpar/shopgate/adapters/memory"
	"github.com/artpar/shopgate/adapters/payment"
	"github.com/artpar/shopgate/adapters/random"
	"github.com/artpar/shopgate/domain/catalog"
	"github.com/artpar/shopgate/ports"
	"github.com/rs/zerolog"
)

type checkoutFixture struct {
	svc      *CheckoutService
	carts    *CartService
	products *memory.ProductStore
	users    *memory.UserStore
	gateway  *payment.Noop
	clock    *clock.Fake
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	products := memory.NewProductStore()
	users := memory.NewUserStore()
	gateway := payment.NewNoop()
	fakeClock := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	carts := NewCartService(memory.NewCartStore(), products, nil, zerolog.Nop())

	svc := NewCheckoutService(
		carts,
		products,
		users,
		gateway,
		auth.NewTokenService("test-secret", time.Hour),
		idgen.NewSequential("user"),
		random.NewFake(),
		hasher.NewBcrypt(4),
		fakeClock,
		nil,
		zerolog.Nop(),
	)
	return &checkoutFixture{svc: svc, carts: carts, products: products, users: users, gateway: gateway, clock: fakeClock}
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newCheckoutFixture(t)
	_, err := f.svc.CreateIntent(context.Background(), "sess", "", CustomerInfo{Name: "Alice", Email: "alice@example.com"})
	if !errors.Is(err, ErrEmptyCart) {
		t.Errorf("expected ErrEmptyCart, got %v", err)
	}
}

func TestCheckoutGuestValidation(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	now := f.clock.Now()
	seedProducts(t, f.products, catalog.Product{ID: "p1", PriceCents: 1000, CreatedAt: now, UpdatedAt: now})
	f.carts.AddItem(ctx, "sess", "p1")

	cases := []struct {
		name string
		info CustomerInfo
	}{
		{"no name", CustomerInfo{Email: "alice@example.com"}},
		{"no email", CustomerInfo{Name: "Alice"}},
		{"bad email", CustomerInfo{Name: "Alice", Email: "not-an-email"}},
		{"no domain dot", CustomerInfo{Name: "Alice", Email: "alice@host"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateIntent(ctx, "sess", "", tc.info)
			if !errors.Is(err, ErrMissingCustomerInfo) {
				t.Errorf("expected ErrMissingCustomerInfo, got %v", err)
			}
		})
	}
}

func TestCheckoutProvisionsGuestAccount(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	now := f.clock.Now()
	seedProducts(t, f.products,
		catalog.Product{ID: "p1", PriceCents: 1000, CreatedAt: now, UpdatedAt: now},
		catalog.Product{
			ID: "sub1", PriceCents: 4900, Subscription: true,
			SubscriptionInterval: catalog.IntervalMonthly, SubscriptionRole: "member",
			CreatedAt: now, UpdatedAt: now,
		},
	)
	f.carts.AddItem(ctx, "sess", "p1")
	f.carts.AddItem(ctx, "sess", "sub1")

	result, err := f.svc.CreateIntent(ctx, "sess", "", CustomerInfo{Name: "Alice", Email: "Alice@Example.com"})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if result.AmountCents != 5900 {
		t.Errorf("amount = %d, want 5900", result.AmountCents)
	}
	if result.ClientSecret == "" || result.IntentID == "" {
		t.Errorf("missing payment data: %+v", result)
	}
	if result.Token == "" {
		t.Error("expected a session token for the provisioned account")
	}

	// Email is normalized; role comes from the first subscription line.
	user, err := f.users.GetByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("provisioned user not found: %v", err)
	}
	if user.Role != "member" {
		t.Errorf("role = %q, want member", user.Role)
	}
	if len(user.PasswordHash) == 0 {
		t.Error("expected a password hash")
	}
	if user.ID != result.UserID {
		t.Errorf("user id mismatch: %q vs %q", user.ID, result.UserID)
	}

	// The intent carries correlation metadata for the webhook.
	intent, _ := f.gateway.GetIntent(ctx, result.IntentID)
	if intent.AmountCents != 5900 {
		t.Errorf("intent amount = %d", intent.AmountCents)
	}
}

func TestCheckoutSignsInExistingEmail(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	now := f.clock.Now()
	seedProducts(t, f.products, catalog.Product{ID: "p1", PriceCents: 1000, CreatedAt: now, UpdatedAt: now})
	f.carts.AddItem(ctx, "sess", "p1")

	existing := ports.User{ID: "user-9", Email: "bob@example.com", Name: "Bob", Role: "subscriber", CreatedAt: now, UpdatedAt: now}
	if err := f.users.Create(ctx, existing); err != nil {
		t.Fatalf("create user: %v", err)
	}

	result, err := f.svc.CreateIntent(ctx, "sess", "", CustomerInfo{Name: "Bobby", Email: "bob@example.com"})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if result.UserID != "user-9" {
		t.Errorf("user id = %q, want user-9", result.UserID)
	}
	if result.Token == "" {
		t.Error("expected a session token for the signed-in account")
	}

	users, _ := f.users.List(ctx)
	if len(users) != 1 {
		t.Errorf("expected no new account, have %d users", len(users))
	}
}

func TestCheckoutAuthenticatedUserSkipsToken(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	now := f.clock.Now()
	seedProducts(t, f.products, catalog.Product{ID: "p1", PriceCents: 2500, CreatedAt: now, UpdatedAt: now})
	f.carts.AddItem(ctx, "sess", "p1")

	user := ports.User{ID: "user-1", Email: "carol@example.com", Name: "Carol", CreatedAt: now, UpdatedAt: now}
	f.users.Create(ctx, user)

	result, err := f.svc.CreateIntent(ctx, "sess", "user-1", CustomerInfo{})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if result.Token != "" {
		t.Error("signed-in checkout should not mint a new token")
	}
	if result.AmountCents != 2500 {
		t.Errorf("amount = %d", result.AmountCents)
	}
}

func TestCheckoutFinalizeClearsCart(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	now := f.clock.Now()
	seedProducts(t, f.products, catalog.Product{ID: "p1", PriceCents: 1000, CreatedAt: now, UpdatedAt: now})
	f.carts.AddItem(ctx, "sess", "p1")

	result, err := f.svc.CreateIntent(ctx, "sess", "", CustomerInfo{Name: "Alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}

	// Not yet confirmed: cart stays.
	intent, err := f.svc.Finalize(ctx, "sess", result.IntentID)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if intent.Status == "succeeded" {
		t.Fatalf("unexpected status %q", intent.Status)
	}
	if lines, _ := f.carts.Lines(ctx, "sess"); len(lines) == 0 {
		t.Error("cart cleared before payment succeeded")
	}

	f.gateway.MarkSucceeded(result.IntentID)
	intent, err = f.svc.Finalize(ctx, "sess", result.IntentID)
	if err != nil {
		t.Fatalf("finalize after success: %v", err)
	}
	if intent.Status != "succeeded" {
		t.Errorf("status = %q", intent.Status)
	}
	if lines, _ := f.carts.Lines(ctx, "sess"); len(lines) != 0 {
		t.Error("cart not cleared after payment succeeded")
	}
}
