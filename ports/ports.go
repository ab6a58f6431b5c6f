// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"time"

	"github.com/artpar/shopgate/domain/billing"
	"github.com/artpar/shopgate/domain/cart"
	"github.com/artpar/shopgate/domain/catalog"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// Random abstracts randomness for testability.
type Random interface {
	// Bytes generates n random bytes.
	Bytes(n int) ([]byte, error)
	// String generates a random string of n characters.
	String(n int) (string, error)
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// Hasher provides password hashing.
type Hasher interface {
	// Hash generates a hash from a plaintext value.
	Hash(plaintext string) ([]byte, error)

	// Compare checks if plaintext matches hash.
	Compare(hash []byte, plaintext string) bool
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// ProductStore reads the product catalog. Catalog mutation happens
// through admin tooling, not the checkout pipeline.
type ProductStore interface {
	// Get retrieves a product by ID.
	Get(ctx context.Context, id string) (catalog.Product, error)

	// List returns all products.
	List(ctx context.Context) ([]catalog.Product, error)

	// Create stores a new product (admin CLI).
	Create(ctx context.Context, p catalog.Product) error
}

// User represents a customer account.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash []byte // bcrypt; set for auto-provisioned accounts
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserStore persists customer accounts.
type UserStore interface {
	// Get retrieves a user by ID.
	Get(ctx context.Context, id string) (User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (User, error)

	// Create stores a new user.
	Create(ctx context.Context, u User) error

	// Update modifies an existing user.
	Update(ctx context.Context, u User) error

	// List returns all users.
	List(ctx context.Context) ([]User, error)
}

// CartStore persists per-session carts. Each mutation is written back
// immediately; no transaction spans multiple operations.
type CartStore interface {
	// Get retrieves the cart lines for a session, empty if absent.
	Get(ctx context.Context, sessionID string) ([]cart.Line, error)

	// Put stores the cart lines for a session.
	Put(ctx context.Context, sessionID string, lines []cart.Line) error

	// Delete removes a session's cart.
	Delete(ctx context.Context, sessionID string) error
}

// SubscriptionStore persists per-user subscription records.
type SubscriptionStore interface {
	// Get retrieves the record for a user. Users without a key have a
	// zero record, not an error.
	Get(ctx context.Context, userID string) (billing.Record, error)

	// Put stores the record for a user.
	Put(ctx context.Context, rec billing.Record) error

	// ListWithExpiry returns all records that track an expiry, for the
	// renewal reminder sweep.
	ListWithExpiry(ctx context.Context) ([]billing.Record, error)
}

// ProcessedEventStore tracks webhook event IDs whose side effects have
// been applied, with bounded retention, so replayed deliveries do not
// repeat them. An event is marked only after it was applied; a failed
// delivery stays unmarked so the provider's retry gets through.
type ProcessedEventStore interface {
	// Seen reports whether the event ID is recorded.
	Seen(ctx context.Context, eventID string) (bool, error)

	// Mark records the event ID as applied.
	Mark(ctx context.Context, eventID string, at time.Time) error

	// Prune removes entries recorded before the cutoff.
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// KeyOpKind distinguishes queued key-service operations.
type KeyOpKind string

// Queued key-service operation kinds.
const (
	KeyOpCreate KeyOpKind = "create"
	KeyOpUpdate KeyOpKind = "update"
	KeyOpExpire KeyOpKind = "expire"
)

// KeyOp is a durable record of a key-service call that must eventually
// succeed. Failed remote calls are parked here and retried by the
// outbox worker instead of being silently dropped.
type KeyOp struct {
	ID        string
	Kind      KeyOpKind
	UserID    string
	Email     string
	APIKey    string
	ValidTo   time.Time
	Attempts  int
	NextTry   time.Time
	CreatedAt time.Time
}

// OutboxStore persists pending key-service operations.
type OutboxStore interface {
	// Enqueue stores a pending operation. A newer operation for the
	// same user replaces any older pending one; only the latest
	// intended state matters.
	Enqueue(ctx context.Context, op KeyOp) error

	// Due returns operations whose NextTry is at or before now.
	Due(ctx context.Context, now time.Time, limit int) ([]KeyOp, error)

	// Update rewrites an operation (attempt count, next try).
	Update(ctx context.Context, op KeyOp) error

	// Delete removes a completed operation.
	Delete(ctx context.Context, id string) error

	// DeleteForUser removes all pending operations for a user and
	// returns how many were removed. A direct call that succeeds
	// supersedes anything still queued for that user.
	DeleteForUser(ctx context.Context, userID string) (int64, error)
}

// -----------------------------------------------------------------------------
// External Service Ports
// -----------------------------------------------------------------------------

// IntentMetadata tags a payment intent so webhook events can be
// correlated back to the user and product.
type IntentMetadata struct {
	UserID        string
	ProductID     string
	CustomerName  string
	CustomerEmail string
}

// Intent is the processor-side object a client confirms.
type Intent struct {
	ID           string
	ClientSecret string
	AmountCents  int64
	Status       string
}

// PaymentGateway wraps the payment processor.
type PaymentGateway interface {
	// CreateIntent creates a payment intent for the amount in minor
	// units and returns its client-confirmable secret. Amounts <= 0
	// fail before any network call.
	CreateIntent(ctx context.Context, amountCents int64, meta IntentMetadata) (Intent, error)

	// GetIntent retrieves an intent for post-confirmation verification.
	GetIntent(ctx context.Context, id string) (Intent, error)
}

// KeyService wraps the external key-issuance service.
type KeyService interface {
	// CreateKey registers a new opaque key valid until validTo.
	CreateKey(ctx context.Context, email, apiKey string, validTo time.Time) error

	// UpdateKey moves the validity window of an existing key.
	UpdateKey(ctx context.Context, userID, email, apiKey string, validTo time.Time) error

	// ExpireKey marks the user's key expired on the service side.
	ExpireKey(ctx context.Context, userID string) error
}

// EmailMessage represents an email to be sent.
type EmailMessage struct {
	To       string
	Subject  string
	TextBody string
}

// EmailSender sends emails.
type EmailSender interface {
	// Send sends an email.
	Send(ctx context.Context, msg EmailMessage) error
}
