package app

import (
	"context"
	"fmt"

	"github.com/artpar/shopgate/adapters/metrics"
	"github.com/artpar/shopgate/domain/billing"
	"github.com/artpar/shopgate/ports"
	"github.com/rs/zerolog"
)

// APIKeyLength is the length of generated subscription keys.
const APIKeyLength = 32

// KeyLifecycleService owns the subscription record and mirrors it to
// the external key-issuance service. The local record is the source of
// truth; remote calls that fail are parked in the outbox and retried,
// never silently dropped.
type KeyLifecycleService struct {
	subscriptions ports.SubscriptionStore
	users         ports.UserStore
	products      ports.ProductStore
	keys          ports.KeyService
	outbox        ports.OutboxStore
	random        ports.Random
	idGen         ports.IDGenerator
	clock         ports.Clock
	metrics       *metrics.Collector
	logger        zerolog.Logger
}

// NewKeyLifecycleService creates a new key lifecycle service.
func NewKeyLifecycleService(
	subscriptions ports.SubscriptionStore,
	users ports.UserStore,
	products ports.ProductStore,
	keys ports.KeyService,
	outbox ports.OutboxStore,
	random ports.Random,
	idGen ports.IDGenerator,
	clock ports.Clock,
	collector *metrics.Collector,
	logger zerolog.Logger,
) *KeyLifecycleService {
	return &KeyLifecycleService{
		subscriptions: subscriptions,
		users:         users,
		products:      products,
		keys:          keys,
		outbox:        outbox,
		random:        random,
		idGen:         idGen,
		clock:         clock,
		metrics:       collector,
		logger:        logger,
	}
}

// IssueOrRenew grants or extends the user's key after a completed
// checkout. First purchase mints a fresh key; renewal keeps the key and
// moves the validity window one interval out from now.
func (s *KeyLifecycleService) IssueOrRenew(ctx context.Context, userID, productID string) error {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return err
	}
	if !product.Subscription {
		s.logger.Warn().
			Str("user_id", userID).
			Str("product_id", productID).
			Msg("checkout completed for non-subscription product, no key issued")
		return nil
	}

	rec, err := s.subscriptions.Get(ctx, userID)
	if err != nil {
		return err
	}

	now := s.clock.Now().UTC()
	expiry := product.SubscriptionInterval.NextExpiry(now)

	if rec.APIKey == "" {
		key, err := s.random.String(APIKeyLength)
		if err != nil {
			return err
		}
		rec = billing.Record{UserID: userID, APIKey: key}
		s.remoteCall(ctx, ports.KeyOp{
			Kind:    ports.KeyOpCreate,
			UserID:  userID,
			Email:   user.Email,
			APIKey:  key,
			ValidTo: expiry,
		})
		s.logger.Info().
			Str("user_id", userID).
			Time("expires_at", expiry).
			Msg("subscription key issued")
	} else {
		s.remoteCall(ctx, ports.KeyOp{
			Kind:    ports.KeyOpUpdate,
			UserID:  userID,
			Email:   user.Email,
			APIKey:  rec.APIKey,
			ValidTo: expiry,
		})
		s.logger.Info().
			Str("user_id", userID).
			Time("expires_at", expiry).
			Msg("subscription key renewed")
	}

	rec = rec.WithExpiry(expiry)
	rec.UpdatedAt = now
	return s.subscriptions.Put(ctx, rec)
}

// SoftExpire closes the validity window now. The key string is kept so
// a later renewal reactivates the same key.
func (s *KeyLifecycleService) SoftExpire(ctx context.Context, userID string) error {
	rec, err := s.subscriptions.Get(ctx, userID)
	if err != nil {
		return err
	}
	if rec.APIKey == "" {
		s.logger.Debug().
			Str("user_id", userID).
			Msg("soft-expire for user without a key, nothing to do")
		return nil
	}

	now := s.clock.Now().UTC()
	s.remoteCall(ctx, ports.KeyOp{
		Kind:    ports.KeyOpExpire,
		UserID:  userID,
		APIKey:  rec.APIKey,
		ValidTo: now,
	})

	rec = rec.WithExpiry(now)
	rec.UpdatedAt = now
	if err := s.subscriptions.Put(ctx, rec); err != nil {
		return err
	}
	s.logger.Info().
		Str("user_id", userID).
		Msg("subscription key soft-expired")
	return nil
}

// Record returns the user's subscription record for account views.
func (s *KeyLifecycleService) Record(ctx context.Context, userID string) (billing.Record, error) {
	return s.subscriptions.Get(ctx, userID)
}

// remoteCall performs the key-service call and parks it in the outbox
// when it fails. Local state always wins; the worker reconciles. A call
// that succeeds also clears anything still queued for the user, so the
// worker can never replay an operation the remote has already been
// moved past.
func (s *KeyLifecycleService) remoteCall(ctx context.Context, op ports.KeyOp) {
	err := ExecuteKeyOp(ctx, s.keys, op)
	if s.metrics != nil {
		s.metrics.KeyServiceCalls.WithLabelValues(string(op.Kind), resultLabel(err)).Inc()
	}
	if err == nil {
		n, derr := s.outbox.DeleteForUser(ctx, op.UserID)
		if derr != nil {
			s.logger.Error().Err(derr).
				Str("user_id", op.UserID).
				Msg("failed to clear superseded key operations")
			return
		}
		if n > 0 {
			if s.metrics != nil {
				s.metrics.OutboxPending.Sub(float64(n))
			}
			s.logger.Info().
				Str("user_id", op.UserID).
				Int64("superseded", n).
				Msg("stale queued key operations cleared")
		}
		return
	}

	s.logger.Error().Err(err).
		Str("op", string(op.Kind)).
		Str("user_id", op.UserID).
		Msg("key service call failed, queued for retry")

	now := s.clock.Now().UTC()
	op.ID = s.idGen.New()
	op.Attempts = 1
	op.NextTry = now.Add(outboxBaseDelay)
	op.CreatedAt = now
	// The new op supersedes anything already queued for the user; keep
	// the pending gauge in step with the replacement.
	if n, derr := s.outbox.DeleteForUser(ctx, op.UserID); derr == nil && n > 0 && s.metrics != nil {
		s.metrics.OutboxPending.Sub(float64(n))
	}
	if err := s.outbox.Enqueue(ctx, op); err != nil {
		s.logger.Error().Err(err).
			Str("user_id", op.UserID).
			Msg("failed to enqueue key operation")
		return
	}
	if s.metrics != nil {
		s.metrics.OutboxPending.Inc()
	}
}

// ExecuteKeyOp dispatches a queued operation to the key service.
func ExecuteKeyOp(ctx context.Context, keys ports.KeyService, op ports.KeyOp) error {
	switch op.Kind {
	case ports.KeyOpCreate:
		return keys.CreateKey(ctx, op.Email, op.APIKey, op.ValidTo)
	case ports.KeyOpUpdate:
		return keys.UpdateKey(ctx, op.UserID, op.Email, op.APIKey, op.ValidTo)
	case ports.KeyOpExpire:
		return keys.ExpireKey(ctx, op.UserID)
	default:
		return fmt.Errorf("unknown key operation kind %q", op.Kind)
	}
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
