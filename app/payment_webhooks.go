package app

import (
	"context"
	"sync"
	"time"

	"github.com/artpar/shopgate/adapters/metrics"
	"github.com/artpar/shopgate/domain/billing"
	"github.com/artpar/shopgate/ports"
	"github.com/rs/zerolog"
)

// Processed-event retention window. Providers stop retrying deliveries
// long before this.
const processedEventRetention = 30 * 24 * time.Hour

// PaymentWebhookService applies payment provider events to the
// subscription state. Deliveries are deduplicated by event ID so a
// replayed webhook never repeats side effects; an event is marked
// processed only after its side effects were applied, so a failed
// delivery stays retriable.
type PaymentWebhookService struct {
	events  ports.ProcessedEventStore
	keys    *KeyLifecycleService
	clock   ports.Clock
	metrics *metrics.Collector
	logger  zerolog.Logger

	mu      sync.Mutex
	stopCh  chan struct{}
	running bool
}

// NewPaymentWebhookService creates a new payment webhook service.
func NewPaymentWebhookService(
	events ports.ProcessedEventStore,
	keys *KeyLifecycleService,
	clock ports.Clock,
	collector *metrics.Collector,
	logger zerolog.Logger,
) *PaymentWebhookService {
	return &PaymentWebhookService{
		events:  events,
		keys:    keys,
		clock:   clock,
		metrics: collector,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
}

// HandleEvent applies one parsed provider event. Unknown event types
// and events missing correlation metadata are acknowledged without
// side effects so the provider does not retry them forever.
func (s *PaymentWebhookService) HandleEvent(ctx context.Context, evt billing.Event) error {
	if !evt.Handled() {
		s.logger.Debug().
			Str("event_id", evt.ID).
			Str("event_type", string(evt.Type)).
			Msg("ignoring unhandled event type")
		s.count(evt.Type, "ignored")
		return nil
	}

	seen, err := s.events.Seen(ctx, evt.ID)
	if err != nil {
		return err
	}
	if seen {
		s.logger.Info().
			Str("event_id", evt.ID).
			Msg("duplicate webhook delivery skipped")
		if s.metrics != nil {
			s.metrics.WebhookDuplicate.Inc()
		}
		return nil
	}

	if evt.UserID == "" {
		s.logger.Warn().
			Str("event_id", evt.ID).
			Str("event_type", string(evt.Type)).
			Msg("event has no user metadata, skipping")
		s.count(evt.Type, "missing_metadata")
		return nil
	}

	switch evt.Type {
	case billing.EventCheckoutCompleted:
		if evt.ProductID == "" {
			s.logger.Warn().
				Str("event_id", evt.ID).
				Msg("checkout event has no product metadata, skipping")
			s.count(evt.Type, "missing_metadata")
			return nil
		}
		err = s.keys.IssueOrRenew(ctx, evt.UserID, evt.ProductID)
	case billing.EventSubscriptionDeleted, billing.EventInvoiceFailed:
		err = s.keys.SoftExpire(ctx, evt.UserID)
	}
	if err != nil {
		s.count(evt.Type, "error")
		s.logger.Error().Err(err).
			Str("event_id", evt.ID).
			Str("event_type", string(evt.Type)).
			Str("user_id", evt.UserID).
			Msg("failed to apply webhook event")
		return err
	}

	// Mark only after the side effects landed. Anything earlier and a
	// failed delivery's retry would be dropped as a duplicate.
	if err := s.events.Mark(ctx, evt.ID, s.clock.Now().UTC()); err != nil {
		s.logger.Error().Err(err).
			Str("event_id", evt.ID).
			Msg("failed to record processed event, a replay may reapply it")
	}

	s.count(evt.Type, "ok")
	s.logger.Info().
		Str("event_id", evt.ID).
		Str("event_type", string(evt.Type)).
		Str("user_id", evt.UserID).
		Msg("webhook event applied")
	return nil
}

// Start prunes the dedupe set at the given interval, normally daily.
func (s *PaymentWebhookService) Start(interval time.Duration) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.PruneProcessed(context.Background()); err != nil {
					s.logger.Error().Err(err).Msg("processed-event prune failed")
				}
			case <-s.stopCh:
				return
			}
		}
	}()
	s.logger.Info().Dur("interval", interval).Msg("processed-event pruning started")
}

// Stop halts the pruning loop.
func (s *PaymentWebhookService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stopCh)
}

// PruneProcessed drops dedupe entries older than the retention window.
func (s *PaymentWebhookService) PruneProcessed(ctx context.Context) error {
	cutoff := s.clock.Now().UTC().Add(-processedEventRetention)
	n, err := s.events.Prune(ctx, cutoff)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Debug().Int64("pruned", n).Msg("processed events pruned")
	}
	return nil
}

func (s *PaymentWebhookService) count(t billing.EventType, result string) {
	if s.metrics != nil {
		s.metrics.WebhookEvents.WithLabelValues(string(t), result).Inc()
	}
}
