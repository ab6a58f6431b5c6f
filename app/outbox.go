package app

import (
	"context"
	"sync"
	"time"

	"github.com/artpar/shopgate/adapters/metrics"
	"github.com/artpar/shopgate/ports"
	"github.com/rs/zerolog"
)

const (
	outboxBaseDelay = time.Minute
	outboxMaxDelay  = time.Hour
	outboxBatchSize = 50
)

// OutboxWorker drains the key-operation outbox, retrying remote calls
// with exponential backoff until they succeed.
type OutboxWorker struct {
	outbox  ports.OutboxStore
	keys    ports.KeyService
	clock   ports.Clock
	metrics *metrics.Collector
	logger  zerolog.Logger

	mu      sync.Mutex
	stopCh  chan struct{}
	running bool
}

// NewOutboxWorker creates a new outbox worker.
func NewOutboxWorker(
	outbox ports.OutboxStore,
	keys ports.KeyService,
	clock ports.Clock,
	collector *metrics.Collector,
	logger zerolog.Logger,
) *OutboxWorker {
	return &OutboxWorker{
		outbox:  outbox,
		keys:    keys,
		clock:   clock,
		metrics: collector,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
}

// Start begins draining the outbox at the given interval.
func (w *OutboxWorker) Start(interval time.Duration) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := w.Sweep(context.Background()); err != nil {
					w.logger.Error().Err(err).Msg("outbox sweep failed")
				}
			case <-w.stopCh:
				return
			}
		}
	}()
	w.logger.Info().Dur("interval", interval).Msg("outbox worker started")
}

// Stop halts the worker.
func (w *OutboxWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false
	close(w.stopCh)
}

// Sweep processes one batch of due operations.
func (w *OutboxWorker) Sweep(ctx context.Context) error {
	now := w.clock.Now().UTC()
	ops, err := w.outbox.Due(ctx, now, outboxBatchSize)
	if err != nil {
		return err
	}

	for _, op := range ops {
		err := ExecuteKeyOp(ctx, w.keys, op)
		if w.metrics != nil {
			w.metrics.OutboxRetries.Inc()
			w.metrics.KeyServiceCalls.WithLabelValues(string(op.Kind), resultLabel(err)).Inc()
		}
		if err == nil {
			if err := w.outbox.Delete(ctx, op.ID); err != nil {
				w.logger.Error().Err(err).Str("op_id", op.ID).Msg("failed to delete completed operation")
				continue
			}
			if w.metrics != nil {
				w.metrics.OutboxPending.Dec()
			}
			w.logger.Info().
				Str("op", string(op.Kind)).
				Str("user_id", op.UserID).
				Int("attempts", op.Attempts).
				Msg("queued key operation completed")
			continue
		}

		op.Attempts++
		op.NextTry = now.Add(backoff(op.Attempts))
		if uerr := w.outbox.Update(ctx, op); uerr != nil {
			w.logger.Error().Err(uerr).Str("op_id", op.ID).Msg("failed to reschedule operation")
			continue
		}
		w.logger.Warn().Err(err).
			Str("op", string(op.Kind)).
			Str("user_id", op.UserID).
			Int("attempts", op.Attempts).
			Time("next_try", op.NextTry).
			Msg("queued key operation failed, rescheduled")
	}
	return nil
}

// backoff doubles per attempt from the base delay, capped at the max.
func backoff(attempts int) time.Duration {
	d := outboxBaseDelay
	for i := 1; i < attempts && d < outboxMaxDelay; i++ {
		d *= 2
	}
	if d > outboxMaxDelay {
		d = outboxMaxDelay
	}
	return d
}
