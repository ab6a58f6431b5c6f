package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/artpar/shopgate/adapters/metrics"
	"github.com/artpar/shopgate/ports"
	"github.com/rs/zerolog"
)

// ReminderDays are the days-before-expiry marks at which a renewal
// reminder is sent. Zero means the day the key expires.
var ReminderDays = []int{7, 3, 0}

// ReminderService sends renewal reminder emails as subscription keys
// approach expiry. Sweep is meant to run once per day; it keys off
// whole days remaining, so running it daily sends each reminder once.
type ReminderService struct {
	subscriptions ports.SubscriptionStore
	users         ports.UserStore
	email         ports.EmailSender
	clock         ports.Clock
	metrics       *metrics.Collector
	logger        zerolog.Logger

	mu      sync.Mutex
	stopCh  chan struct{}
	running bool
}

// NewReminderService creates a new reminder service.
func NewReminderService(
	subscriptions ports.SubscriptionStore,
	users ports.UserStore,
	email ports.EmailSender,
	clock ports.Clock,
	collector *metrics.Collector,
	logger zerolog.Logger,
) *ReminderService {
	return &ReminderService{
		subscriptions: subscriptions,
		users:         users,
		email:         email,
		clock:         clock,
		metrics:       collector,
		logger:        logger,
		stopCh:        make(chan struct{}),
	}
}

// Start runs the sweep at the given interval, normally 24 hours.
func (s *ReminderService) Start(interval time.Duration) {
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
				if err := s.Sweep(context.Background()); err != nil {
					s.logger.Error().Err(err).Msg("reminder sweep failed")
				}
			case <-s.stopCh:
				return
			}
		}
	}()
	s.logger.Info().Dur("interval", interval).Msg("reminder service started")
}

// Stop halts the service.
func (s *ReminderService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stopCh)
}

// Sweep sends reminders for every record whose expiry lands on one of
// the reminder marks today.
func (s *ReminderService) Sweep(ctx context.Context) error {
	now := s.clock.Now().UTC()
	records, err := s.subscriptions.ListWithExpiry(ctx)
	if err != nil {
		return err
	}

	for _, rec := range records {
		if rec.APIKey == "" || rec.KeyExpiresAt == nil {
			continue
		}
		days, due := daysUntil(now, *rec.KeyExpiresAt)
		if !due {
			continue
		}

		user, err := s.users.Get(ctx, rec.UserID)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("user_id", rec.UserID).
				Msg("reminder skipped, user lookup failed")
			continue
		}

		msg := reminderMessage(user, days)
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error().Err(err).
				Str("user_id", rec.UserID).
				Int("days_left", days).
				Msg("failed to send renewal reminder")
			continue
		}
		if s.metrics != nil {
			s.metrics.RemindersSent.Inc()
		}
		s.logger.Info().
			Str("user_id", rec.UserID).
			Int("days_left", days).
			Msg("renewal reminder sent")
	}
	return nil
}

// daysUntil reports the whole days from now until expiry and whether
// that count is one of the reminder marks. Already-expired records are
// never due.
func daysUntil(now, expiry time.Time) (int, bool) {
	if expiry.Before(now) {
		return 0, false
	}
	days := int(expiry.Sub(now).Hours() / 24)
	for _, mark := range ReminderDays {
		if days == mark {
			return days, true
		}
	}
	return days, false
}

func reminderMessage(user ports.User, days int) ports.EmailMessage {
	var subject, body string
	switch days {
	case 0:
		subject = "Your subscription expires today"
		body = fmt.Sprintf("Hi %s,\n\nYour subscription expires today. Renew now to keep your API key active.\n", user.Name)
	default:
		subject = fmt.Sprintf("Your subscription expires in %d days", days)
		body = fmt.Sprintf("Hi %s,\n\nYour subscription expires in %d days. Renew to keep your API key active without interruption.\n", user.Name, days)
	}
	return ports.EmailMessage{To: user.Email, Subject: subject, TextBody: body}
}
