package app

import (
	"context"
	"testing"
	"time"

	"github.com/artpar/shopgate/adapters/clock"
	"github.com/artpar/shopgate/adapters/email"
	"github.com/artpar/shopgate/adapters/memory"
	"github.com/artpar/shopgate/domain/billing"
	"github.com/artpar/shopgate/ports"
	"github.com/rs/zerolog"
)

type reminderFixture struct {
	svc           *ReminderService
	subscriptions *memory.SubscriptionStore
	users         *memory.UserStore
	sender        *email.MockSender
	clock         *clock.Fake
}

func newReminderFixture(t *testing.T) *reminderFixture {
	t.Helper()
	f := &reminderFixture{
		subscriptions: memory.NewSubscriptionStore(),
		users:         memory.NewUserStore(),
		sender:        email.NewMockSender(),
		clock:         clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
	}
	f.svc = NewReminderService(f.subscriptions, f.users, f.sender, f.clock, nil, zerolog.Nop())

	ctx := context.Background()
	now := f.clock.Now()
	f.users.Create(ctx, ports.User{ID: "user-1", Email: "alice@example.com", Name: "Alice", CreatedAt: now, UpdatedAt: now})
	return f
}

func (f *reminderFixture) putExpiry(t *testing.T, userID string, at time.Time) {
	t.Helper()
	rec := billing.Record{UserID: userID, APIKey: "key-abc", UpdatedAt: f.clock.Now()}
	rec = rec.WithExpiry(at)
	if err := f.subscriptions.Put(context.Background(), rec); err != nil {
		t.Fatalf("put record: %v", err)
	}
}

func TestReminderAtSevenDays(t *testing.T) {
	f := newReminderFixture(t)
	f.putExpiry(t, "user-1", f.clock.Now().Add(7*24*time.Hour))

	if err := f.svc.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	sent := f.sender.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(sent))
	}
	if sent[0].To != "alice@example.com" {
		t.Errorf("to = %q", sent[0].To)
	}
	if sent[0].Subject != "Your subscription expires in 7 days" {
		t.Errorf("subject = %q", sent[0].Subject)
	}
}

func TestReminderOnExpiryDay(t *testing.T) {
	f := newReminderFixture(t)
	f.putExpiry(t, "user-1", f.clock.Now().Add(6*time.Hour))

	if err := f.svc.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	sent := f.sender.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(sent))
	}
	if sent[0].Subject != "Your subscription expires today" {
		t.Errorf("subject = %q", sent[0].Subject)
	}
}

func TestReminderOffMarkDaysSendNothing(t *testing.T) {
	f := newReminderFixture(t)
	ctx := context.Background()

	for _, days := range []int{10, 5, 2, 1} {
		f.putExpiry(t, "user-1", f.clock.Now().Add(time.Duration(days)*24*time.Hour+time.Hour))
		if err := f.svc.Sweep(ctx); err != nil {
			t.Fatalf("sweep at %d days: %v", days, err)
		}
	}
	if sent := f.sender.Sent(); len(sent) != 0 {
		t.Errorf("sent = %v", sent)
	}
}

func TestReminderSkipsExpiredRecords(t *testing.T) {
	f := newReminderFixture(t)
	f.putExpiry(t, "user-1", f.clock.Now().Add(-48*time.Hour))

	if err := f.svc.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if sent := f.sender.Sent(); len(sent) != 0 {
		t.Errorf("sent = %v", sent)
	}
}

func TestReminderSkipsKeyExpiredEarlierToday(t *testing.T) {
	f := newReminderFixture(t)
	// Expired two hours ago, same UTC day. An "expires today" mail here
	// would be a lie.
	f.putExpiry(t, "user-1", f.clock.Now().Add(-2*time.Hour))

	if err := f.svc.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if sent := f.sender.Sent(); len(sent) != 0 {
		t.Errorf("sent = %v", sent)
	}
}

func TestReminderSkipsUnknownUser(t *testing.T) {
	f := newReminderFixture(t)
	f.putExpiry(t, "ghost", f.clock.Now().Add(3*24*time.Hour))

	if err := f.svc.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if sent := f.sender.Sent(); len(sent) != 0 {
		t.Errorf("sent = %v", sent)
	}
}

func TestReminderStartStop(t *testing.T) {
	f := newReminderFixture(t)
	f.svc.Start(time.Hour)
	f.svc.Start(time.Hour)
	f.svc.Stop()
	f.svc.Stop()
}
