package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/artpar/shopgate/adapters/clock"
	"github.com/artpar/shopgate/adapters/memory"
	"github.com/artpar/shopgate/ports"
	"github.com/rs/zerolog"
)

func TestOutboxSweepCompletesOperation(t *testing.T) {
	ctx := context.Background()
	outbox := memory.NewOutboxStore()
	keys := &mockKeyService{}
	fakeClock := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	worker := NewOutboxWorker(outbox, keys, fakeClock, nil, zerolog.Nop())

	now := fakeClock.Now()
	outbox.Enqueue(ctx, ports.KeyOp{
		ID: "op-1", Kind: ports.KeyOpCreate, UserID: "user-1",
		Email: "alice@example.com", APIKey: "key-abc",
		ValidTo: now.AddDate(0, 1, 0), NextTry: now, CreatedAt: now,
	})

	if err := worker.Sweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if outbox.Pending() != 0 {
		t.Errorf("pending = %d, want 0", outbox.Pending())
	}
	calls := keys.Calls()
	if len(calls) != 1 || calls[0] != "create alice@example.com key-abc" {
		t.Errorf("calls = %v", calls)
	}
}

func TestOutboxSweepReschedulesFailure(t *testing.T) {
	ctx := context.Background()
	outbox := memory.NewOutboxStore()
	keys := &mockKeyService{}
	keys.setFail(errors.New("still down"))
	fakeClock := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	worker := NewOutboxWorker(outbox, keys, fakeClock, nil, zerolog.Nop())

	now := fakeClock.Now()
	outbox.Enqueue(ctx, ports.KeyOp{
		ID: "op-1", Kind: ports.KeyOpExpire, UserID: "user-1",
		Attempts: 1, NextTry: now, CreatedAt: now,
	})

	if err := worker.Sweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if outbox.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", outbox.Pending())
	}

	// Rescheduled with one more attempt and a future NextTry.
	ops, _ := outbox.Due(ctx, now.Add(24*time.Hour), 10)
	if len(ops) != 1 {
		t.Fatalf("due = %v", ops)
	}
	if ops[0].Attempts != 2 {
		t.Errorf("attempts = %d, want 2", ops[0].Attempts)
	}
	if !ops[0].NextTry.After(now) {
		t.Errorf("next try = %v, not after %v", ops[0].NextTry, now)
	}

	// Nothing is due again before the backoff elapses.
	due, _ := outbox.Due(ctx, now, 10)
	if len(due) != 0 {
		t.Errorf("due immediately = %v", due)
	}

	// Once the service recovers, the retry drains the queue.
	keys.setFail(nil)
	fakeClock.Advance(24 * time.Hour)
	if err := worker.Sweep(ctx); err != nil {
		t.Fatalf("recovery sweep: %v", err)
	}
	if outbox.Pending() != 0 {
		t.Errorf("pending after recovery = %d", outbox.Pending())
	}
}

func TestOutboxBackoffCaps(t *testing.T) {
	cases := []struct {
		attempts int
		want     time.Duration
	}{
		{1, time.Minute},
		{2, 2 * time.Minute},
		{4, 8 * time.Minute},
		{10, time.Hour},
		{100, time.Hour},
	}
	for _, tc := range cases {
		if got := backoff(tc.attempts); got != tc.want {
			t.Errorf("backoff(%d) = %v, want %v", tc.attempts, got, tc.want)
		}
	}
}

func TestOutboxStartStop(t *testing.T) {
	worker := NewOutboxWorker(memory.NewOutboxStore(), &mockKeyService{}, clock.Real{}, nil, zerolog.Nop())
	worker.Start(time.Hour)
	worker.Start(time.Hour) // second start is a no-op
	worker.Stop()
	worker.Stop() // second stop must not panic
}
