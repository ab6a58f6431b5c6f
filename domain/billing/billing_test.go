package billing

import (
	"errors"
	"testing"
	"time"
)

func TestRecordStatus(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	tests := []struct {
		name string
		rec  Record
		want Status
	}{
		{"no key", Record{}, StatusNone},
		{"key with future expiry", Record{APIKey: "k", KeyExpiresAt: &future}, StatusActive},
		{"key with past expiry", Record{APIKey: "k", KeyExpiresAt: &past}, StatusExpired},
		{"key expiring exactly now", Record{APIKey: "k", KeyExpiresAt: &now}, StatusExpired},
		{"key without expiry", Record{APIKey: "k"}, StatusExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.Status(now); got != tt.want {
				t.Errorf("Status() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithExpiryKeepsKey(t *testing.T) {
	rec := Record{UserID: "u1", APIKey: "secret"}
	at := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	out := rec.WithExpiry(at)
	if out.APIKey != "secret" {
		t.Errorf("APIKey = %q, want unchanged", out.APIKey)
	}
	if out.KeyExpiresAt == nil || !out.KeyExpiresAt.Equal(at) {
		t.Errorf("KeyExpiresAt = %v, want %v", out.KeyExpiresAt, at)
	}
	if rec.KeyExpiresAt != nil {
		t.Error("original record mutated")
	}
}

func TestParseEvent(t *testing.T) {
	payload := []byte(`{
		"id": "evt_123",
		"type": "checkout.session.completed",
		"data": {"object": {"metadata": {"user_id": "u1", "product_id": "p1"}}}
	}`)

	ev, err := ParseEvent(payload)
	if err != nil {
		t.Fatalf("ParseEvent() error = %v", err)
	}
	if ev.ID != "evt_123" || ev.Type != EventCheckoutCompleted {
		t.Errorf("event = %+v", ev)
	}
	if ev.UserID != "u1" || ev.ProductID != "p1" {
		t.Errorf("metadata = %q/%q, want u1/p1", ev.UserID, ev.ProductID)
	}
	if !ev.Handled() {
		t.Error("checkout.session.completed should be handled")
	}
}

func TestParseEventMalformed(t *testing.T) {
	for _, payload := range []string{"{not json", `{"id": "evt_1"}`} {
		if _, err := ParseEvent([]byte(payload)); !errors.Is(err, ErrMalformedEvent) {
			t.Errorf("ParseEvent(%q) error = %v, want ErrMalformedEvent", payload, err)
		}
	}
}

func TestParseEventUnknownTypePassesThrough(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"id": "evt_9", "type": "charge.refunded"}`))
	if err != nil {
		t.Fatalf("ParseEvent() error = %v", err)
	}
	if ev.Handled() {
		t.Error("charge.refunded should not be handled")
	}
}
