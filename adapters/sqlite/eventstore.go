package sqlite

import (
	"context"
	"time"

	"github.com/artpar/shopgate/ports"
)

// ProcessedEventStore implements ports.ProcessedEventStore using SQLite.
type ProcessedEventStore struct {
	db *DB
}

// NewProcessedEventStore creates a new SQLite processed-event store.
func NewProcessedEventStore(db *DB) *ProcessedEventStore {
	return &ProcessedEventStore{db: db}
}

// Seen reports whether the event ID is recorded.
func (s *ProcessedEventStore) Seen(ctx context.Context, eventID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM processed_events WHERE id = ?
	`, eventID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Mark records the event ID as applied.
func (s *ProcessedEventStore) Mark(ctx context.Context, eventID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO processed_events (id, seen_at)
		VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, eventID, at)
	return err
}

// Prune removes entries recorded before the cutoff.
func (s *ProcessedEventStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM processed_events WHERE seen_at < ?
	`, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Ensure interface compliance.
var _ ports.ProcessedEventStore = (*ProcessedEventStore)(nil)
