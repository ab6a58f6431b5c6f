package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/artpar/shopgate/domain/billing"
	"github.com/artpar/shopgate/ports"
)

// SubscriptionStore implements ports.SubscriptionStore using SQLite.
type SubscriptionStore struct {
	db *DB
}

// NewSubscriptionStore creates a new SQLite subscription store.
func NewSubscriptionStore(db *DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

// Get retrieves the record for a user. Users without a key have a zero
// record, not an error.
func (s *SubscriptionStore) Get(ctx context.Context, userID string) (billing.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, api_key, key_expires_at, updated_at
		FROM subscriptions
		WHERE user_id = ?
	`, userID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return billing.Record{UserID: userID}, nil
	}
	return rec, err
}

// Put stores the record for a user.
func (s *SubscriptionStore) Put(ctx context.Context, rec billing.Record) error {
	var expiry sql.NullTime
	if rec.KeyExpiresAt != nil {
		expiry = sql.NullTime{Time: *rec.KeyExpiresAt, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subscriptions (user_id, api_key, key_expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			api_key = excluded.api_key,
			key_expires_at = excluded.key_expires_at,
			updated_at = excluded.updated_at
	`, rec.UserID, rec.APIKey, expiry, rec.UpdatedAt)
	return err
}

// ListWithExpiry returns all records that track an expiry.
func (s *SubscriptionStore) ListWithExpiry(ctx context.Context) ([]billing.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, api_key, key_expires_at, updated_at
		FROM subscriptions
		WHERE key_expires_at IS NOT NULL
		ORDER BY key_expires_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []billing.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRecord(row scanner) (billing.Record, error) {
	var rec billing.Record
	var expiry sql.NullTime
	err := row.Scan(&rec.UserID, &rec.APIKey, &expiry, &rec.UpdatedAt)
	if err != nil {
		return billing.Record{}, err
	}
	if expiry.Valid {
		t := expiry.Time.UTC()
		rec.KeyExpiresAt = &t
	}
	return rec, nil
}

// Ensure interface compliance.
var _ ports.SubscriptionStore = (*SubscriptionStore)(nil)
