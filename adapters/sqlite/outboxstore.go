package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/artpar/shopgate/ports"
)

// OutboxStore implements ports.OutboxStore using SQLite.
type OutboxStore struct {
	db *DB
}

// NewOutboxStore creates a new SQLite outbox store.
func NewOutboxStore(db *DB) *OutboxStore {
	return &OutboxStore{db: db}
}

// Enqueue stores a pending operation, replacing any older pending
// operation for the same user.
func (s *OutboxStore) Enqueue(ctx context.Context, op ports.KeyOp) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM key_outbox WHERE user_id = ?`, op.UserID); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO key_outbox (id, kind, user_id, email, api_key, valid_to, attempts, next_try, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, op.ID, string(op.Kind), op.UserID, op.Email, op.APIKey, op.ValidTo, op.Attempts, op.NextTry, op.CreatedAt)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Due returns operations whose NextTry is at or before now.
func (s *OutboxStore) Due(ctx context.Context, now time.Time, limit int) ([]ports.KeyOp, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, user_id, email, api_key, valid_to, attempts, next_try, created_at
		FROM key_outbox
		WHERE next_try <= ?
		ORDER BY next_try
		LIMIT ?
	`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ops []ports.KeyOp
	for rows.Next() {
		var op ports.KeyOp
		var kind string
		err := rows.Scan(&op.ID, &kind, &op.UserID, &op.Email, &op.APIKey,
			&op.ValidTo, &op.Attempts, &op.NextTry, &op.CreatedAt)
		if err != nil {
			return nil, err
		}
		op.Kind = ports.KeyOpKind(kind)
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

// Update rewrites an operation's retry state.
func (s *OutboxStore) Update(ctx context.Context, op ports.KeyOp) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE key_outbox SET attempts = ?, next_try = ?
		WHERE id = ?
	`, op.Attempts, op.NextTry, op.ID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a completed operation.
func (s *OutboxStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM key_outbox WHERE id = ?`, id)
	return err
}

// DeleteForUser removes all pending operations for a user.
func (s *OutboxStore) DeleteForUser(ctx context.Context, userID string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM key_outbox WHERE user_id = ?`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Ensure interface compliance.
var _ ports.OutboxStore = (*OutboxStore)(nil)
