package sqlite

import (
	"context"
	"fmt"

	"github.com/artpar/shopgate/domain/cart"
	"github.com/artpar/shopgate/ports"
)

// CartStore implements ports.CartStore using SQLite.
type CartStore struct {
	db *DB
}

// NewCartStore creates a new SQLite cart store.
func NewCartStore(db *DB) *CartStore {
	return &CartStore{db: db}
}

// Get retrieves the cart lines for a session, empty if absent.
func (s *CartStore) Get(ctx context.Context, sessionID string) ([]cart.Line, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, quantity
		FROM cart_lines
		WHERE session_id = ?
		ORDER BY position
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []cart.Line
	for rows.Next() {
		var line cart.Line
		if err := rows.Scan(&line.ProductID, &line.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// Put stores the cart lines for a session, replacing any previous set.
func (s *CartStore) Put(ctx context.Context, sessionID string, lines []cart.Line) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_lines WHERE session_id = ?`, sessionID); err != nil {
		return err
	}
	for pos, line := range lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cart_lines (session_id, product_id, quantity, position)
			VALUES (?, ?, ?, ?)
		`, sessionID, line.ProductID, line.Quantity, pos)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Delete removes a session's cart.
func (s *CartStore) Delete(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cart_lines WHERE session_id = ?`, sessionID)
	return err
}

// Ensure interface compliance.
var _ ports.CartStore = (*CartStore)(nil)
