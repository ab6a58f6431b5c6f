package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/artpar/shopgate/domain/catalog"
	"github.com/artpar/shopgate/ports"
)

// ProductStore implements ports.ProductStore using SQLite.
type ProductStore struct {
	db *DB
}

// NewProductStore creates a new SQLite product store.
func NewProductStore(db *DB) *ProductStore {
	return &ProductStore{db: db}
}

const productColumns = `id, name, description, price_cents, digital, subscription,
	subscription_interval, subscription_price_cents, subscription_role, created_at, updated_at`

// Get retrieves a product by ID.
func (s *ProductStore) Get(ctx context.Context, id string) (catalog.Product, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = ?
	`, id)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Product{}, ErrNotFound
	}
	return p, err
}

// List returns all products.
func (s *ProductStore) List(ctx context.Context) ([]catalog.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Create stores a new product.
func (s *ProductStore) Create(ctx context.Context, p catalog.Product) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Description, p.PriceCents, p.Digital, p.Subscription,
		string(p.SubscriptionInterval), p.SubscriptionPriceCents, p.SubscriptionRole,
		p.CreatedAt, p.UpdatedAt)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (catalog.Product, error) {
	var p catalog.Product
	var interval string
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.Digital,
		&p.Subscription, &interval, &p.SubscriptionPriceCents, &p.SubscriptionRole,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return catalog.Product{}, err
	}
	p.SubscriptionInterval = catalog.Interval(interval)
	return p, nil
}

// Ensure interface compliance.
var _ ports.ProductStore = (*ProductStore)(nil)
