package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fekuna/fabshop-inventory-service/internal/order"
	"github.com/jmoiron/sqlx"
)

// PGDirectory reads the order workflow's orders table.
type PGDirectory struct {
	DB *sqlx.DB
}

func NewPGDirectory(db *sqlx.DB) *PGDirectory {
	return &PGDirectory{DB: db}
}

func (r *PGDirectory) Exists(ctx context.Context, orderID string) (bool, error) {
	var exists bool
	err := r.DB.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM orders WHERE id::text = $1)`, orderID)
	return exists, err
}

func (r *PGDirectory) Get(ctx context.Context, orderID string) (*order.Order, error) {
	var o order.Order
	query := `
        SELECT id::text AS id, order_number, COALESCE(owner_user_id::text, '') AS owner_user_id
        FROM orders
        WHERE id::text = $1
        LIMIT 1
    `
	err := r.DB.GetContext(ctx, &o, query, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}
