// Package order is the read-only view this service has of production orders.
// Orders are owned by the order workflow; nothing here writes them.
package order

import "context"

type Order struct {
	ID          string `db:"id"`
	OrderNumber string `db:"order_number"`
	OwnerUserID string `db:"owner_user_id"`
}

type Directory interface {
	Exists(ctx context.Context, orderID string) (bool, error)
	// Get returns nil, nil when the order does not exist.
	Get(ctx context.Context, orderID string) (*Order, error)
}
