package inventory

import (
	"context"

	"github.com/fekuna/fabshop-inventory-service/internal/model"
)

// Store persists stock levels and the transaction ledger.
type Store interface {
	// WithinTx runs fn in one unit of work. Any error from fn rolls everything back.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	// ListByMaterial returns up to limit transactions, newest first.
	ListByMaterial(ctx context.Context, materialID string, limit int) ([]model.InventoryTransaction, error)
}

// Tx is the view of the store inside a unit of work.
type Tx interface {
	// LockMaterial loads the material and holds it until the unit ends. nil, nil when absent.
	LockMaterial(ctx context.Context, materialID string) (*model.Material, error)
	// SaveStock writes on-hand quantity and low-stock state.
	SaveStock(ctx context.Context, m *model.Material) error
	AppendTransaction(ctx context.Context, t *model.InventoryTransaction) error
}
