package material

import (
	"context"

	"github.com/fekuna/fabshop-inventory-service/internal/material/dto"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, m *model.Material) error
	// FindByID returns nil, nil when the material does not exist.
	FindByID(ctx context.Context, id string) (*model.Material, error)
	FindAll(ctx context.Context, filters *dto.MaterialFilters) ([]model.Material, int, error)
	// Update writes catalog fields only. On-hand quantity and low-stock state belong to the ledger.
	Update(ctx context.Context, m *model.Material) error

	IsSKUUnique(ctx context.Context, sku, excludeID string) (bool, error)
}
