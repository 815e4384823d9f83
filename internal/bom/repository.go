package bom

import (
	"context"

	"github.com/fekuna/fabshop-inventory-service/internal/bom/dto"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
)

type Repository interface {
	// GetOrCreate returns the order's BOM, inserting an empty draft when none exists.
	GetOrCreate(ctx context.Context, orderID, orderNumber string) (*model.OrderBom, error)
	// FindByOrderID returns nil, nil when the order has no BOM yet.
	FindByOrderID(ctx context.Context, orderID string) (*model.OrderBom, error)
	// Update creates the BOM if needed, then runs fn on the row while holding it
	// exclusively and stores the result. Nothing is written when fn fails.
	Update(ctx context.Context, orderID, orderNumber string, fn func(b *model.OrderBom) error) (*model.OrderBom, error)
	// RecordConsumption merges rec into the BOM row while holding it exclusively.
	RecordConsumption(ctx context.Context, rec *dto.ConsumptionRecord) (*model.OrderBom, error)
}
