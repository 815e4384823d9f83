package bom

import (
	"context"

	"github.com/fekuna/fabshop-inventory-service/internal/bom/dto"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
)

type UseCase interface {
	GetOrCreateOrderBom(ctx context.Context, orderID, orderNumber string) (*model.OrderBom, error)
	// GetOrderBom lazily creates the BOM of an existing order.
	GetOrderBom(ctx context.Context, orderID string) (*model.OrderBom, error)
	// FindOrderBom never creates. nil, nil when the order has no BOM.
	FindOrderBom(ctx context.Context, orderID string) (*model.OrderBom, error)
	UpsertOrderBom(ctx context.Context, input *dto.UpsertBomInput) (*model.OrderBom, error)
	RecordConsumption(ctx context.Context, rec *dto.ConsumptionRecord) (*model.OrderBom, error)
}
