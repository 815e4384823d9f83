package inventory

import (
	"context"

	"github.com/fekuna/fabshop-inventory-service/internal/inventory/dto"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
)

type UseCase interface {
	// ApplyStockTransaction is the only way stock changes. s is the caller's settings snapshot.
	ApplyStockTransaction(ctx context.Context, s model.Settings, input *dto.ApplyInput) (*dto.ApplyResult, error)

	Receive(ctx context.Context, input *dto.MovementInput) (*dto.ApplyResult, error)
	Adjust(ctx context.Context, input *dto.MovementInput) (*dto.ApplyResult, error)

	GetMaterialLedger(ctx context.Context, filters *dto.LedgerFilters) ([]model.InventoryTransaction, error)
	ExportMaterialLedger(ctx context.Context, filters *dto.LedgerFilters) ([]byte, error)
}
