package dto

import (
	"github.com/fekuna/fabshop-inventory-service/internal/auth"
	"github.com/fekuna/fabshop-inventory-service/internal/inventory/alert"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
	"github.com/shopspring/decimal"
)

type ApplyInput struct {
	MaterialID  string
	Type        model.TransactionType
	QtyDelta    decimal.Decimal
	UnitCost    *decimal.Decimal
	Notes       string
	Ref         model.TransactionRef
	ActorUserID string
	Alert       alert.Context
}

type ApplyResult struct {
	Material    *model.Material             `json:"material"`
	Transaction *model.InventoryTransaction `json:"transaction"`
}

// MovementInput is a manual receipt or adjustment.
type MovementInput struct {
	MaterialID string           `json:"materialId"`
	Qty        decimal.Decimal  `json:"qty"`
	UnitCost   *decimal.Decimal `json:"unitCost,omitempty"`
	Notes      string           `json:"notes"`
	Actor      auth.Actor       `json:"-"`
}
