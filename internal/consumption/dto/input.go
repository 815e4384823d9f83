package dto

import (
	"github.com/fekuna/fabshop-inventory-service/internal/auth"
	ledgerdto "github.com/fekuna/fabshop-inventory-service/internal/inventory/dto"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
	"github.com/shopspring/decimal"
)

type ConsumeItem struct {
	MaterialID string           `json:"materialId" validate:"required"`
	Qty        decimal.Decimal  `json:"qty"`
	UnitCost   *decimal.Decimal `json:"unitCost,omitempty"`
	Notes      string           `json:"notes" validate:"max=500"`
}

type ConsumeInput struct {
	OrderID string        `json:"orderId" validate:"required"`
	Items   []ConsumeItem `json:"items"`
	Actor   auth.Actor    `json:"-"`
}

type ConsumeResult struct {
	Items []ledgerdto.ApplyResult `json:"items"`
	Bom   *model.OrderBom         `json:"bom"`
}
