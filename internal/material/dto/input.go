package dto

import (
	"github.com/fekuna/fabshop-inventory-service/internal/model"
	"github.com/shopspring/decimal"
)

type CreateMaterialInput struct {
	SKU              string           `json:"sku" validate:"required,max=64"`
	Name             string           `json:"name" validate:"required,max=200"`
	Category         string           `json:"category" validate:"max=100"`
	Unit             string           `json:"unit" validate:"required,max=32"`
	Spec             model.Attributes `json:"spec"`
	DefaultUnitCost  *decimal.Decimal `json:"defaultUnitCost"`
	AvgUnitCost      *decimal.Decimal `json:"avgUnitCost"`
	ReorderPointQty  *decimal.Decimal `json:"reorderPointQty"`
	ReorderTargetQty *decimal.Decimal `json:"reorderTargetQty"`
}

// UpdateMaterialInput is a partial update; nil fields are left as they are.
type UpdateMaterialInput struct {
	ID               string            `json:"id"`
	SKU              *string           `json:"sku"`
	Name             *string           `json:"name"`
	Category         *string           `json:"category"`
	Unit             *string           `json:"unit"`
	Spec             *model.Attributes `json:"spec"`
	IsActive         *bool             `json:"isActive"`
	DefaultUnitCost  *decimal.Decimal  `json:"defaultUnitCost"`
	AvgUnitCost      *decimal.Decimal  `json:"avgUnitCost"`
	ReorderPointQty  *decimal.Decimal  `json:"reorderPointQty"`
	ReorderTargetQty *decimal.Decimal  `json:"reorderTargetQty"`
}
