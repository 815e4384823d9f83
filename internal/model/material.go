package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LowStockState is the per-material alert memory maintained by the ledger.
type LowStockState struct {
	IsLow        bool             `json:"isLow"`
	LastAlertAt  *time.Time       `json:"lastAlertAt"`
	LastAlertQty *decimal.Decimal `json:"lastAlertQty"`
}

// Material is a trackable raw material. OnHandQty and LowStock change only through the ledger.
type Material struct {
	ID               string           `json:"id"`
	SKU              string           `json:"sku"`
	Name             string           `json:"name"`
	Category         string           `json:"category"`
	Unit             string           `json:"unit"`
	Spec             Attributes       `json:"spec"`
	IsActive         bool             `json:"isActive"`
	DefaultUnitCost  *decimal.Decimal `json:"defaultUnitCost"`
	AvgUnitCost      *decimal.Decimal `json:"avgUnitCost"`
	OnHandQty        decimal.Decimal  `json:"onHandQty"`
	ReorderPointQty  decimal.Decimal  `json:"reorderPointQty"`
	ReorderTargetQty decimal.Decimal  `json:"reorderTargetQty"`
	LowStock         LowStockState    `json:"lowStock"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// Snapshot captures the identity fields denormalized onto BOM lines.
func (m *Material) Snapshot() MaterialSnapshot {
	return MaterialSnapshot{
		SKU:  m.SKU,
		Name: m.Name,
		Unit: m.Unit,
		Spec: m.Spec.Normalize(),
	}
}

// Clone returns a deep copy so in-memory stores never share mutable state with callers.
func (m *Material) Clone() *Material {
	if m == nil {
		return nil
	}
	c := *m
	c.Spec = m.Spec.Normalize()
	if m.DefaultUnitCost != nil {
		v := *m.DefaultUnitCost
		c.DefaultUnitCost = &v
	}
	if m.AvgUnitCost != nil {
		v := *m.AvgUnitCost
		c.AvgUnitCost = &v
	}
	if m.LowStock.LastAlertAt != nil {
		v := *m.LowStock.LastAlertAt
		c.LowStock.LastAlertAt = &v
	}
	if m.LowStock.LastAlertQty != nil {
		v := *m.LowStock.LastAlertQty
		c.LowStock.LastAlertQty = &v
	}
	return &c
}
