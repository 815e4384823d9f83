package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/fekuna/fabshop-inventory-service/internal/model"
	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

// Columns is the select list matching Row. The ledger store reuses it for its locked reads.
const Columns = `id, sku, name, category, unit, spec, is_active, default_unit_cost, avg_unit_cost,
    on_hand_qty, reorder_point_qty, reorder_target_qty, is_low, last_alert_at, last_alert_qty,
    created_at, updated_at`

type Row struct {
	ID               string              `db:"id"`
	SKU              string              `db:"sku"`
	Name             string              `db:"name"`
	Category         string              `db:"category"`
	Unit             string              `db:"unit"`
	Spec             types.JSONText      `db:"spec"`
	IsActive         bool                `db:"is_active"`
	DefaultUnitCost  decimal.NullDecimal `db:"default_unit_cost"`
	AvgUnitCost      decimal.NullDecimal `db:"avg_unit_cost"`
	OnHandQty        decimal.Decimal     `db:"on_hand_qty"`
	ReorderPointQty  decimal.Decimal     `db:"reorder_point_qty"`
	ReorderTargetQty decimal.Decimal     `db:"reorder_target_qty"`
	IsLow            bool                `db:"is_low"`
	LastAlertAt      sql.NullTime        `db:"last_alert_at"`
	LastAlertQty     decimal.NullDecimal `db:"last_alert_qty"`
	CreatedAt        time.Time           `db:"created_at"`
	UpdatedAt        time.Time           `db:"updated_at"`
}

func ToRow(m *model.Material) (*Row, error) {
	spec, err := json.Marshal(m.Spec.Normalize())
	if err != nil {
		return nil, err
	}
	r := &Row{
		ID:               m.ID,
		SKU:              m.SKU,
		Name:             m.Name,
		Category:         m.Category,
		Unit:             m.Unit,
		Spec:             types.JSONText(spec),
		IsActive:         m.IsActive,
		DefaultUnitCost:  nullDecimal(m.DefaultUnitCost),
		AvgUnitCost:      nullDecimal(m.AvgUnitCost),
		OnHandQty:        m.OnHandQty,
		ReorderPointQty:  m.ReorderPointQty,
		ReorderTargetQty: m.ReorderTargetQty,
		IsLow:            m.LowStock.IsLow,
		LastAlertQty:     nullDecimal(m.LowStock.LastAlertQty),
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	if m.LowStock.LastAlertAt != nil {
		r.LastAlertAt = sql.NullTime{Time: *m.LowStock.LastAlertAt, Valid: true}
	}
	return r, nil
}

func (r *Row) ToModel() (*model.Material, error) {
	m := &model.Material{
		ID:               r.ID,
		SKU:              r.SKU,
		Name:             r.Name,
		Category:         r.Category,
		Unit:             r.Unit,
		IsActive:         r.IsActive,
		DefaultUnitCost:  decimalPtr(r.DefaultUnitCost),
		AvgUnitCost:      decimalPtr(r.AvgUnitCost),
		OnHandQty:        r.OnHandQty,
		ReorderPointQty:  r.ReorderPointQty,
		ReorderTargetQty: r.ReorderTargetQty,
		LowStock: model.LowStockState{
			IsLow:        r.IsLow,
			LastAlertQty: decimalPtr(r.LastAlertQty),
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if err := m.Spec.Scan([]byte(r.Spec)); err != nil {
		return nil, err
	}
	if r.LastAlertAt.Valid {
		t := r.LastAlertAt.Time
		m.LowStock.LastAlertAt = &t
	}
	return m, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func decimalPtr(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := n.Decimal
	return &d
}
