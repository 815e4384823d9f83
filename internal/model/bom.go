package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type BomStatus string

const (
	BomDraft     BomStatus = "draft"
	BomLocked    BomStatus = "locked"
	BomCompleted BomStatus = "completed"
)

func (s BomStatus) Valid() bool {
	switch s {
	case BomDraft, BomLocked, BomCompleted:
		return true
	}
	return false
}

// MaterialSnapshot keeps a BOM line legible after the material is renamed or re-united.
type MaterialSnapshot struct {
	SKU  string     `json:"sku"`
	Name string     `json:"name"`
	Unit string     `json:"unit"`
	Spec Attributes `json:"spec"`
}

type BomLine struct {
	LineID            string           `json:"lineId"`
	MaterialID        string           `json:"materialId"`
	MaterialSnapshot  MaterialSnapshot `json:"materialSnapshot"`
	PlannedQty        decimal.Decimal  `json:"plannedQty"`
	ConsumedQty       decimal.Decimal  `json:"consumedQty"`
	ScrapPct          decimal.Decimal  `json:"scrapPct"`
	Notes             string           `json:"notes"`
	Unplanned         bool             `json:"unplanned"`
	ConsumptionTxnIDs []string         `json:"consumptionTxnIds"`
}

// OrderBom is the planned/consumed material list of one production order.
type OrderBom struct {
	OrderID     string    `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	Status      BomStatus `json:"status"`
	Lines       []BomLine `json:"lines"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// LineFor returns the index of the first line for materialID, or -1.
func (b *OrderBom) LineFor(materialID string) int {
	for i := range b.Lines {
		if b.Lines[i].MaterialID == materialID {
			return i
		}
	}
	return -1
}

func (b *OrderBom) Clone() *OrderBom {
	if b == nil {
		return nil
	}
	c := *b
	c.Lines = make([]BomLine, len(b.Lines))
	for i, l := range b.Lines {
		l.MaterialSnapshot.Spec = l.MaterialSnapshot.Spec.Normalize()
		l.ConsumptionTxnIDs = append([]string(nil), l.ConsumptionTxnIDs...)
		c.Lines[i] = l
	}
	return &c
}
