package dto

import (
	"github.com/fekuna/fabshop-inventory-service/internal/model"
	"github.com/shopspring/decimal"
)

// UpsertBomInput patches a BOM. Nil Status or Lines leave that part unchanged;
// a non-nil Lines replaces every line.
type UpsertBomInput struct {
	OrderID string          `json:"orderId" validate:"required"`
	Status  *string         `json:"status,omitempty"`
	Lines   *[]BomLineInput `json:"lines,omitempty"`
}

type BomLineInput struct {
	LineID            string          `json:"lineId"`
	MaterialID        string          `json:"materialId" validate:"required"`
	PlannedQty        decimal.Decimal `json:"plannedQty"`
	ConsumedQty       decimal.Decimal `json:"consumedQty"`
	ScrapPct          decimal.Decimal `json:"scrapPct"`
	Notes             string          `json:"notes" validate:"max=500"`
	Unplanned         bool            `json:"unplanned"`
	ConsumptionTxnIDs []string        `json:"consumptionTxnIds"`
}

// ConsumptionRecord is one committed CONSUME to be reflected on the order's BOM.
type ConsumptionRecord struct {
	OrderID     string
	OrderNumber string
	MaterialID  string
	Snapshot    model.MaterialSnapshot
	Qty         decimal.Decimal
	TxnID       string
	Places      int32
}
