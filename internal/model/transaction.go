package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxnReceipt    TransactionType = "RECEIPT"
	TxnAdjustment TransactionType = "ADJUSTMENT"
	TxnConsume    TransactionType = "CONSUME"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TxnReceipt, TxnAdjustment, TxnConsume:
		return true
	}
	return false
}

const (
	RefEntityOrder  = "order"
	RefEntityManual = "manual"
)

// TransactionRef records where a quantity change came from.
type TransactionRef struct {
	EntityType  string `json:"entityType"`
	EntityID    string `json:"entityId,omitempty"`
	OrderID     string `json:"orderId,omitempty"`
	OrderNumber string `json:"orderNumber,omitempty"`
}

// InventoryTransaction is an immutable ledger row. BalanceAfter is the material's
// on-hand quantity immediately after QtyDelta was applied.
type InventoryTransaction struct {
	ID           string           `json:"id"`
	MaterialID   string           `json:"materialId"`
	Type         TransactionType  `json:"type"`
	QtyDelta     decimal.Decimal  `json:"qtyDelta"`
	UnitCost     *decimal.Decimal `json:"unitCost"`
	Notes        string           `json:"notes"`
	Ref          TransactionRef   `json:"ref"`
	ActorUserID  string           `json:"actorUserId"`
	At           time.Time        `json:"at"`
	BalanceAfter decimal.Decimal  `json:"balanceAfter"`
}
