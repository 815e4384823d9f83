package bom

import (
	"time"

	"github.com/fekuna/fabshop-inventory-service/internal/bom/dto"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
	"github.com/google/uuid"
)

// ApplyConsumption adds rec to the first line for its material, or appends an unplanned
// line when there is none. Replaying a txn id already on the line is a no-op.
func ApplyConsumption(b *model.OrderBom, rec *dto.ConsumptionRecord, now time.Time) {
	qty := model.RoundQty(rec.Qty, rec.Places)

	if i := b.LineFor(rec.MaterialID); i >= 0 {
		line := &b.Lines[i]
		for _, id := range line.ConsumptionTxnIDs {
			if id == rec.TxnID {
				return
			}
		}
		line.ConsumedQty = model.RoundQty(line.ConsumedQty.Add(qty), rec.Places)
		line.ConsumptionTxnIDs = append(line.ConsumptionTxnIDs, rec.TxnID)
	} else {
		b.Lines = append(b.Lines, model.BomLine{
			LineID:            uuid.New().String(),
			MaterialID:        rec.MaterialID,
			MaterialSnapshot:  rec.Snapshot,
			ConsumedQty:       qty,
			Unplanned:         true,
			ConsumptionTxnIDs: []string{rec.TxnID},
		})
	}
	if b.OrderNumber == "" {
		b.OrderNumber = rec.OrderNumber
	}
	b.UpdatedAt = now
}

// NewDraft is the empty BOM created on first access.
func NewDraft(orderID, orderNumber string, now time.Time) *model.OrderBom {
	return &model.OrderBom{
		OrderID:     orderID,
		OrderNumber: orderNumber,
		Status:      model.BomDraft,
		Lines:       []model.BomLine{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
