package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/fabshop-inventory-service/internal/inventory/dto"
	"github.com/xuri/excelize/v2"
)

const ledgerSheet = "Ledger"

var ledgerHeadings = []string{"At", "Type", "Qty Delta", "Balance After", "Unit Cost", "Order Number", "Notes", "Actor"}

// ExportMaterialLedger renders the same rows as GetMaterialLedger into an XLSX workbook.
func (uc *ledgerUseCase) ExportMaterialLedger(ctx context.Context, filters *dto.LedgerFilters) ([]byte, error) {
	txns, err := uc.GetMaterialLedger(ctx, filters)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", ledgerSheet); err != nil {
		return nil, err
	}

	col := 'A'
	for _, h := range ledgerHeadings {
		f.SetCellValue(ledgerSheet, string(col)+"1", h)
		col++
	}

	for i, t := range txns {
		row := fmt.Sprint(i + 2)
		f.SetCellValue(ledgerSheet, "A"+row, t.At.UTC().Format(time.RFC3339))
		f.SetCellValue(ledgerSheet, "B"+row, string(t.Type))
		f.SetCellValue(ledgerSheet, "C"+row, t.QtyDelta.InexactFloat64())
		f.SetCellValue(ledgerSheet, "D"+row, t.BalanceAfter.InexactFloat64())
		if t.UnitCost != nil {
			f.SetCellValue(ledgerSheet, "E"+row, t.UnitCost.InexactFloat64())
		}
		f.SetCellValue(ledgerSheet, "F"+row, t.Ref.OrderNumber)
		f.SetCellValue(ledgerSheet, "G"+row, t.Notes)
		f.SetCellValue(ledgerSheet, "H"+row, t.ActorUserID)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
