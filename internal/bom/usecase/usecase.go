package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/fabshop-inventory-service/internal/apperr"
	"github.com/fekuna/fabshop-inventory-service/internal/bom"
	"github.com/fekuna/fabshop-inventory-service/internal/bom/dto"
	"github.com/fekuna/fabshop-inventory-service/internal/logger"
	"github.com/fekuna/fabshop-inventory-service/internal/material"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
	"github.com/fekuna/fabshop-inventory-service/internal/order"
	"github.com/fekuna/fabshop-inventory-service/internal/settings"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var maxScrapPct = decimal.NewFromInt(100)

type bomUseCase struct {
	repo      bom.Repository
	materials material.Repository
	orders    order.Directory
	settings  settings.UseCase
	logger    logger.ZapLogger
}

func NewBomUseCase(
	repo bom.Repository,
	materials material.Repository,
	orders order.Directory,
	settingsUC settings.UseCase,
	log logger.ZapLogger,
) bom.UseCase {
	return &bomUseCase{
		repo:      repo,
		materials: materials,
		orders:    orders,
		settings:  settingsUC,
		logger:    log,
	}
}

func (uc *bomUseCase) GetOrCreateOrderBom(ctx context.Context, orderID, orderNumber string) (*model.OrderBom, error) {
	return uc.repo.GetOrCreate(ctx, orderID, orderNumber)
}

func (uc *bomUseCase) GetOrderBom(ctx context.Context, orderID string) (*model.OrderBom, error) {
	o, err := uc.lookupOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return uc.repo.GetOrCreate(ctx, o.ID, o.OrderNumber)
}

func (uc *bomUseCase) FindOrderBom(ctx context.Context, orderID string) (*model.OrderBom, error) {
	return uc.repo.FindByOrderID(ctx, orderID)
}

func (uc *bomUseCase) UpsertOrderBom(ctx context.Context, input *dto.UpsertBomInput) (*model.OrderBom, error) {
	if err := apperr.ValidateStruct("order_bom", input); err != nil {
		return nil, err
	}

	var status model.BomStatus
	if input.Status != nil {
		status = model.BomStatus(strings.ToLower(strings.TrimSpace(*input.Status)))
		if !status.Valid() {
			return nil, apperr.Validation("order_bom", "status must be one of [draft locked completed]")
		}
	}

	o, err := uc.lookupOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}

	var lines []model.BomLine
	if input.Lines != nil {
		s, err := uc.settings.GetSettings(ctx)
		if err != nil {
			return nil, err
		}
		lines = make([]model.BomLine, 0, len(*input.Lines))
		for i := range *input.Lines {
			line, err := uc.normalizeLine(ctx, &(*input.Lines)[i], s.Places())
			if err != nil {
				return nil, err
			}
			lines = append(lines, line)
		}
	}

	// Lines are replaced only when sent; the rest of the row comes from the locked read.
	b, err := uc.repo.Update(ctx, o.ID, o.OrderNumber, func(b *model.OrderBom) error {
		if input.Status != nil {
			b.Status = status
		}
		if input.Lines != nil {
			b.Lines = lines
		}
		if b.OrderNumber == "" {
			b.OrderNumber = o.OrderNumber
		}
		b.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.logger.Info("order bom updated",
		zap.String("order_id", b.OrderID),
		zap.String("status", string(b.Status)),
		zap.Int("lines", len(b.Lines)),
	)
	return b, nil
}

func (uc *bomUseCase) RecordConsumption(ctx context.Context, rec *dto.ConsumptionRecord) (*model.OrderBom, error) {
	return uc.repo.RecordConsumption(ctx, rec)
}

func (uc *bomUseCase) lookupOrder(ctx context.Context, orderID string) (*order.Order, error) {
	o, err := uc.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.NotFound("order", orderID)
	}
	return o, nil
}

func (uc *bomUseCase) normalizeLine(ctx context.Context, in *dto.BomLineInput, places int32) (model.BomLine, error) {
	l := *in
	l.MaterialID = strings.TrimSpace(l.MaterialID)
	l.Notes = strings.TrimSpace(l.Notes)
	if err := apperr.ValidateStruct("bom_line", &l); err != nil {
		return model.BomLine{}, err
	}

	m, err := uc.materials.FindByID(ctx, l.MaterialID)
	if err != nil {
		return model.BomLine{}, err
	}
	if m == nil {
		return model.BomLine{}, apperr.NotFound("material", l.MaterialID)
	}

	for _, q := range []decimal.Decimal{l.PlannedQty, l.ConsumedQty, l.ScrapPct} {
		if !model.QtyInRange(q) {
			return model.BomLine{}, apperr.Validation("bom_line", "quantity is out of range for material %s", m.ID)
		}
	}

	lineID := strings.TrimSpace(l.LineID)
	if lineID == "" {
		lineID = uuid.New().String()
	}
	return model.BomLine{
		LineID:            lineID,
		MaterialID:        m.ID,
		MaterialSnapshot:  m.Snapshot(),
		PlannedQty:        nonNegative(l.PlannedQty, places),
		ConsumedQty:       nonNegative(l.ConsumedQty, places),
		ScrapPct:          clampScrap(l.ScrapPct),
		Notes:             l.Notes,
		Unplanned:         l.Unplanned,
		ConsumptionTxnIDs: dedupe(l.ConsumptionTxnIDs),
	}, nil
}

func nonNegative(q decimal.Decimal, places int32) decimal.Decimal {
	q = model.RoundQty(q, places)
	if q.IsNegative() {
		return decimal.Zero
	}
	return q
}

func clampScrap(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(maxScrapPct) {
		return maxScrapPct
	}
	return p
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
