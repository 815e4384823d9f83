package usecase

import (
	"context"
	"strings"

	"github.com/fekuna/fabshop-inventory-service/internal/apperr"
	"github.com/fekuna/fabshop-inventory-service/internal/auth"
	"github.com/fekuna/fabshop-inventory-service/internal/bom"
	bomdto "github.com/fekuna/fabshop-inventory-service/internal/bom/dto"
	"github.com/fekuna/fabshop-inventory-service/internal/consumption"
	"github.com/fekuna/fabshop-inventory-service/internal/consumption/dto"
	"github.com/fekuna/fabshop-inventory-service/internal/inventory"
	"github.com/fekuna/fabshop-inventory-service/internal/inventory/alert"
	ledgerdto "github.com/fekuna/fabshop-inventory-service/internal/inventory/dto"
	"github.com/fekuna/fabshop-inventory-service/internal/logger"
	"github.com/fekuna/fabshop-inventory-service/internal/material"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
	"github.com/fekuna/fabshop-inventory-service/internal/order"
	"github.com/fekuna/fabshop-inventory-service/internal/settings"
	"go.uber.org/zap"
)

type consumptionUseCase struct {
	ledger    inventory.UseCase
	boms      bom.UseCase
	materials material.Repository
	orders    order.Directory
	settings  settings.UseCase
	logger    logger.ZapLogger
}

func NewConsumptionUseCase(
	ledger inventory.UseCase,
	boms bom.UseCase,
	materials material.Repository,
	orders order.Directory,
	settingsUC settings.UseCase,
	log logger.ZapLogger,
) consumption.UseCase {
	return &consumptionUseCase{
		ledger:    ledger,
		boms:      boms,
		materials: materials,
		orders:    orders,
		settings:  settingsUC,
		logger:    log,
	}
}

// batch is the state shared by the items of one ConsumeForOrder call.
type batch struct {
	settings model.Settings
	order    *order.Order
	bom      *model.OrderBom
	actor    auth.Actor
}

func (uc *consumptionUseCase) ConsumeForOrder(ctx context.Context, input *dto.ConsumeInput) (*dto.ConsumeResult, error) {
	in := *input
	in.OrderID = strings.TrimSpace(in.OrderID)
	if err := apperr.ValidateStruct("consumption", &in); err != nil {
		return nil, err
	}
	if len(in.Items) == 0 {
		return nil, apperr.Validation("consumption", "items must not be empty")
	}

	// 1. Settings snapshot for the whole batch
	s, err := uc.settings.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if err := auth.CheckStockPermission(in.Actor, s.Permissions, auth.ActionConsume); err != nil {
		return nil, err
	}

	// 2. Resolve the order
	o, err := uc.orders.Get(ctx, in.OrderID)
	if err != nil {
		if apperr.KindOf(err) == "" {
			err = apperr.StorageUnavailable("order", err)
		}
		return nil, err
	}
	if o == nil {
		return nil, apperr.NotFound("order", in.OrderID)
	}

	// 3. Load the BOM; NO_BOM never creates one
	var b *model.OrderBom
	if s.ConsumptionMode == model.ModeNoBom {
		b, err = uc.boms.FindOrderBom(ctx, o.ID)
	} else {
		b, err = uc.boms.GetOrCreateOrderBom(ctx, o.ID, o.OrderNumber)
	}
	if err != nil {
		return nil, err
	}

	st := &batch{settings: s, order: o, bom: b, actor: in.Actor}
	result := &dto.ConsumeResult{Items: make([]ledgerdto.ApplyResult, 0, len(in.Items))}

	// 4. Items in order, each its own unit of work
	for i := range in.Items {
		applied, err := uc.consumeItem(ctx, st, &in.Items[i])
		if applied != nil {
			result.Items = append(result.Items, *applied)
		}
		if err != nil {
			uc.logger.Warn("consumption batch stopped",
				zap.String("order_id", o.ID),
				zap.Int("item", i),
				zap.Int("applied", len(result.Items)),
				zap.Error(err),
			)
			result.Bom = st.bom
			return result, err
		}
	}

	result.Bom = st.bom
	uc.logger.Info("order consumption recorded",
		zap.String("order_id", o.ID),
		zap.String("mode", string(s.ConsumptionMode)),
		zap.Int("items", len(result.Items)),
	)
	return result, nil
}

func (uc *consumptionUseCase) consumeItem(ctx context.Context, st *batch, item *dto.ConsumeItem) (*ledgerdto.ApplyResult, error) {
	it := *item
	it.MaterialID = strings.TrimSpace(it.MaterialID)
	if err := apperr.ValidateStruct("consumption_item", &it); err != nil {
		return nil, err
	}

	m, err := uc.materials.FindByID(ctx, it.MaterialID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperr.NotFound("material", it.MaterialID)
	}

	if !model.QtyInRange(it.Qty) {
		return nil, apperr.Validation("consumption_item", "qty is out of range")
	}
	if !model.CostInRange(it.UnitCost) {
		return nil, apperr.Validation("consumption_item", "unitCost is out of range")
	}
	places := st.settings.Places()
	qty := model.RoundQty(it.Qty, places)
	if !qty.IsPositive() {
		return nil, apperr.Validation("consumption_item", "qty must be greater than zero at %d decimals", places)
	}

	mode := st.settings.ConsumptionMode
	if mode == model.ModeBomStrict && (st.bom == nil || st.bom.LineFor(m.ID) < 0) {
		return nil, apperr.BomLineRequired(st.order.ID, m.ID)
	}

	applied, err := uc.ledger.ApplyStockTransaction(ctx, st.settings, &ledgerdto.ApplyInput{
		MaterialID: m.ID,
		Type:       model.TxnConsume,
		QtyDelta:   qty.Neg(),
		UnitCost:   it.UnitCost,
		Notes:      it.Notes,
		Ref: model.TransactionRef{
			EntityType:  model.RefEntityOrder,
			EntityID:    st.order.ID,
			OrderID:     st.order.ID,
			OrderNumber: st.order.OrderNumber,
		},
		ActorUserID: st.actor.UserID,
		Alert: alert.Context{
			OrderNumber:      st.order.OrderNumber,
			OrderOwnerUserID: st.order.OwnerUserID,
		},
	})
	if err != nil {
		return nil, err
	}

	if mode == model.ModeNoBom {
		return applied, nil
	}
	b, err := uc.boms.RecordConsumption(ctx, &bomdto.ConsumptionRecord{
		OrderID:     st.order.ID,
		OrderNumber: st.order.OrderNumber,
		MaterialID:  m.ID,
		Snapshot:    m.Snapshot(),
		Qty:         qty,
		TxnID:       applied.Transaction.ID,
		Places:      places,
	})
	if err != nil {
		if apperr.KindOf(err) == "" {
			err = apperr.StorageUnavailable("order_bom", err)
		}
		uc.logger.Error("stock consumed but bom not updated",
			zap.String("order_id", st.order.ID),
			zap.String("material_id", m.ID),
			zap.String("txn_id", applied.Transaction.ID),
			zap.Error(err),
		)
		return applied, err
	}
	st.bom = b
	return applied, nil
}
