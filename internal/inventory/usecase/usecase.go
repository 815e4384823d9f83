package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/fabshop-inventory-service/internal/apperr"
	"github.com/fekuna/fabshop-inventory-service/internal/auth"
	"github.com/fekuna/fabshop-inventory-service/internal/cache"
	"github.com/fekuna/fabshop-inventory-service/internal/inventory"
	"github.com/fekuna/fabshop-inventory-service/internal/inventory/alert"
	"github.com/fekuna/fabshop-inventory-service/internal/inventory/dto"
	"github.com/fekuna/fabshop-inventory-service/internal/logger"
	"github.com/fekuna/fabshop-inventory-service/internal/material"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
	"github.com/fekuna/fabshop-inventory-service/internal/notification"
	"github.com/fekuna/fabshop-inventory-service/internal/settings"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	lockTTL         = 5 * time.Second
	dispatchTimeout = 3 * time.Second
)

type ledgerUseCase struct {
	store     inventory.Store
	materials material.Repository
	settings  settings.UseCase
	evaluator alert.Evaluator
	notifier  notification.Port
	locker    cache.Locker
	indexer   material.Indexer
	logger    logger.ZapLogger
	now       func() time.Time
}

// NewLedgerUseCase wires the ledger. locker and indexer may be nil.
func NewLedgerUseCase(
	store inventory.Store,
	materials material.Repository,
	settingsUC settings.UseCase,
	evaluator alert.Evaluator,
	notifier notification.Port,
	locker cache.Locker,
	indexer material.Indexer,
	log logger.ZapLogger,
) inventory.UseCase {
	return &ledgerUseCase{
		store:     store,
		materials: materials,
		settings:  settingsUC,
		evaluator: evaluator,
		notifier:  notifier,
		locker:    locker,
		indexer:   indexer,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (uc *ledgerUseCase) ApplyStockTransaction(ctx context.Context, s model.Settings, input *dto.ApplyInput) (*dto.ApplyResult, error) {
	if !input.Type.Valid() {
		return nil, apperr.Validation("inventory_transaction", "unknown transaction type %q", input.Type)
	}
	if !model.QtyInRange(input.QtyDelta) {
		return nil, apperr.Validation("inventory_transaction", "qtyDelta is out of range")
	}
	if !model.CostInRange(input.UnitCost) {
		return nil, apperr.Validation("inventory_transaction", "unitCost is out of range")
	}
	if input.QtyDelta.IsZero() {
		return nil, apperr.Validation("inventory_transaction", "qtyDelta must not be zero")
	}
	places := s.Places()
	delta := model.RoundQty(input.QtyDelta, places)
	if delta.IsZero() {
		return nil, apperr.Validation("inventory_transaction", "qtyDelta rounds to zero at %d decimals", places)
	}

	result, pending, err := uc.commit(ctx, s, input, delta)
	if err != nil {
		if apperr.KindOf(err) == "" {
			err = apperr.StorageUnavailable("inventory_transaction", err)
		}
		return nil, err
	}

	uc.logger.Info("stock transaction applied",
		zap.String("material_id", result.Material.ID),
		zap.String("type", string(result.Transaction.Type)),
		zap.String("qty_delta", result.Transaction.QtyDelta.String()),
		zap.String("balance_after", result.Transaction.BalanceAfter.String()),
	)

	if pending != nil {
		uc.dispatch(ctx, pending)
	}
	if uc.indexer != nil {
		uc.indexer.IndexMaterial(result.Material)
	}
	return result, nil
}

// commit runs the unit of work under the material lock. The lock is released before
// anything is dispatched.
func (uc *ledgerUseCase) commit(ctx context.Context, s model.Settings, input *dto.ApplyInput, delta decimal.Decimal) (*dto.ApplyResult, *notification.Notification, error) {
	// 0. Serialize writers on this material across instances
	if uc.locker != nil {
		unlock, err := uc.locker.Lock(ctx, "lock:material:"+input.MaterialID, lockTTL)
		if err != nil {
			if errors.Is(err, cache.ErrLockNotObtained) {
				uc.logger.Warn("material busy", zap.String("material_id", input.MaterialID))
			}
			return nil, nil, apperr.StorageUnavailable("material", err)
		}
		defer unlock()
	}

	var (
		result  *dto.ApplyResult
		pending *notification.Notification
	)
	places := s.Places()
	now := uc.now()

	err := uc.store.WithinTx(ctx, func(tx inventory.Tx) error {
		// 1. Lock the material row
		m, err := tx.LockMaterial(ctx, input.MaterialID)
		if err != nil {
			return err
		}
		if m == nil {
			return apperr.NotFound("material", input.MaterialID)
		}

		// 2. Move the balance
		balance := model.RoundQty(m.OnHandQty.Add(delta), places)
		if !model.QtyInRange(balance) {
			return apperr.Validation("inventory_transaction", "resulting balance is out of range")
		}
		m.OnHandQty = balance
		m.UpdatedAt = now

		// 3. Append the ledger row
		txn := &model.InventoryTransaction{
			ID:           uuid.New().String(),
			MaterialID:   m.ID,
			Type:         input.Type,
			QtyDelta:     delta,
			UnitCost:     input.UnitCost,
			Notes:        input.Notes,
			Ref:          input.Ref,
			ActorUserID:  input.ActorUserID,
			At:           now,
			BalanceAfter: m.OnHandQty,
		}
		if err := tx.AppendTransaction(ctx, txn); err != nil {
			return err
		}

		// 4. Evaluate low stock against the new balance
		decision, err := uc.evaluator.Evaluate(m, s, input.Alert, now)
		if err != nil {
			return err
		}
		m.LowStock = decision.State
		if err := tx.SaveStock(ctx, m); err != nil {
			return err
		}

		result = &dto.ApplyResult{Material: m, Transaction: txn}
		pending = decision.Notification
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return result, pending, nil
}

// dispatch hands the alert over after commit. Failures are logged and dropped.
func (uc *ledgerUseCase) dispatch(ctx context.Context, n *notification.Notification) {
	if uc.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dispatchTimeout)
	defer cancel()
	if err := uc.notifier.Notify(ctx, *n); err != nil {
		uc.logger.Error("failed to dispatch stock alert",
			zap.String("material_id", n.EntityID),
			zap.String("type", n.Type),
			zap.Error(err),
		)
	}
}

func (uc *ledgerUseCase) Receive(ctx context.Context, input *dto.MovementInput) (*dto.ApplyResult, error) {
	if !input.Qty.IsPositive() {
		return nil, apperr.Validation("inventory_transaction", "received quantity must be greater than zero")
	}
	return uc.manual(ctx, auth.ActionReceive, model.TxnReceipt, input)
}

func (uc *ledgerUseCase) Adjust(ctx context.Context, input *dto.MovementInput) (*dto.ApplyResult, error) {
	return uc.manual(ctx, auth.ActionAdjust, model.TxnAdjustment, input)
}

func (uc *ledgerUseCase) manual(ctx context.Context, action auth.StockAction, typ model.TransactionType, input *dto.MovementInput) (*dto.ApplyResult, error) {
	s, err := uc.settings.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if err := auth.CheckStockPermission(input.Actor, s.Permissions, action); err != nil {
		return nil, err
	}
	return uc.ApplyStockTransaction(ctx, s, &dto.ApplyInput{
		MaterialID:  input.MaterialID,
		Type:        typ,
		QtyDelta:    input.Qty,
		UnitCost:    input.UnitCost,
		Notes:       input.Notes,
		Ref:         model.TransactionRef{EntityType: model.RefEntityManual},
		ActorUserID: input.Actor.UserID,
	})
}

func (uc *ledgerUseCase) GetMaterialLedger(ctx context.Context, filters *dto.LedgerFilters) ([]model.InventoryTransaction, error) {
	f := *filters
	f.Normalize()

	m, err := uc.materials.FindByID(ctx, f.MaterialID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperr.NotFound("material", f.MaterialID)
	}
	return uc.store.ListByMaterial(ctx, f.MaterialID, f.Limit)
}
