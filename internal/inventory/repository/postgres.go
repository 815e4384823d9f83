package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/fabshop-inventory-service/internal/apperr"
	"github.com/fekuna/fabshop-inventory-service/internal/inventory"
	materialrepo "github.com/fekuna/fabshop-inventory-service/internal/material/repository"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

type transactionRow struct {
	ID             string              `db:"id"`
	MaterialID     string              `db:"material_id"`
	Type           string              `db:"type"`
	QtyDelta       decimal.Decimal     `db:"qty_delta"`
	UnitCost       decimal.NullDecimal `db:"unit_cost"`
	Notes          string              `db:"notes"`
	RefEntityType  string              `db:"ref_entity_type"`
	RefEntityID    string              `db:"ref_entity_id"`
	RefOrderID     string              `db:"ref_order_id"`
	RefOrderNumber string              `db:"ref_order_number"`
	ActorUserID    string              `db:"actor_user_id"`
	At             time.Time           `db:"at"`
	BalanceAfter   decimal.Decimal     `db:"balance_after"`
}

func toTransactionRow(t *model.InventoryTransaction) *transactionRow {
	r := &transactionRow{
		ID:             t.ID,
		MaterialID:     t.MaterialID,
		Type:           string(t.Type),
		QtyDelta:       t.QtyDelta,
		Notes:          t.Notes,
		RefEntityType:  t.Ref.EntityType,
		RefEntityID:    t.Ref.EntityID,
		RefOrderID:     t.Ref.OrderID,
		RefOrderNumber: t.Ref.OrderNumber,
		ActorUserID:    t.ActorUserID,
		At:             t.At,
		BalanceAfter:   t.BalanceAfter,
	}
	if t.UnitCost != nil {
		r.UnitCost = decimal.NullDecimal{Decimal: *t.UnitCost, Valid: true}
	}
	return r
}

func (r *transactionRow) toModel() model.InventoryTransaction {
	t := model.InventoryTransaction{
		ID:         r.ID,
		MaterialID: r.MaterialID,
		Type:       model.TransactionType(r.Type),
		QtyDelta:   r.QtyDelta,
		Notes:      r.Notes,
		Ref: model.TransactionRef{
			EntityType:  r.RefEntityType,
			EntityID:    r.RefEntityID,
			OrderID:     r.RefOrderID,
			OrderNumber: r.RefOrderNumber,
		},
		ActorUserID:  r.ActorUserID,
		At:           r.At,
		BalanceAfter: r.BalanceAfter,
	}
	if r.UnitCost.Valid {
		c := r.UnitCost.Decimal
		t.UnitCost = &c
	}
	return t
}

// WithinTx begins a transaction, runs fn and commits. Failing to begin or commit is
// reported as STORAGE_UNAVAILABLE; errors from fn are returned as they are.
func (r *PGRepository) WithinTx(ctx context.Context, fn func(tx inventory.Tx) error) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.StorageUnavailable("inventory_transaction", err)
	}
	defer tx.Rollback()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperr.StorageUnavailable("inventory_transaction", err)
	}
	return nil
}

func (r *PGRepository) ListByMaterial(ctx context.Context, materialID string, limit int) ([]model.InventoryTransaction, error) {
	if _, err := uuid.Parse(materialID); err != nil {
		return []model.InventoryTransaction{}, nil
	}
	query := `
        SELECT id, material_id, type, qty_delta, unit_cost, notes,
            ref_entity_type, ref_entity_id, ref_order_id, ref_order_number,
            actor_user_id, at, balance_after
        FROM inventory_transactions
        WHERE material_id = $1
        ORDER BY at DESC, seq DESC
        LIMIT $2
    `
	var rows []transactionRow
	if err := r.DB.SelectContext(ctx, &rows, query, materialID, limit); err != nil {
		return nil, apperr.StorageUnavailable("inventory_transaction", err)
	}
	out := make([]model.InventoryTransaction, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toModel())
	}
	return out, nil
}

type pgTx struct {
	tx *sqlx.Tx
}

func (t *pgTx) LockMaterial(ctx context.Context, materialID string) (*model.Material, error) {
	if _, err := uuid.Parse(materialID); err != nil {
		return nil, nil
	}
	var row materialrepo.Row
	query := `SELECT ` + materialrepo.Columns + ` FROM materials WHERE id = $1 FOR UPDATE`
	if err := t.tx.GetContext(ctx, &row, query, materialID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.StorageUnavailable("material", err)
	}
	return row.ToModel()
}

func (t *pgTx) SaveStock(ctx context.Context, m *model.Material) error {
	row, err := materialrepo.ToRow(m)
	if err != nil {
		return err
	}
	query := `
        UPDATE materials
        SET on_hand_qty = :on_hand_qty,
            is_low = :is_low,
            last_alert_at = :last_alert_at,
            last_alert_qty = :last_alert_qty,
            updated_at = :updated_at
        WHERE id = :id
    `
	if _, err := t.tx.NamedExecContext(ctx, query, row); err != nil {
		return apperr.StorageUnavailable("material", fmt.Errorf("failed to update stock: %w", err))
	}
	return nil
}

func (t *pgTx) AppendTransaction(ctx context.Context, txn *model.InventoryTransaction) error {
	query := `
        INSERT INTO inventory_transactions (
            id, material_id, type, qty_delta, unit_cost, notes,
            ref_entity_type, ref_entity_id, ref_order_id, ref_order_number,
            actor_user_id, at, balance_after
        )
        VALUES (
            :id, :material_id, :type, :qty_delta, :unit_cost, :notes,
            :ref_entity_type, :ref_entity_id, :ref_order_id, :ref_order_number,
            :actor_user_id, :at, :balance_after
        )
    `
	if _, err := t.tx.NamedExecContext(ctx, query, toTransactionRow(txn)); err != nil {
		return apperr.StorageUnavailable("inventory_transaction", fmt.Errorf("failed to log transaction: %w", err))
	}
	return nil
}
