package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/fekuna/fabshop-inventory-service/internal/apperr"
	"github.com/fekuna/fabshop-inventory-service/internal/bom"
	"github.com/fekuna/fabshop-inventory-service/internal/bom/dto"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
)

const bomColumns = `order_id, order_number, status, lines, created_at, updated_at`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

type bomRow struct {
	OrderID     string         `db:"order_id"`
	OrderNumber string         `db:"order_number"`
	Status      string         `db:"status"`
	Lines       types.JSONText `db:"lines"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func toRow(b *model.OrderBom) (*bomRow, error) {
	lines := b.Lines
	if lines == nil {
		lines = []model.BomLine{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return nil, err
	}
	return &bomRow{
		OrderID:     b.OrderID,
		OrderNumber: b.OrderNumber,
		Status:      string(b.Status),
		Lines:       types.JSONText(data),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}, nil
}

func (r *bomRow) toModel() (*model.OrderBom, error) {
	b := &model.OrderBom{
		OrderID:     r.OrderID,
		OrderNumber: r.OrderNumber,
		Status:      model.BomStatus(r.Status),
		Lines:       []model.BomLine{},
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if len(r.Lines) > 0 {
		if err := r.Lines.Unmarshal(&b.Lines); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (r *PGRepository) GetOrCreate(ctx context.Context, orderID, orderNumber string) (*model.OrderBom, error) {
	row, err := toRow(bom.NewDraft(orderID, orderNumber, time.Now().UTC()))
	if err != nil {
		return nil, err
	}
	query := `
        INSERT INTO order_boms (order_id, order_number, status, lines, created_at, updated_at)
        VALUES (:order_id, :order_number, :status, :lines, :created_at, :updated_at)
        ON CONFLICT (order_id) DO NOTHING
    `
	if _, err := r.DB.NamedExecContext(ctx, query, row); err != nil {
		return nil, apperr.StorageUnavailable("order_bom", err)
	}

	b, err := r.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperr.StorageUnavailable("order_bom", errors.New("bom vanished after insert"))
	}
	return b, nil
}

func (r *PGRepository) FindByOrderID(ctx context.Context, orderID string) (*model.OrderBom, error) {
	var row bomRow
	err := r.DB.GetContext(ctx, &row, `SELECT `+bomColumns+` FROM order_boms WHERE order_id = $1`, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.StorageUnavailable("order_bom", err)
	}
	return row.toModel()
}

// Update inserts a draft if the order has none, then locks the row for fn.
func (r *PGRepository) Update(ctx context.Context, orderID, orderNumber string, fn func(b *model.OrderBom) error) (*model.OrderBom, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperr.StorageUnavailable("order_bom", err)
	}
	defer tx.Rollback()

	draft, err := toRow(bom.NewDraft(orderID, orderNumber, time.Now().UTC()))
	if err != nil {
		return nil, err
	}
	insert := `
        INSERT INTO order_boms (order_id, order_number, status, lines, created_at, updated_at)
        VALUES (:order_id, :order_number, :status, :lines, :created_at, :updated_at)
        ON CONFLICT (order_id) DO NOTHING
    `
	if _, err := tx.NamedExecContext(ctx, insert, draft); err != nil {
		return nil, apperr.StorageUnavailable("order_bom", err)
	}

	var row bomRow
	if err := tx.GetContext(ctx, &row, `SELECT `+bomColumns+` FROM order_boms WHERE order_id = $1 FOR UPDATE`, orderID); err != nil {
		return nil, apperr.StorageUnavailable("order_bom", err)
	}
	b, err := row.toModel()
	if err != nil {
		return nil, err
	}
	if err := fn(b); err != nil {
		return nil, err
	}

	out, err := toRow(b)
	if err != nil {
		return nil, err
	}
	update := `
        UPDATE order_boms
        SET order_number = :order_number,
            status = :status,
            lines = :lines,
            updated_at = :updated_at
        WHERE order_id = :order_id
    `
	if _, err := tx.NamedExecContext(ctx, update, out); err != nil {
		return nil, apperr.StorageUnavailable("order_bom", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.StorageUnavailable("order_bom", err)
	}
	return b, nil
}

func (r *PGRepository) RecordConsumption(ctx context.Context, rec *dto.ConsumptionRecord) (*model.OrderBom, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperr.StorageUnavailable("order_bom", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	var row bomRow
	err = tx.GetContext(ctx, &row, `SELECT `+bomColumns+` FROM order_boms WHERE order_id = $1 FOR UPDATE`, rec.OrderID)
	var b *model.OrderBom
	switch {
	case errors.Is(err, sql.ErrNoRows):
		b = bom.NewDraft(rec.OrderID, rec.OrderNumber, now)
	case err != nil:
		return nil, apperr.StorageUnavailable("order_bom", err)
	default:
		if b, err = row.toModel(); err != nil {
			return nil, err
		}
	}

	bom.ApplyConsumption(b, rec, now)

	out, err := toRow(b)
	if err != nil {
		return nil, err
	}
	query := `
        INSERT INTO order_boms (order_id, order_number, status, lines, created_at, updated_at)
        VALUES (:order_id, :order_number, :status, :lines, :created_at, :updated_at)
        ON CONFLICT (order_id)
        DO UPDATE SET
            order_number = EXCLUDED.order_number,
            lines = EXCLUDED.lines,
            updated_at = EXCLUDED.updated_at
    `
	if _, err := tx.NamedExecContext(ctx, query, out); err != nil {
		return nil, apperr.StorageUnavailable("order_bom", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.StorageUnavailable("order_bom", err)
	}
	return b, nil
}
