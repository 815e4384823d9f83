package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/fabshop-inventory-service/internal/apperr"
	"github.com/fekuna/fabshop-inventory-service/internal/material/dto"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

const uniqueViolation = "23505"

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, m *model.Material) error {
	row, err := ToRow(m)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO materials (
            id, sku, name, category, unit, spec, is_active,
            default_unit_cost, avg_unit_cost, on_hand_qty, reorder_point_qty, reorder_target_qty,
            is_low, last_alert_at, last_alert_qty, created_at, updated_at
        )
        VALUES (
            :id, :sku, :name, :category, :unit, :spec, :is_active,
            :default_unit_cost, :avg_unit_cost, :on_hand_qty, :reorder_point_qty, :reorder_target_qty,
            :is_low, :last_alert_at, :last_alert_qty, :created_at, :updated_at
        )
    `
	_, err = r.DB.NamedExecContext(ctx, query, row)
	return mapWriteError(err, m.SKU)
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Material, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	var row Row
	err := r.DB.GetContext(ctx, &row, `SELECT `+Columns+` FROM materials WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.StorageUnavailable("material", err)
	}
	return row.ToModel()
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.MaterialFilters) ([]model.Material, int, error) {
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if q := strings.TrimSpace(f.Query); q != "" {
		conditions = append(conditions, `(name ILIKE :search OR sku ILIKE :search)`)
		args["search"] = "%" + escapeLike(q) + "%"
	}
	if f.LowOnly {
		conditions = append(conditions, "is_low")
	}
	if f.ActiveOnly {
		conditions = append(conditions, "is_active")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM materials" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, apperr.StorageUnavailable("material", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return nil, 0, apperr.StorageUnavailable("material", err)
		}
	}

	query := "SELECT " + Columns + " FROM materials" + whereClause + " ORDER BY sku ASC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, apperr.StorageUnavailable("material", err)
	}
	defer nstmt.Close()

	var found []Row
	if err := nstmt.SelectContext(ctx, &found, args); err != nil {
		return nil, 0, apperr.StorageUnavailable("material", err)
	}

	items := make([]model.Material, 0, len(found))
	for i := range found {
		m, err := found[i].ToModel()
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *m)
	}
	return items, count, nil
}

func (r *PGRepository) Update(ctx context.Context, m *model.Material) error {
	row, err := ToRow(m)
	if err != nil {
		return err
	}
	query := `
        UPDATE materials
        SET sku = :sku,
            name = :name,
            category = :category,
            unit = :unit,
            spec = :spec,
            is_active = :is_active,
            default_unit_cost = :default_unit_cost,
            avg_unit_cost = :avg_unit_cost,
            reorder_point_qty = :reorder_point_qty,
            reorder_target_qty = :reorder_target_qty,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err = r.DB.NamedExecContext(ctx, query, row)
	return mapWriteError(err, m.SKU)
}

func (r *PGRepository) IsSKUUnique(ctx context.Context, sku, excludeID string) (bool, error) {
	var count int
	query := `SELECT count(*) FROM materials WHERE sku = $1`
	args := []interface{}{sku}
	if excludeID != "" {
		query += ` AND id::text != $2`
		args = append(args, excludeID)
	}

	err := r.DB.GetContext(ctx, &count, query, args...)
	if err != nil {
		return false, apperr.StorageUnavailable("material", err)
	}
	return count == 0, nil
}

// mapWriteError reports a lost SKU race as a conflict rather than a storage failure.
func mapWriteError(err error, sku string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperr.Conflict("material", "sku %s already exists", sku)
	}
	return apperr.StorageUnavailable("material", err)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
