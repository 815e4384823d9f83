package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/fabshop-inventory-service/internal/apperr"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

type settingsRow struct {
	TenantID  string         `db:"tenant_id"`
	Data      types.JSONText `db:"data"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (r *PGRepository) GetOrInit(ctx context.Context, tenantID string) (*model.Settings, error) {
	defaults := model.DefaultSettings(tenantID)
	defaults.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(defaults)
	if err != nil {
		return nil, err
	}

	// Concurrent first reads race on the insert; the loser is a no-op.
	_, err = r.DB.ExecContext(ctx, `
        INSERT INTO inventory_settings (tenant_id, data, updated_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (tenant_id) DO NOTHING
    `, tenantID, types.JSONText(data), defaults.UpdatedAt)
	if err != nil {
		return nil, apperr.StorageUnavailable("settings", err)
	}

	var row settingsRow
	err = r.DB.GetContext(ctx, &row, `SELECT tenant_id, data, updated_at FROM inventory_settings WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return nil, apperr.StorageUnavailable("settings", err)
	}

	s := model.DefaultSettings(tenantID)
	if err := row.Data.Unmarshal(&s); err != nil {
		return nil, err
	}
	s.TenantID = row.TenantID
	s.UpdatedAt = row.UpdatedAt
	return &s, nil
}

func (r *PGRepository) Save(ctx context.Context, s *model.Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO inventory_settings (tenant_id, data, updated_at)
        VALUES (:tenant_id, :data, :updated_at)
        ON CONFLICT (tenant_id)
        DO UPDATE SET
            data = EXCLUDED.data,
            updated_at = EXCLUDED.updated_at
    `
	_, err = r.DB.NamedExecContext(ctx, query, settingsRow{
		TenantID:  s.TenantID,
		Data:      types.JSONText(data),
		UpdatedAt: s.UpdatedAt,
	})
	if err != nil {
		return apperr.StorageUnavailable("settings", err)
	}
	return nil
}
