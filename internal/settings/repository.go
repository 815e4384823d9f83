package settings

import (
	"context"

	"github.com/fekuna/fabshop-inventory-service/internal/model"
)

type Repository interface {
	// GetOrInit returns the tenant's settings, inserting defaults on first access.
	GetOrInit(ctx context.Context, tenantID string) (*model.Settings, error)
	Save(ctx context.Context, s *model.Settings) error
}
