package settings

import (
	"context"

	"github.com/fekuna/fabshop-inventory-service/internal/model"
	"github.com/fekuna/fabshop-inventory-service/internal/settings/dto"
)

type UseCase interface {
	GetSettings(ctx context.Context) (model.Settings, error)
	UpdateSettings(ctx context.Context, patch *dto.SettingsPatch) (model.Settings, error)
}
