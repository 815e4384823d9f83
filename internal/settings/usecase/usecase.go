package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/fabshop-inventory-service/internal/logger"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
	"github.com/fekuna/fabshop-inventory-service/internal/settings"
	"github.com/fekuna/fabshop-inventory-service/internal/settings/dto"
	"go.uber.org/zap"
)

const cacheTTL = 5 * time.Minute

// Cache is the subset of the Redis client the settings store needs.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type settingsUseCase struct {
	repo     settings.Repository
	cache    Cache
	tenantID string
	logger   logger.ZapLogger
}

// NewSettingsUseCase wires the store for one tenant. cache may be nil.
func NewSettingsUseCase(repo settings.Repository, cache Cache, tenantID string, log logger.ZapLogger) settings.UseCase {
	return &settingsUseCase{
		repo:     repo,
		cache:    cache,
		tenantID: tenantID,
		logger:   log,
	}
}

func (uc *settingsUseCase) cacheKey() string {
	return "inventory:settings:" + uc.tenantID
}

func (uc *settingsUseCase) GetSettings(ctx context.Context) (model.Settings, error) {
	if uc.cache != nil {
		var cached model.Settings
		found, err := uc.cache.GetJSON(ctx, uc.cacheKey(), &cached)
		if err != nil {
			uc.logger.Warn("settings cache read failed", zap.Error(err))
		}
		if found {
			return normalize(cached), nil
		}
	}

	s, err := uc.repo.GetOrInit(ctx, uc.tenantID)
	if err != nil {
		return model.Settings{}, err
	}
	out := normalize(*s)

	if uc.cache != nil {
		if err := uc.cache.SetJSON(ctx, uc.cacheKey(), out, cacheTTL); err != nil {
			uc.logger.Warn("settings cache write failed", zap.Error(err))
		}
	}
	return out, nil
}

func (uc *settingsUseCase) UpdateSettings(ctx context.Context, patch *dto.SettingsPatch) (model.Settings, error) {
	current, err := uc.repo.GetOrInit(ctx, uc.tenantID)
	if err != nil {
		return model.Settings{}, err
	}

	next := normalize(Merge(*current, patch))
	next.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Save(ctx, &next); err != nil {
		return model.Settings{}, err
	}

	if uc.cache != nil {
		if err := uc.cache.Delete(ctx, uc.cacheKey()); err != nil {
			uc.logger.Warn("settings cache invalidation failed", zap.Error(err))
		}
	}
	uc.logger.Info("inventory settings updated",
		zap.String("tenant_id", uc.tenantID),
		zap.String("preset", string(next.Preset)),
		zap.String("consumption_mode", string(next.ConsumptionMode)),
	)
	return next, nil
}

// Merge applies patch onto s field by field. Unknown enum values are ignored; a preset
// change without a usable consumption mode brings the preset's mode along.
func Merge(s model.Settings, patch *dto.SettingsPatch) model.Settings {
	s = s.Clone()
	if patch == nil {
		return s
	}

	modeSet := false
	if patch.ConsumptionMode != nil {
		if m := model.ConsumptionMode(strings.ToUpper(strings.TrimSpace(*patch.ConsumptionMode))); m.Valid() {
			s.ConsumptionMode = m
			modeSet = true
		}
	}
	if patch.Preset != nil {
		if p := model.Preset(strings.ToUpper(strings.TrimSpace(*patch.Preset))); p.Valid() {
			if p != s.Preset && !modeSet {
				s.ConsumptionMode = p.Mode()
			}
			s.Preset = p
		}
	}

	if q := patch.QtyPrecision; q != nil && q.MaxDecimals != nil {
		s.QtyPrecision.MaxDecimals = *q.MaxDecimals
	}

	if r := patch.LowStockRules; r != nil {
		if r.EnableReorderPoint != nil {
			s.LowStockRules.EnableReorderPoint = *r.EnableReorderPoint
		}
		if r.AlertOnNegative != nil {
			s.LowStockRules.AlertOnNegative = *r.AlertOnNegative
		}
		if r.AlertCooldownMinutes != nil {
			s.LowStockRules.AlertCooldownMinutes = *r.AlertCooldownMinutes
		}
	}

	if a := patch.AlertRecipients; a != nil {
		if a.Roles != nil {
			s.AlertRecipients.Roles = append([]string(nil), a.Roles...)
		}
		if a.IncludeOrderOwner != nil {
			s.AlertRecipients.IncludeOrderOwner = *a.IncludeOrderOwner
		}
		if a.FallbackToRolesOnly != nil {
			s.AlertRecipients.FallbackToRolesOnly = *a.FallbackToRolesOnly
		}
	}

	if p := patch.Permissions; p != nil {
		if p.ProductionCanConsume != nil {
			s.Permissions.ProductionCanConsume = *p.ProductionCanConsume
		}
		if p.ProductionCanReceive != nil {
			s.Permissions.ProductionCanReceive = *p.ProductionCanReceive
		}
		if p.ProductionCanAdjust != nil {
			s.Permissions.ProductionCanAdjust = *p.ProductionCanAdjust
		}
	}
	return s
}

func normalize(s model.Settings) model.Settings {
	if !s.Preset.Valid() {
		s.Preset = model.PresetAssisted
	}
	if !s.ConsumptionMode.Valid() {
		s.ConsumptionMode = s.Preset.Mode()
	}
	s.QtyPrecision.MaxDecimals = model.ClampDecimals(s.QtyPrecision.MaxDecimals)

	switch c := s.LowStockRules.AlertCooldownMinutes; {
	case c < 0:
		s.LowStockRules.AlertCooldownMinutes = 0
	case c > model.MaxAlertCooldownMinutes:
		s.LowStockRules.AlertCooldownMinutes = model.MaxAlertCooldownMinutes
	}

	s.AlertRecipients.Roles = normalizeRoles(s.AlertRecipients.Roles)
	return s
}

func normalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	seen := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == "" {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
