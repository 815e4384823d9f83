package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/fabshop-inventory-service/internal/apperr"
	"github.com/fekuna/fabshop-inventory-service/internal/logger"
	"github.com/fekuna/fabshop-inventory-service/internal/material"
	"github.com/fekuna/fabshop-inventory-service/internal/material/dto"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type materialUseCase struct {
	repo   material.Repository
	index  *searchIndex
	logger logger.ZapLogger
}

// NewMaterialUseCase builds the registry. es may be nil, in which case search runs on SQL only.
func NewMaterialUseCase(repo material.Repository, es Searcher, log logger.ZapLogger) material.UseCase {
	uc := &materialUseCase{
		repo:   repo,
		logger: log,
	}
	if es != nil {
		uc.index = newSearchIndex(es, log)
	}
	return uc
}

func (uc *materialUseCase) CreateMaterial(ctx context.Context, input *dto.CreateMaterialInput) (*model.Material, error) {
	in := *input
	in.SKU = strings.TrimSpace(in.SKU)
	in.Name = strings.TrimSpace(in.Name)
	in.Unit = strings.TrimSpace(in.Unit)
	in.Category = strings.TrimSpace(in.Category)
	if err := apperr.ValidateStruct("material", &in); err != nil {
		return nil, err
	}
	if err := checkAmounts(in.DefaultUnitCost, in.AvgUnitCost, in.ReorderPointQty, in.ReorderTargetQty); err != nil {
		return nil, err
	}

	unique, err := uc.repo.IsSKUUnique(ctx, in.SKU, "")
	if err != nil {
		return nil, err
	}
	if !unique {
		return nil, apperr.Conflict("material", "sku %s already exists", in.SKU)
	}

	now := time.Now().UTC()
	m := &model.Material{
		ID:              uuid.New().String(),
		SKU:             in.SKU,
		Name:            in.Name,
		Category:        in.Category,
		Unit:            in.Unit,
		Spec:            in.Spec.Normalize(),
		IsActive:        true,
		DefaultUnitCost: in.DefaultUnitCost,
		AvgUnitCost:     in.AvgUnitCost,
		OnHandQty:       decimal.Zero,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if in.ReorderPointQty != nil {
		m.ReorderPointQty = *in.ReorderPointQty
	}
	if in.ReorderTargetQty != nil {
		m.ReorderTargetQty = *in.ReorderTargetQty
	}

	if err := uc.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	uc.logger.Info("material created", zap.String("material_id", m.ID), zap.String("sku", m.SKU))

	uc.IndexMaterial(m)
	return m, nil
}

func (uc *materialUseCase) GetMaterial(ctx context.Context, id string) (*model.Material, error) {
	m, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperr.NotFound("material", id)
	}
	return m, nil
}

func (uc *materialUseCase) ListMaterials(ctx context.Context, filters *dto.MaterialFilters) ([]model.Material, int, error) {
	f := *filters
	f.Query = strings.TrimSpace(f.Query)
	f.Normalize()

	if f.Query != "" && uc.index != nil {
		items, total, err := uc.index.search(ctx, &f)
		if err == nil {
			return items, total, nil
		}
		uc.logger.Error("material search failed, falling back to DB", zap.Error(err))
	}

	return uc.repo.FindAll(ctx, &f)
}

func (uc *materialUseCase) UpdateMaterial(ctx context.Context, input *dto.UpdateMaterialInput) (*model.Material, error) {
	m, err := uc.GetMaterial(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.SKU != nil {
		sku := strings.TrimSpace(*input.SKU)
		if sku == "" {
			return nil, apperr.Validation("material", "sku is required")
		}
		if sku != m.SKU {
			unique, err := uc.repo.IsSKUUnique(ctx, sku, m.ID)
			if err != nil {
				return nil, err
			}
			if !unique {
				return nil, apperr.Conflict("material", "sku %s already exists", sku)
			}
		}
		m.SKU = sku
	}
	if input.Name != nil {
		if m.Name = strings.TrimSpace(*input.Name); m.Name == "" {
			return nil, apperr.Validation("material", "name is required")
		}
	}
	if input.Unit != nil {
		if m.Unit = strings.TrimSpace(*input.Unit); m.Unit == "" {
			return nil, apperr.Validation("material", "unit is required")
		}
	}
	if input.Category != nil {
		m.Category = strings.TrimSpace(*input.Category)
	}
	if input.Spec != nil {
		m.Spec = input.Spec.Normalize()
	}
	if input.IsActive != nil {
		m.IsActive = *input.IsActive
	}

	if err := checkAmounts(input.DefaultUnitCost, input.AvgUnitCost, input.ReorderPointQty, input.ReorderTargetQty); err != nil {
		return nil, err
	}
	if input.DefaultUnitCost != nil {
		m.DefaultUnitCost = input.DefaultUnitCost
	}
	if input.AvgUnitCost != nil {
		m.AvgUnitCost = input.AvgUnitCost
	}
	if input.ReorderPointQty != nil {
		m.ReorderPointQty = *input.ReorderPointQty
	}
	if input.ReorderTargetQty != nil {
		m.ReorderTargetQty = *input.ReorderTargetQty
	}
	m.UpdatedAt = time.Now().UTC()

	if err := uc.repo.Update(ctx, m); err != nil {
		return nil, err
	}

	uc.IndexMaterial(m)
	return m, nil
}

// IndexMaterial pushes m to the search index in the background.
func (uc *materialUseCase) IndexMaterial(m *model.Material) {
	if uc.index == nil || m == nil {
		return
	}
	go uc.index.sync(context.Background(), m.Clone())
}

func checkAmounts(defaultCost, avgCost, reorderPoint, reorderTarget *decimal.Decimal) error {
	if !model.CostInRange(defaultCost) || !model.CostInRange(avgCost) {
		return apperr.Validation("material", "unit cost is out of range")
	}
	for _, q := range []*decimal.Decimal{reorderPoint, reorderTarget} {
		if q != nil && !model.QtyInRange(*q) {
			return apperr.Validation("material", "reorder quantity is out of range")
		}
	}
	for _, v := range []*decimal.Decimal{defaultCost, avgCost, reorderPoint, reorderTarget} {
		if v != nil && v.IsNegative() {
			return apperr.Validation("material", "costs and reorder quantities must not be negative")
		}
	}
	return nil
}
