package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/fekuna/fabshop-inventory-service/internal/material"
	"github.com/fekuna/fabshop-inventory-service/internal/material/dto"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
)

// MemoryRepository keeps materials in a map. The ledger's memory store shares it through
// Exclusive so stock changes and catalog edits see the same rows.
type MemoryRepository struct {
	mu   sync.RWMutex
	rows map[string]*model.Material
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[string]*model.Material)}
}

// Exclusive runs fn with the write lock held and direct access to the stored rows.
func (r *MemoryRepository) Exclusive(fn func(rows map[string]*model.Material) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.rows)
}

func (r *MemoryRepository) Create(_ context.Context, m *model.Material) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[m.ID] = m.Clone()
	return nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (*model.Material, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rows[id].Clone(), nil
}

func (r *MemoryRepository) FindAll(_ context.Context, f *dto.MaterialFilters) ([]model.Material, int, error) {
	r.mu.RLock()
	q := strings.ToLower(strings.TrimSpace(f.Query))
	var matched []model.Material
	for _, m := range r.rows {
		if q != "" && !strings.Contains(strings.ToLower(m.Name), q) && !strings.Contains(strings.ToLower(m.SKU), q) {
			continue
		}
		if f.LowOnly && !m.LowStock.IsLow {
			continue
		}
		if f.ActiveOnly && !m.IsActive {
			continue
		}
		matched = append(matched, *m.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].SKU < matched[j].SKU })
	total := len(matched)
	if f.PageSize > 0 {
		start := (f.Page - 1) * f.PageSize
		if start > total {
			start = total
		}
		end := start + f.PageSize
		if end > total {
			end = total
		}
		matched = matched[start:end]
	}
	if matched == nil {
		matched = []model.Material{}
	}
	return matched, total, nil
}

func (r *MemoryRepository) Update(_ context.Context, m *model.Material) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.rows[m.ID]
	if !ok {
		return nil
	}
	next := m.Clone()
	next.OnHandQty = cur.OnHandQty
	next.LowStock = cur.Clone().LowStock
	r.rows[m.ID] = next
	return nil
}

func (r *MemoryRepository) IsSKUUnique(_ context.Context, sku, excludeID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, m := range r.rows {
		if m.SKU == sku && id != excludeID {
			return false, nil
		}
	}
	return true, nil
}

var (
	_ material.Repository = (*MemoryRepository)(nil)
	_ material.Repository = (*PGRepository)(nil)
)
