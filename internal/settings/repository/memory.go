package repository

import (
	"context"
	"sync"
	"time"

	"github.com/fekuna/fabshop-inventory-service/internal/model"
	"github.com/fekuna/fabshop-inventory-service/internal/settings"
)

type MemoryRepository struct {
	mu   sync.Mutex
	rows map[string]model.Settings
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[string]model.Settings)}
}

func (r *MemoryRepository) GetOrInit(_ context.Context, tenantID string) (*model.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[tenantID]
	if !ok {
		s = model.DefaultSettings(tenantID)
		s.UpdatedAt = time.Now().UTC()
		r.rows[tenantID] = s
	}
	out := s.Clone()
	return &out, nil
}

func (r *MemoryRepository) Save(_ context.Context, s *model.Settings) error {
	r.mu.Lock()
	r.rows[s.TenantID] = s.Clone()
	r.mu.Unlock()
	return nil
}

var (
	_ settings.Repository = (*MemoryRepository)(nil)
	_ settings.Repository = (*PGRepository)(nil)
)
