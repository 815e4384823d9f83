package repository

import (
	"context"
	"sync"
	"time"

	"github.com/fekuna/fabshop-inventory-service/internal/bom"
	"github.com/fekuna/fabshop-inventory-service/internal/bom/dto"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
)

type MemoryRepository struct {
	mu   sync.Mutex
	rows map[string]*model.OrderBom
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[string]*model.OrderBom)}
}

func (r *MemoryRepository) GetOrCreate(_ context.Context, orderID, orderNumber string) (*model.OrderBom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.rows[orderID]
	if !ok {
		b = bom.NewDraft(orderID, orderNumber, time.Now().UTC())
		r.rows[orderID] = b
	}
	return b.Clone(), nil
}

func (r *MemoryRepository) FindByOrderID(_ context.Context, orderID string) (*model.OrderBom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[orderID].Clone(), nil
}

func (r *MemoryRepository) Update(_ context.Context, orderID, orderNumber string, fn func(b *model.OrderBom) error) (*model.OrderBom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.rows[orderID]
	if !ok {
		b = bom.NewDraft(orderID, orderNumber, time.Now().UTC())
	}
	b = b.Clone()
	if err := fn(b); err != nil {
		return nil, err
	}
	r.rows[orderID] = b
	return b.Clone(), nil
}

func (r *MemoryRepository) RecordConsumption(_ context.Context, rec *dto.ConsumptionRecord) (*model.OrderBom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	b, ok := r.rows[rec.OrderID]
	if !ok {
		b = bom.NewDraft(rec.OrderID, rec.OrderNumber, now)
		r.rows[rec.OrderID] = b
	}
	bom.ApplyConsumption(b, rec, now)
	return b.Clone(), nil
}

var (
	_ bom.Repository = (*MemoryRepository)(nil)
	_ bom.Repository = (*PGRepository)(nil)
)
