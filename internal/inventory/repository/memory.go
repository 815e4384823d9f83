package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/fekuna/fabshop-inventory-service/internal/inventory"
	materialrepo "github.com/fekuna/fabshop-inventory-service/internal/material/repository"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
)

// MemoryRepository is the ledger over a shared in-memory material table. Units of work
// are serialized and staged; nothing is visible until fn returns nil.
type MemoryRepository struct {
	materials *materialrepo.MemoryRepository

	mu     sync.RWMutex
	ledger map[string][]model.InventoryTransaction
}

func NewMemoryRepository(materials *materialrepo.MemoryRepository) *MemoryRepository {
	return &MemoryRepository{
		materials: materials,
		ledger:    make(map[string][]model.InventoryTransaction),
	}
}

func (r *MemoryRepository) WithinTx(_ context.Context, fn func(tx inventory.Tx) error) error {
	return r.materials.Exclusive(func(rows map[string]*model.Material) error {
		tx := &memTx{rows: rows, staged: map[string]*model.Material{}}
		if err := fn(tx); err != nil {
			return err
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		for id, m := range tx.staged {
			rows[id] = m
		}
		for _, t := range tx.appended {
			r.ledger[t.MaterialID] = append(r.ledger[t.MaterialID], t)
		}
		return nil
	})
}

func (r *MemoryRepository) ListByMaterial(_ context.Context, materialID string, limit int) ([]model.InventoryTransaction, error) {
	r.mu.RLock()
	src := r.ledger[materialID]
	out := make([]model.InventoryTransaction, len(src))
	copy(out, src)
	r.mu.RUnlock()

	// Stable sort keeps append order for equal timestamps; reverse gives newest first.
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memTx struct {
	rows     map[string]*model.Material
	staged   map[string]*model.Material
	appended []model.InventoryTransaction
}

func (t *memTx) LockMaterial(_ context.Context, materialID string) (*model.Material, error) {
	if m, ok := t.staged[materialID]; ok {
		return m.Clone(), nil
	}
	return t.rows[materialID].Clone(), nil
}

func (t *memTx) SaveStock(_ context.Context, m *model.Material) error {
	base, ok := t.staged[m.ID]
	if !ok {
		base = t.rows[m.ID].Clone()
	}
	if base == nil {
		return nil
	}
	base.OnHandQty = m.OnHandQty
	base.LowStock = m.Clone().LowStock
	base.UpdatedAt = m.UpdatedAt
	t.staged[m.ID] = base
	return nil
}

func (t *memTx) AppendTransaction(_ context.Context, txn *model.InventoryTransaction) error {
	c := *txn
	if txn.UnitCost != nil {
		v := *txn.UnitCost
		c.UnitCost = &v
	}
	t.appended = append(t.appended, c)
	return nil
}

var (
	_ inventory.Store = (*MemoryRepository)(nil)
	_ inventory.Store = (*PGRepository)(nil)
)
