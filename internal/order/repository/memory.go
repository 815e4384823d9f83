package repository

import (
	"context"
	"sync"

	"github.com/fekuna/fabshop-inventory-service/internal/order"
)

// MemoryDirectory is a fixed order list for tests and local runs without the order database.
type MemoryDirectory struct {
	mu     sync.RWMutex
	orders map[string]order.Order
}

func NewMemoryDirectory(orders ...order.Order) *MemoryDirectory {
	d := &MemoryDirectory{orders: make(map[string]order.Order)}
	for _, o := range orders {
		d.orders[o.ID] = o
	}
	return d
}

func (d *MemoryDirectory) Add(o order.Order) {
	d.mu.Lock()
	d.orders[o.ID] = o
	d.mu.Unlock()
}

func (d *MemoryDirectory) Exists(_ context.Context, orderID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.orders[orderID]
	return ok, nil
}

func (d *MemoryDirectory) Get(_ context.Context, orderID string) (*order.Order, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	o, ok := d.orders[orderID]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

var (
	_ order.Directory = (*MemoryDirectory)(nil)
	_ order.Directory = (*PGDirectory)(nil)
)
