// Package notification is the outbound port for user-facing alerts. Delivery is
// owned by the notification service; this core only hands messages over.
package notification

import "context"

const (
	TypeLowStock      = "inventory.low_stock"
	TypeNegativeStock = "inventory.negative_stock"
)

type Notification struct {
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Message     string   `json:"message"`
	EntityType  string   `json:"entityType"`
	EntityID    string   `json:"entityId"`
	OrderNumber string   `json:"orderNumber,omitempty"`
	Roles       []string `json:"roles"`
	UserIDs     []string `json:"userIds,omitempty"`
}

// Port dispatches a notification. Implementations must not block on delivery; callers
// log and drop any error.
type Port interface {
	Notify(ctx context.Context, n Notification) error
}
