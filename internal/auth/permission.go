package auth

import (
	"github.com/fekuna/fabshop-inventory-service/internal/apperr"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
)

type StockAction string

const (
	ActionConsume StockAction = "consume"
	ActionReceive StockAction = "receive"
	ActionAdjust  StockAction = "adjust"
)

// CheckStockPermission applies the tenant's production-role toggles. Roles other than
// production are not restricted here.
func CheckStockPermission(a Actor, perms model.Permissions, action StockAction) error {
	if a.Role != RoleProduction {
		return nil
	}
	allowed := false
	switch action {
	case ActionConsume:
		allowed = perms.ProductionCanConsume
	case ActionReceive:
		allowed = perms.ProductionCanReceive
	case ActionAdjust:
		allowed = perms.ProductionCanAdjust
	}
	if !allowed {
		return apperr.Forbidden("role %s may not %s stock", a.Role, action)
	}
	return nil
}
