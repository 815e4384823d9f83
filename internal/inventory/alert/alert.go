// Package alert decides when a stock change warrants a low or negative stock notification.
package alert

import (
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/fabshop-inventory-service/internal/logger"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
	"github.com/fekuna/fabshop-inventory-service/internal/notification"
	"go.uber.org/zap"
)

// Context carries what the caller knows about the triggering order, if any.
type Context struct {
	OrderNumber      string
	OrderOwnerUserID string
}

// Decision is the evaluator's verdict. State is always written back to the material;
// Notification is nil when nothing fires.
type Decision struct {
	State        model.LowStockState
	Notification *notification.Notification
}

type Evaluator interface {
	Evaluate(m *model.Material, s model.Settings, ac Context, now time.Time) (Decision, error)
}

type RuleEvaluator struct {
	logger logger.ZapLogger
}

func NewRuleEvaluator(log logger.ZapLogger) *RuleEvaluator {
	return &RuleEvaluator{logger: log}
}

var _ Evaluator = (*RuleEvaluator)(nil)

// Evaluate runs against the material as it will be committed. While stock stays low every
// evaluation outside the cooldown fires again; negative stock fires once per crossing.
func (e *RuleEvaluator) Evaluate(m *model.Material, s model.Settings, ac Context, now time.Time) (Decision, error) {
	rules := s.LowStockRules
	state := m.LowStock

	isLow := rules.EnableReorderPoint &&
		m.ReorderPointQty.IsPositive() &&
		m.OnHandQty.LessThanOrEqual(m.ReorderPointQty)
	isNegative := rules.AlertOnNegative && m.OnHandQty.IsNegative()
	state.IsLow = isLow

	decision := Decision{State: state}

	if state.LastAlertAt != nil && now.Sub(*state.LastAlertAt) < rules.Cooldown() {
		return decision, nil
	}

	newlyNegative := isNegative && (state.LastAlertQty == nil || !state.LastAlertQty.IsNegative())
	if !newlyNegative && !isLow {
		return decision, nil
	}

	at := now
	qty := m.OnHandQty
	decision.State.LastAlertAt = &at
	decision.State.LastAlertQty = &qty
	decision.Notification = e.build(m, s, ac, newlyNegative)
	return decision, nil
}

func (e *RuleEvaluator) build(m *model.Material, s model.Settings, ac Context, negative bool) *notification.Notification {
	n := &notification.Notification{
		Type:        notification.TypeLowStock,
		Title:       "Low stock: " + m.Name,
		EntityType:  "material",
		EntityID:    m.ID,
		OrderNumber: ac.OrderNumber,
		Roles:       append([]string(nil), s.AlertRecipients.Roles...),
	}
	if negative {
		n.Type = notification.TypeNegativeStock
		n.Title = "Negative stock: " + m.Name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s) is at %s %s on hand", m.Name, m.SKU, m.OnHandQty.String(), m.Unit)
	if s.LowStockRules.EnableReorderPoint && m.ReorderPointQty.IsPositive() {
		fmt.Fprintf(&b, ", reorder point %s %s", m.ReorderPointQty.String(), m.Unit)
	}
	if ac.OrderNumber != "" {
		fmt.Fprintf(&b, " after consumption for order %s", ac.OrderNumber)
	}
	b.WriteString(".")
	n.Message = b.String()

	if s.AlertRecipients.IncludeOrderOwner && ac.OrderNumber != "" {
		if ac.OrderOwnerUserID != "" {
			n.UserIDs = []string{ac.OrderOwnerUserID}
		} else if !s.AlertRecipients.FallbackToRolesOnly {
			e.logger.Warn("order owner unknown, alerting roles only",
				zap.String("material_id", m.ID),
				zap.String("order_number", ac.OrderNumber),
			)
		}
	}
	return n
}
