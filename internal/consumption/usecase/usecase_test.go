package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fekuna/fabshop-inventory-service/internal/apperr"
	"github.com/fekuna/fabshop-inventory-service/internal/auth"
	"github.com/fekuna/fabshop-inventory-service/internal/bom"
	bomdto "github.com/fekuna/fabshop-inventory-service/internal/bom/dto"
	bomrepo "github.com/fekuna/fabshop-inventory-service/internal/bom/repository"
	bomuc "github.com/fekuna/fabshop-inventory-service/internal/bom/usecase"
	"github.com/fekuna/fabshop-inventory-service/internal/cache"
	"github.com/fekuna/fabshop-inventory-service/internal/consumption/dto"
	"github.com/fekuna/fabshop-inventory-service/internal/inventory/alert"
	ledgerrepo "github.com/fekuna/fabshop-inventory-service/internal/inventory/repository"
	ledgeruc "github.com/fekuna/fabshop-inventory-service/internal/inventory/usecase"
	"github.com/fekuna/fabshop-inventory-service/internal/logger"
	materialrepo "github.com/fekuna/fabshop-inventory-service/internal/material/repository"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
	"github.com/fekuna/fabshop-inventory-service/internal/notification"
	"github.com/fekuna/fabshop-inventory-service/internal/order"
	orderrepo "github.com/fekuna/fabshop-inventory-service/internal/order/repository"
	"github.com/fekuna/fabshop-inventory-service/internal/settings"
	settingsdto "github.com/fekuna/fabshop-inventory-service/internal/settings/dto"
	settingsrepo "github.com/fekuna/fabshop-inventory-service/internal/settings/repository"
	settingsuc "github.com/fekuna/fabshop-inventory-service/internal/settings/usecase"
	"github.com/shopspring/decimal"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n notification.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

type harness struct {
	uc        *consumptionUseCase
	boms      bom.UseCase
	settings  settings.UseCase
	materials *materialrepo.MemoryRepository
	ledger    *ledgerrepo.MemoryRepository
	notifier  *recordingNotifier
}

var operator = auth.Actor{UserID: "op-1", Role: auth.RoleProduction}

func newHarness(t *testing.T, mode model.ConsumptionMode) *harness {
	t.Helper()
	log := logger.NewNop()
	materials := materialrepo.NewMemoryRepository()
	ledgerStore := ledgerrepo.NewMemoryRepository(materials)
	settingsUC := settingsuc.NewSettingsUseCase(settingsrepo.NewMemoryRepository(), nil, "test", log)
	orders := orderrepo.NewMemoryDirectory(order.Order{ID: "o1", OrderNumber: "WO-77", OwnerUserID: "owner-9"})
	notifier := &recordingNotifier{}

	m := string(mode)
	if _, err := settingsUC.UpdateSettings(context.Background(), &settingsdto.SettingsPatch{ConsumptionMode: &m}); err != nil {
		t.Fatal(err)
	}

	ledger := ledgeruc.NewLedgerUseCase(ledgerStore, materials, settingsUC, alert.NewRuleEvaluator(log), notifier, cache.NewKeyedMutex(), nil, log)
	boms := bomuc.NewBomUseCase(bomrepo.NewMemoryRepository(), materials, orders, settingsUC, log)
	uc := NewConsumptionUseCase(ledger, boms, materials, orders, settingsUC, log).(*consumptionUseCase)

	for _, id := range []string{"steel", "bolt"} {
		if err := materials.Create(context.Background(), &model.Material{
			ID:              id,
			SKU:             "SKU-" + id,
			Name:            id,
			Unit:            "pcs",
			IsActive:        true,
			OnHandQty:       decimal.NewFromInt(100),
			ReorderPointQty: decimal.NewFromInt(10),
		}); err != nil {
			t.Fatal(err)
		}
	}
	return &harness{uc: uc, boms: boms, settings: settingsUC, materials: materials, ledger: ledgerStore, notifier: notifier}
}

func (h *harness) onHand(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	m, _ := h.materials.FindByID(context.Background(), id)
	return m.OnHandQty
}

func item(id, qty string) dto.ConsumeItem {
	return dto.ConsumeItem{MaterialID: id, Qty: decimal.RequireFromString(qty)}
}

func TestStrictRequiresBomLine(t *testing.T) {
	h := newHarness(t, model.ModeBomStrict)
	ctx := context.Background()

	_, err := h.uc.ConsumeForOrder(ctx, &dto.ConsumeInput{OrderID: "o1", Items: []dto.ConsumeItem{item("steel", "5")}, Actor: operator})
	if !errors.Is(err, apperr.ErrBomLineRequired) {
		t.Fatalf("err = %v", err)
	}
	if !h.onHand(t, "steel").Equal(decimal.NewFromInt(100)) {
		t.Fatalf("stock moved without a BOM line")
	}
	if txns, _ := h.ledger.ListByMaterial(ctx, "steel", 0); len(txns) != 0 {
		t.Fatalf("ledger written without a BOM line")
	}

	lines := []bomdto.BomLineInput{{MaterialID: "steel", PlannedQty: decimal.NewFromInt(20)}}
	if _, err := h.boms.UpsertOrderBom(ctx, &bomdto.UpsertBomInput{OrderID: "o1", Lines: &lines}); err != nil {
		t.Fatal(err)
	}

	res, err := h.uc.ConsumeForOrder(ctx, &dto.ConsumeInput{OrderID: "o1", Items: []dto.ConsumeItem{item("steel", "5")}, Actor: operator})
	if err != nil {
		t.Fatal(err)
	}
	if !h.onHand(t, "steel").Equal(decimal.NewFromInt(95)) {
		t.Fatalf("onHand = %s", h.onHand(t, "steel"))
	}
	line := res.Bom.Lines[0]
	if line.Unplanned || !line.ConsumedQty.Equal(decimal.NewFromInt(5)) || !line.PlannedQty.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("line = %+v", line)
	}
	if len(line.ConsumptionTxnIDs) != 1 || line.ConsumptionTxnIDs[0] != res.Items[0].Transaction.ID {
		t.Fatalf("txn ids = %v", line.ConsumptionTxnIDs)
	}
}

func TestAssistedCreatesUnplannedLine(t *testing.T) {
	h := newHarness(t, model.ModeBomAssisted)

	res, err := h.uc.ConsumeForOrder(context.Background(), &dto.ConsumeInput{OrderID: "o1", Items: []dto.ConsumeItem{item("bolt", "3")}, Actor: operator})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Bom.Lines) != 1 {
		t.Fatalf("lines = %+v", res.Bom.Lines)
	}
	line := res.Bom.Lines[0]
	if !line.Unplanned || !line.PlannedQty.IsZero() || !line.ConsumedQty.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("line = %+v", line)
	}
	if line.MaterialSnapshot.SKU != "SKU-bolt" {
		t.Fatalf("snapshot = %+v", line.MaterialSnapshot)
	}

	txn := res.Items[0].Transaction
	if txn.Type != model.TxnConsume || !txn.QtyDelta.Equal(decimal.NewFromInt(-3)) {
		t.Fatalf("txn = %+v", txn)
	}
	want := model.TransactionRef{EntityType: model.RefEntityOrder, EntityID: "o1", OrderID: "o1", OrderNumber: "WO-77"}
	if txn.Ref != want || txn.ActorUserID != "op-1" {
		t.Fatalf("ref = %+v actor = %s", txn.Ref, txn.ActorUserID)
	}
}

func TestNoBomLeavesBomAlone(t *testing.T) {
	h := newHarness(t, model.ModeNoBom)
	ctx := context.Background()

	res, err := h.uc.ConsumeForOrder(ctx, &dto.ConsumeInput{OrderID: "o1", Items: []dto.ConsumeItem{item("steel", "1")}, Actor: operator})
	if err != nil {
		t.Fatal(err)
	}
	if res.Bom != nil {
		t.Fatalf("NO_BOM must not create a BOM")
	}
	if b, _ := h.boms.FindOrderBom(ctx, "o1"); b != nil {
		t.Fatalf("BOM persisted in NO_BOM mode")
	}
	if !h.onHand(t, "steel").Equal(decimal.NewFromInt(99)) {
		t.Fatalf("onHand = %s", h.onHand(t, "steel"))
	}
}

func TestPartialBatchKeepsEarlierItems(t *testing.T) {
	h := newHarness(t, model.ModeBomAssisted)

	res, err := h.uc.ConsumeForOrder(context.Background(), &dto.ConsumeInput{
		OrderID: "o1",
		Items:   []dto.ConsumeItem{item("steel", "2"), item("ghost", "1"), item("bolt", "4")},
		Actor:   operator,
	})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	if res == nil || len(res.Items) != 1 || res.Items[0].Material.ID != "steel" {
		t.Fatalf("partial result = %+v", res)
	}
	if !h.onHand(t, "steel").Equal(decimal.NewFromInt(98)) {
		t.Fatalf("first item must stay applied")
	}
	if !h.onHand(t, "bolt").Equal(decimal.NewFromInt(100)) {
		t.Fatalf("items after the failure must not run")
	}
	if res.Bom == nil || len(res.Bom.Lines) != 1 {
		t.Fatalf("bom = %+v", res.Bom)
	}
}

func TestConsumeRejects(t *testing.T) {
	h := newHarness(t, model.ModeBomAssisted)
	ctx := context.Background()

	cases := []struct {
		name  string
		input *dto.ConsumeInput
		want  error
	}{
		{"unknown order", &dto.ConsumeInput{OrderID: "o404", Items: []dto.ConsumeItem{item("steel", "1")}, Actor: operator}, apperr.ErrNotFound},
		{"no items", &dto.ConsumeInput{OrderID: "o1", Actor: operator}, apperr.ErrValidation},
		{"negative qty", &dto.ConsumeInput{OrderID: "o1", Items: []dto.ConsumeItem{item("steel", "-2")}, Actor: operator}, apperr.ErrValidation},
		{"rounds to zero", &dto.ConsumeInput{OrderID: "o1", Items: []dto.ConsumeItem{item("steel", "0.0001")}, Actor: operator}, apperr.ErrValidation},
		{"too fine", &dto.ConsumeInput{OrderID: "o1", Items: []dto.ConsumeItem{item("steel", "1e-20000000")}, Actor: operator}, apperr.ErrValidation},
		{"too large", &dto.ConsumeInput{OrderID: "o1", Items: []dto.ConsumeItem{item("steel", "1e17")}, Actor: operator}, apperr.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := h.uc.ConsumeForOrder(ctx, tc.input); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
	if !h.onHand(t, "steel").Equal(decimal.NewFromInt(100)) {
		t.Fatalf("rejected batches moved stock")
	}
}

func TestProductionNeedsConsumePermission(t *testing.T) {
	h := newHarness(t, model.ModeBomAssisted)
	ctx := context.Background()
	deny := false
	if _, err := h.settings.UpdateSettings(ctx, &settingsdto.SettingsPatch{Permissions: &settingsdto.PermissionsPatch{ProductionCanConsume: &deny}}); err != nil {
		t.Fatal(err)
	}

	in := &dto.ConsumeInput{OrderID: "o1", Items: []dto.ConsumeItem{item("steel", "1")}, Actor: operator}
	if _, err := h.uc.ConsumeForOrder(ctx, in); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("err = %v", err)
	}

	in.Actor = auth.Actor{UserID: "boss", Role: "admin"}
	if _, err := h.uc.ConsumeForOrder(ctx, in); err != nil {
		t.Fatalf("admin is not gated: %v", err)
	}
}

func TestLowStockAlertNamesOrderOwner(t *testing.T) {
	h := newHarness(t, model.ModeBomAssisted)
	ctx := context.Background()
	yes := true
	if _, err := h.settings.UpdateSettings(ctx, &settingsdto.SettingsPatch{AlertRecipients: &settingsdto.AlertRecipientsPatch{IncludeOrderOwner: &yes}}); err != nil {
		t.Fatal(err)
	}

	if _, err := h.uc.ConsumeForOrder(ctx, &dto.ConsumeInput{OrderID: "o1", Items: []dto.ConsumeItem{item("steel", "95")}, Actor: operator}); err != nil {
		t.Fatal(err)
	}
	if len(h.notifier.sent) != 1 {
		t.Fatalf("alerts = %d", len(h.notifier.sent))
	}
	n := h.notifier.sent[0]
	if n.OrderNumber != "WO-77" || len(n.UserIDs) != 1 || n.UserIDs[0] != "owner-9" {
		t.Fatalf("notification = %+v", n)
	}
}
