package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fekuna/fabshop-inventory-service/internal/apperr"
	"github.com/fekuna/fabshop-inventory-service/internal/bom/dto"
	"github.com/fekuna/fabshop-inventory-service/internal/bom/repository"
	"github.com/fekuna/fabshop-inventory-service/internal/logger"
	materialrepo "github.com/fekuna/fabshop-inventory-service/internal/material/repository"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
	"github.com/fekuna/fabshop-inventory-service/internal/order"
	orderrepo "github.com/fekuna/fabshop-inventory-service/internal/order/repository"
	settingsrepo "github.com/fekuna/fabshop-inventory-service/internal/settings/repository"
	settingsuc "github.com/fekuna/fabshop-inventory-service/internal/settings/usecase"
	"github.com/shopspring/decimal"
)

func newTestUseCase(t *testing.T) (*bomUseCase, *materialrepo.MemoryRepository) {
	t.Helper()
	materials := materialrepo.NewMemoryRepository()
	if err := materials.Create(context.Background(), &model.Material{
		ID:   "steel",
		SKU:  "ST-10",
		Name: "Steel plate 10mm",
		Unit: "sheet",
		Spec: model.Attributes{"thicknessMm": 10},
	}); err != nil {
		t.Fatal(err)
	}
	orders := orderrepo.NewMemoryDirectory(order.Order{ID: "o1", OrderNumber: "WO-1", OwnerUserID: "u1"})
	settingsUC := settingsuc.NewSettingsUseCase(settingsrepo.NewMemoryRepository(), nil, "test", logger.NewNop())
	uc := NewBomUseCase(repository.NewMemoryRepository(), materials, orders, settingsUC, logger.NewNop()).(*bomUseCase)
	return uc, materials
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func strPtr(s string) *string { return &s }

func TestGetOrderBomCreatesDraft(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	b, err := uc.GetOrderBom(ctx, "o1")
	if err != nil {
		t.Fatal(err)
	}
	if b.Status != model.BomDraft || len(b.Lines) != 0 || b.OrderNumber != "WO-1" {
		t.Fatalf("unexpected draft: %+v", b)
	}

	again, _ := uc.GetOrderBom(ctx, "o1")
	if !again.CreatedAt.Equal(b.CreatedAt) {
		t.Fatalf("second read must return the same BOM")
	}

	if _, err := uc.GetOrderBom(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown order: %v", err)
	}
	if found, _ := uc.FindOrderBom(ctx, "missing"); found != nil {
		t.Fatalf("FindOrderBom must not create")
	}
}

func TestUpsertOrderBomNormalizesLines(t *testing.T) {
	uc, materials := newTestUseCase(t)
	ctx := context.Background()

	lines := []dto.BomLineInput{{
		MaterialID:        " steel ",
		PlannedQty:        dec("2.34567"),
		ConsumedQty:       dec("-4"),
		ScrapPct:          dec("140"),
		ConsumptionTxnIDs: []string{" t1", "t1", "", "t2"},
	}}
	b, err := uc.UpsertOrderBom(ctx, &dto.UpsertBomInput{OrderID: "o1", Status: strPtr(" LOCKED "), Lines: &lines})
	if err != nil {
		t.Fatal(err)
	}
	if b.Status != model.BomLocked {
		t.Fatalf("status = %s", b.Status)
	}
	l := b.Lines[0]
	if l.LineID == "" {
		t.Fatalf("lineId must be generated")
	}
	if !l.PlannedQty.Equal(dec("2.346")) || !l.ConsumedQty.IsZero() || !l.ScrapPct.Equal(dec("100")) {
		t.Fatalf("quantities: %+v", l)
	}
	if len(l.ConsumptionTxnIDs) != 2 || l.ConsumptionTxnIDs[0] != "t1" || l.ConsumptionTxnIDs[1] != "t2" {
		t.Fatalf("txn ids: %v", l.ConsumptionTxnIDs)
	}
	if l.MaterialSnapshot.SKU != "ST-10" || l.MaterialSnapshot.Unit != "sheet" {
		t.Fatalf("snapshot: %+v", l.MaterialSnapshot)
	}

	// Renaming the material later does not touch the stored snapshot.
	m, _ := materials.FindByID(ctx, "steel")
	m.Name = "Renamed"
	if err := materials.Update(ctx, m); err != nil {
		t.Fatal(err)
	}
	stored, _ := uc.FindOrderBom(ctx, "o1")
	if stored.Lines[0].MaterialSnapshot.Name != "Steel plate 10mm" {
		t.Fatalf("snapshot drifted: %s", stored.Lines[0].MaterialSnapshot.Name)
	}

	// Status only keeps lines.
	b, err = uc.UpsertOrderBom(ctx, &dto.UpsertBomInput{OrderID: "o1", Status: strPtr("completed")})
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Lines) != 1 || b.Status != model.BomCompleted {
		t.Fatalf("status-only patch: %+v", b)
	}
}

func TestUpsertOrderBomRejects(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()
	unknown := []dto.BomLineInput{{MaterialID: "ghost"}}
	blank := []dto.BomLineInput{{MaterialID: "  "}}
	hugePlan := []dto.BomLineInput{{MaterialID: "steel", PlannedQty: dec("1e17")}}
	finePlan := []dto.BomLineInput{{MaterialID: "steel", PlannedQty: dec("1e-20000000")}}
	fineScrap := []dto.BomLineInput{{MaterialID: "steel", ScrapPct: dec("5e-20000000")}}

	cases := []struct {
		name  string
		input *dto.UpsertBomInput
		want  error
	}{
		{"bad status", &dto.UpsertBomInput{OrderID: "o1", Status: strPtr("archived")}, apperr.ErrValidation},
		{"missing order id", &dto.UpsertBomInput{}, apperr.ErrValidation},
		{"unknown order", &dto.UpsertBomInput{OrderID: "nope"}, apperr.ErrNotFound},
		{"unknown material", &dto.UpsertBomInput{OrderID: "o1", Lines: &unknown}, apperr.ErrNotFound},
		{"blank material", &dto.UpsertBomInput{OrderID: "o1", Lines: &blank}, apperr.ErrValidation},
		{"huge planned qty", &dto.UpsertBomInput{OrderID: "o1", Lines: &hugePlan}, apperr.ErrValidation},
		{"too fine planned qty", &dto.UpsertBomInput{OrderID: "o1", Lines: &finePlan}, apperr.ErrValidation},
		{"too fine scrap", &dto.UpsertBomInput{OrderID: "o1", Lines: &fineScrap}, apperr.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := uc.UpsertOrderBom(ctx, tc.input); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

// racingRepo commits a consumption the first time the upsert touches the row, the
// way a concurrent ConsumeForOrder would.
type racingRepo struct {
	*repository.MemoryRepository
	once sync.Once
	rec  *dto.ConsumptionRecord
}

func (r *racingRepo) race(ctx context.Context) {
	r.once.Do(func() {
		if _, err := r.MemoryRepository.RecordConsumption(ctx, r.rec); err != nil {
			panic(err)
		}
	})
}

func (r *racingRepo) GetOrCreate(ctx context.Context, orderID, orderNumber string) (*model.OrderBom, error) {
	b, err := r.MemoryRepository.GetOrCreate(ctx, orderID, orderNumber)
	r.race(ctx)
	return b, err
}

func (r *racingRepo) Update(ctx context.Context, orderID, orderNumber string, fn func(b *model.OrderBom) error) (*model.OrderBom, error) {
	r.race(ctx)
	return r.MemoryRepository.Update(ctx, orderID, orderNumber, fn)
}

func TestStatusOnlyUpsertKeepsConcurrentConsumption(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()
	repo := &racingRepo{
		MemoryRepository: repository.NewMemoryRepository(),
		rec: &dto.ConsumptionRecord{
			OrderID: "o1", OrderNumber: "WO-1", MaterialID: "steel",
			Snapshot: model.MaterialSnapshot{SKU: "ST-10", Name: "Steel plate 10mm", Unit: "sheet"},
			Qty:      dec("2"), TxnID: "t9", Places: 3,
		},
	}
	uc.repo = repo

	b, err := uc.UpsertOrderBom(ctx, &dto.UpsertBomInput{OrderID: "o1", Status: strPtr("locked")})
	if err != nil {
		t.Fatal(err)
	}
	if b.Status != model.BomLocked {
		t.Fatalf("status = %s", b.Status)
	}
	stored, _ := repo.FindByOrderID(ctx, "o1")
	if len(stored.Lines) != 1 {
		t.Fatalf("consumption line lost: %+v", stored.Lines)
	}
	l := stored.Lines[0]
	if !l.ConsumedQty.Equal(dec("2")) || len(l.ConsumptionTxnIDs) != 1 || l.ConsumptionTxnIDs[0] != "t9" {
		t.Fatalf("line = %+v", l)
	}
	if stored.Status != model.BomLocked {
		t.Fatalf("stored status = %s", stored.Status)
	}
}

func TestRecordConsumption(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()
	snap := model.MaterialSnapshot{SKU: "ST-10", Name: "Steel plate 10mm", Unit: "sheet"}

	b, err := uc.RecordConsumption(ctx, &dto.ConsumptionRecord{
		OrderID: "o1", OrderNumber: "WO-1", MaterialID: "steel", Snapshot: snap,
		Qty: dec("1.5"), TxnID: "t1", Places: 3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Lines) != 1 || !b.Lines[0].Unplanned || !b.Lines[0].PlannedQty.IsZero() || !b.Lines[0].ConsumedQty.Equal(dec("1.5")) {
		t.Fatalf("unplanned line: %+v", b.Lines)
	}

	b, _ = uc.RecordConsumption(ctx, &dto.ConsumptionRecord{
		OrderID: "o1", MaterialID: "steel", Snapshot: snap, Qty: dec("2"), TxnID: "t2", Places: 3,
	})
	if len(b.Lines) != 1 || !b.Lines[0].ConsumedQty.Equal(dec("3.5")) {
		t.Fatalf("increment: %+v", b.Lines[0])
	}
	if got := b.Lines[0].ConsumptionTxnIDs; len(got) != 2 || got[1] != "t2" {
		t.Fatalf("txn ids: %v", got)
	}

	b, _ = uc.RecordConsumption(ctx, &dto.ConsumptionRecord{
		OrderID: "o1", MaterialID: "steel", Snapshot: snap, Qty: dec("2"), TxnID: "t2", Places: 3,
	})
	if !b.Lines[0].ConsumedQty.Equal(dec("3.5")) {
		t.Fatalf("replayed txn counted twice: %s", b.Lines[0].ConsumedQty)
	}
}
