package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/fabshop-inventory-service/internal/apperr"
	"github.com/fekuna/fabshop-inventory-service/internal/logger"
	"github.com/fekuna/fabshop-inventory-service/internal/material"
	"github.com/fekuna/fabshop-inventory-service/internal/material/dto"
	"github.com/fekuna/fabshop-inventory-service/internal/material/repository"
	"github.com/fekuna/fabshop-inventory-service/internal/model"
	"github.com/fekuna/fabshop-inventory-service/internal/search"
	"github.com/shopspring/decimal"
)

type fakeSearcher struct {
	mu        sync.Mutex
	indexed   map[string][]byte
	searchErr error
	searches  int
}

func newFakeSearcher() *fakeSearcher { return &fakeSearcher{indexed: map[string][]byte{}} }

func (f *fakeSearcher) CreateIndex(context.Context, string, string) error { return nil }

func (f *fakeSearcher) Index(_ context.Context, _ string, id string, doc any) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.indexed[id] = b
	f.mu.Unlock()
	return nil
}

func (f *fakeSearcher) Search(context.Context, string, map[string]any) (*search.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	res := &search.SearchResult{}
	for id, src := range f.indexed {
		res.Hits.Hits = append(res.Hits.Hits, struct {
			ID     string          `json:"_id"`
			Source json.RawMessage `json:"_source"`
		}{ID: id, Source: src})
	}
	res.Hits.Total.Value = len(res.Hits.Hits)
	return res, nil
}

func (f *fakeSearcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.indexed)
}

func newUseCase(t *testing.T, es Searcher) (material.UseCase, *repository.MemoryRepository) {
	t.Helper()
	repo := repository.NewMemoryRepository()
	return NewMaterialUseCase(repo, es, logger.NewNop()), repo
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestCreateMaterial(t *testing.T) {
	uc, _ := newUseCase(t, nil)
	ctx := context.Background()

	m, err := uc.CreateMaterial(ctx, &dto.CreateMaterialInput{
		SKU:             "  SKU-100 ",
		Name:            " Steel plate 5mm ",
		Unit:            "sheet",
		Spec:            model.Attributes{"thickness": 5, " ": "x"},
		ReorderPointQty: dec("5"),
	})
	if err != nil {
		t.Fatalf("CreateMaterial: %v", err)
	}
	if m.SKU != "SKU-100" || m.Name != "Steel plate 5mm" || !m.IsActive {
		t.Fatalf("unexpected material: %+v", m)
	}
	if !m.OnHandQty.IsZero() || m.LowStock.IsLow {
		t.Fatalf("new material must start empty")
	}
	if m.Spec["thickness"] != float64(5) || len(m.Spec) != 1 {
		t.Fatalf("spec = %v", m.Spec)
	}

	_, err = uc.CreateMaterial(ctx, &dto.CreateMaterialInput{SKU: "SKU-100", Name: "dup", Unit: "kg"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("duplicate sku: %v", err)
	}
}

func TestCreateMaterialValidation(t *testing.T) {
	uc, _ := newUseCase(t, nil)
	cases := []dto.CreateMaterialInput{
		{SKU: "  ", Name: "n", Unit: "u"},
		{SKU: "s", Name: "", Unit: "u"},
		{SKU: "s", Name: "n", Unit: "\t"},
		{SKU: "s", Name: "n", Unit: "u", ReorderPointQty: dec("-1")},
		{SKU: "s", Name: "n", Unit: "u", ReorderPointQty: dec("1e17")},
		{SKU: "s", Name: "n", Unit: "u", DefaultUnitCost: dec("1e-20000000")},
	}
	for i, in := range cases {
		in := in
		if _, err := uc.CreateMaterial(context.Background(), &in); !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestUpdateMaterialLeavesStockAlone(t *testing.T) {
	uc, repo := newUseCase(t, nil)
	ctx := context.Background()
	m, _ := uc.CreateMaterial(ctx, &dto.CreateMaterialInput{SKU: "A", Name: "Angle", Unit: "m"})
	other, _ := uc.CreateMaterial(ctx, &dto.CreateMaterialInput{SKU: "B", Name: "Bar", Unit: "m"})

	_ = repo.Exclusive(func(rows map[string]*model.Material) error {
		rows[m.ID].OnHandQty = decimal.NewFromInt(7)
		rows[m.ID].LowStock.IsLow = true
		return nil
	})

	name := "Angle iron"
	updated, err := uc.UpdateMaterial(ctx, &dto.UpdateMaterialInput{ID: m.ID, Name: &name, ReorderPointQty: dec("3")})
	if err != nil {
		t.Fatalf("UpdateMaterial: %v", err)
	}
	if updated.Name != "Angle iron" || updated.SKU != "A" || updated.Unit != "m" {
		t.Fatalf("partial update: %+v", updated)
	}

	stored, _ := uc.GetMaterial(ctx, m.ID)
	if !stored.OnHandQty.Equal(decimal.NewFromInt(7)) || !stored.LowStock.IsLow {
		t.Fatalf("update must not touch ledger-owned fields: %+v", stored)
	}
	if !stored.ReorderPointQty.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("reorder point not updated")
	}

	sku := other.SKU
	if _, err := uc.UpdateMaterial(ctx, &dto.UpdateMaterialInput{ID: m.ID, SKU: &sku}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("sku collision: %v", err)
	}
	blank := " "
	if _, err := uc.UpdateMaterial(ctx, &dto.UpdateMaterialInput{ID: m.ID, Unit: &blank}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("blank unit: %v", err)
	}
	if _, err := uc.UpdateMaterial(ctx, &dto.UpdateMaterialInput{ID: "missing", Name: &name}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("missing material: %v", err)
	}
}

func TestGetMaterialNotFound(t *testing.T) {
	uc, _ := newUseCase(t, nil)
	if _, err := uc.GetMaterial(context.Background(), "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestListMaterials(t *testing.T) {
	uc, repo := newUseCase(t, nil)
	ctx := context.Background()
	for i := 0; i < 250; i++ {
		_, err := uc.CreateMaterial(ctx, &dto.CreateMaterialInput{
			SKU:  fmt.Sprintf("SKU-%03d", i),
			Name: fmt.Sprintf("Material %d", i),
			Unit: "kg",
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	low, _ := uc.CreateMaterial(ctx, &dto.CreateMaterialInput{SKU: "PIPE-1", Name: "Galvanised pipe", Unit: "m"})
	_ = repo.Exclusive(func(rows map[string]*model.Material) error {
		rows[low.ID].LowStock.IsLow = true
		return nil
	})

	items, total, err := uc.ListMaterials(ctx, &dto.MaterialFilters{})
	if err != nil {
		t.Fatal(err)
	}
	if total != 251 || len(items) != dto.DefaultPageSize {
		t.Fatalf("default page: total=%d len=%d", total, len(items))
	}

	items, _, _ = uc.ListMaterials(ctx, &dto.MaterialFilters{PageSize: 1000})
	if len(items) != dto.MaxPageSize {
		t.Fatalf("page size cap: %d", len(items))
	}

	items, total, _ = uc.ListMaterials(ctx, &dto.MaterialFilters{Query: "galvanised"})
	if total != 1 || items[0].ID != low.ID {
		t.Fatalf("name search: %d %v", total, items)
	}

	items, total, _ = uc.ListMaterials(ctx, &dto.MaterialFilters{Query: "sku-24"})
	if total != 10 {
		t.Fatalf("sku search total = %d", total)
	}

	items, total, _ = uc.ListMaterials(ctx, &dto.MaterialFilters{LowOnly: true})
	if total != 1 || items[0].SKU != "PIPE-1" {
		t.Fatalf("lowOnly: %d", total)
	}

	items, _, _ = uc.ListMaterials(ctx, &dto.MaterialFilters{Page: 6, PageSize: 50})
	if len(items) != 1 {
		t.Fatalf("last page len = %d", len(items))
	}

	items, total, err = uc.ListMaterials(ctx, &dto.MaterialFilters{Page: math.MaxInt, PageSize: 50})
	if err != nil || total != 251 || len(items) != 0 {
		t.Fatalf("page past the end: total=%d len=%d err=%v", total, len(items), err)
	}
}

func TestListMaterialsSearchIndex(t *testing.T) {
	es := newFakeSearcher()
	uc, _ := newUseCase(t, es)
	ctx := context.Background()

	if _, err := uc.CreateMaterial(ctx, &dto.CreateMaterialInput{SKU: "FLAT-1", Name: "Flat bar", Unit: "m"}); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for es.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if es.count() != 1 {
		t.Fatalf("material not indexed")
	}

	items, total, err := uc.ListMaterials(ctx, &dto.MaterialFilters{Query: "flat"})
	if err != nil || total != 1 || items[0].SKU != "FLAT-1" {
		t.Fatalf("index search: %v %d %v", err, total, items)
	}

	es.searchErr = errors.New("cluster red")
	items, total, err = uc.ListMaterials(ctx, &dto.MaterialFilters{Query: "flat"})
	if err != nil || total != 1 || items[0].SKU != "FLAT-1" {
		t.Fatalf("fallback search: %v %d", err, total)
	}
	if es.searches != 2 {
		t.Fatalf("searches = %d", es.searches)
	}
}
