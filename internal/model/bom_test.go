package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestOrderBomLineForFirstMatch(t *testing.T) {
	b := &OrderBom{Lines: []BomLine{
		{LineID: "l1", MaterialID: "m1"},
		{LineID: "l2", MaterialID: "m2"},
		{LineID: "l3", MaterialID: "m2"},
	}}
	if got := b.LineFor("m2"); got != 1 {
		t.Fatalf("LineFor(m2) = %d", got)
	}
	if got := b.LineFor("m9"); got != -1 {
		t.Fatalf("LineFor(m9) = %d", got)
	}
}

func TestOrderBomCloneIsDeep(t *testing.T) {
	b := &OrderBom{Lines: []BomLine{{
		MaterialID:        "m1",
		ConsumedQty:       decimal.NewFromInt(2),
		ConsumptionTxnIDs: []string{"t1"},
	}}}
	c := b.Clone()
	c.Lines[0].ConsumptionTxnIDs[0] = "changed"
	c.Lines = append(c.Lines, BomLine{MaterialID: "m2"})
	if b.Lines[0].ConsumptionTxnIDs[0] != "t1" || len(b.Lines) != 1 {
		t.Fatalf("clone shares state with original: %+v", b.Lines)
	}
}

func TestPresetModeMapping(t *testing.T) {
	cases := map[Preset]ConsumptionMode{
		PresetLightweight: ModeNoBom,
		PresetAssisted:    ModeBomAssisted,
		PresetStrict:      ModeBomStrict,
	}
	for p, want := range cases {
		if got := p.Mode(); got != want {
			t.Errorf("%s.Mode() = %s, want %s", p, got, want)
		}
	}
}

func TestAttributesNormalize(t *testing.T) {
	a := Attributes{
		"grade":     "304",
		"thickness": 3,
		" ":         "blank key",
		"nested":    map[string]any{"x": 1},
		"finish":    nil,
	}.Normalize()
	if len(a) != 3 {
		t.Fatalf("unexpected attributes: %v", a)
	}
	if a["thickness"] != float64(3) {
		t.Fatalf("int not widened: %#v", a["thickness"])
	}
	if _, ok := a["nested"]; ok {
		t.Fatalf("non-scalar kept")
	}
}
