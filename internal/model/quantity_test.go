package model

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundQty(t *testing.T) {
	cases := []struct {
		in     string
		places int32
		want   string
	}{
		{"1.23456", 2, "1.23"},
		{"1.235", 2, "1.24"},
		{"1.005", 2, "1.01"},
		{"-1.005", 2, "-1"},
		{"-1.006", 2, "-1.01"},
		{"0.0001", 2, "0"},
		{"2.5", 0, "3"},
		{"-2.5", 0, "-2"},
		{"7", 3, "7"},
		{"0.123456789", 12, "0.12345679"},
	}
	for _, tc := range cases {
		got := RoundQty(decimal.RequireFromString(tc.in), tc.places)
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Errorf("RoundQty(%s, %d) = %s, want %s", tc.in, tc.places, got, tc.want)
		}
	}
}

func TestQtyFromFloat(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, ok := QtyFromFloat(f); ok {
			t.Errorf("QtyFromFloat(%v) accepted", f)
		}
	}
	q, ok := QtyFromFloat(1.23456)
	if !ok || q.String() != "1.23456" {
		t.Fatalf("QtyFromFloat(1.23456) = %s, %v", q, ok)
	}
}

func TestClampDecimals(t *testing.T) {
	if ClampDecimals(-1) != 0 || ClampDecimals(9) != 8 || ClampDecimals(4) != 4 {
		t.Fatal("clamp bounds")
	}
}

func TestQtyInRange(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"0", true},
		{"0.000", true},
		{"1.5", true},
		{"-2.125", true},
		{"9999999999999999.99999999", true},
		{"-9999999999999999", true},
		{"0.000000000000000001", true},
		{"10000000000000000", false},
		{"-10000000000000000", false},
		{"1e17", false},
		{"1e20000000", false},
		{"0e20000000", false},
		{"1e-19", false},
		{"1e-20000000", false},
	}
	for _, tc := range cases {
		if got := QtyInRange(decimal.RequireFromString(tc.in)); got != tc.want {
			t.Errorf("QtyInRange(%s) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestCostInRange(t *testing.T) {
	if !CostInRange(nil) {
		t.Fatal("nil cost is in range")
	}
	ok := decimal.RequireFromString("12.75")
	if !CostInRange(&ok) {
		t.Fatal("12.75 rejected")
	}
	big := decimal.New(1, 14)
	if CostInRange(&big) {
		t.Fatal("1e14 accepted")
	}
}
