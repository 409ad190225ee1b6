package production

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/id"
	"github.com/xraph/larder/stock"
	"github.com/xraph/larder/types"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCapacity(t *testing.T) {
	flour, eggs := id.NewIngredientID(), id.NewIngredientID()
	b := &Batch{
		ProducedPerRun: 20,
		Lines: []Line{
			{IngredientID: flour, PerRun: dec("1000")},
			{IngredientID: eggs, PerRun: dec("6")},
		},
	}

	tests := []struct {
		name  string
		stock map[id.IngredientID]string
		want  int64
	}{
		{"limited by eggs", map[id.IngredientID]string{flour: "5000", eggs: "13"}, 40},
		{"limited by flour", map[id.IngredientID]string{flour: "999", eggs: "60"}, 0},
		{"missing ingredient", map[id.IngredientID]string{flour: "5000"}, 0},
		{"plenty", map[id.IngredientID]string{flour: "3000", eggs: "600"}, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Capacity(b, func(i id.IngredientID) (decimal.Decimal, bool) {
				s, ok := tt.stock[i]
				if !ok {
					return decimal.Zero, false
				}
				return dec(s), true
			})
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCapacitySaturates(t *testing.T) {
	salt := id.NewIngredientID()

	tests := []struct {
		name  string
		batch *Batch
		avail string
	}{
		{
			name:  "units overflow",
			batch: &Batch{ProducedPerRun: 1 << 32, Lines: []Line{{IngredientID: salt, PerRun: dec("1")}}},
			avail: "4294967296",
		},
		{
			name:  "runs overflow",
			batch: &Batch{ProducedPerRun: 1, Lines: []Line{{IngredientID: salt, PerRun: dec("0.000001")}}},
			avail: "99999999999999999999",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Capacity(tt.batch, func(id.IngredientID) (decimal.Decimal, bool) {
				return dec(tt.avail), true
			})
			if got != math.MaxInt64 {
				t.Errorf("got %d, want %d", got, int64(math.MaxInt64))
			}
		})
	}
}

func TestDrawAndReturn(t *testing.T) {
	b := &Batch{Name: "Waffles", Produced: 10, Remaining: 10}

	if b.InUse() {
		t.Fatal("fresh batch reported in use")
	}
	if err := b.Draw(4); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if !b.InUse() || b.Remaining != 6 {
		t.Errorf("after draw: remaining %d, in use %v", b.Remaining, b.InUse())
	}
	if err := b.Draw(7); !errors.Is(err, stock.ErrInsufficientStock) {
		t.Errorf("overdraw: got %v", err)
	}
	if err := b.Return(9); err != nil {
		t.Fatalf("Return: %v", err)
	}
	if b.Remaining != 10 {
		t.Errorf("return must cap at produced, got %d", b.Remaining)
	}
	if err := b.Draw(0); !errors.Is(err, types.ErrInvalidQuantity) {
		t.Errorf("zero draw: got %v", err)
	}
}

func TestMargin(t *testing.T) {
	b := &Batch{SalePrice: types.MoneyFromInt(500), CostPerUnit: types.MustParseMoney("312.5")}
	if got := b.Margin(); !got.Equal(types.MustParseMoney("187.5")) {
		t.Errorf("got %s, want 187.5", got)
	}
}

func TestResolveMergesDuplicates(t *testing.T) {
	flour, milk := id.NewIngredientID(), id.NewIngredientID()
	bases := map[id.IngredientID]types.BaseUnit{flour: types.BaseGram, milk: types.BaseMilliliter}
	lookup := func(i id.IngredientID) (string, types.BaseUnit, error) {
		return "x", bases[i], nil
	}

	got, err := Resolve([]Requirement{
		{IngredientID: flour, Quantity: dec("1"), Unit: types.Kilogram},
		{IngredientID: milk, Quantity: dec("500"), Unit: types.Milliliter},
		{IngredientID: flour, Quantity: dec("250"), Unit: types.Gram},
	}, lookup)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("got %d lines, want 2", len(got))
	}
	if got[0].IngredientID != flour || !got[0].PerRun.Equal(dec("1250")) {
		t.Errorf("merged flour line: %+v", got[0])
	}
	if !got[0].Quantity.Equal(dec("1.25")) || got[0].Unit != types.Kilogram {
		t.Errorf("entered quantity not merged in first unit: %s %s", got[0].Quantity, got[0].Unit)
	}
}

func TestResolveErrors(t *testing.T) {
	flour := id.NewIngredientID()
	lookup := func(id.IngredientID) (string, types.BaseUnit, error) {
		return "Flour", types.BaseGram, nil
	}

	if _, err := Resolve(nil, lookup); !errors.Is(err, types.ErrInvalidQuantity) {
		t.Errorf("empty: got %v", err)
	}

	_, err := Resolve([]Requirement{{IngredientID: flour, Quantity: dec("1"), Unit: types.Liter}}, lookup)
	if !errors.Is(err, types.ErrUnitMismatch) {
		t.Errorf("unit mismatch: got %v", err)
	}
}
