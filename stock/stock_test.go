package stock

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/id"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/types"
)

var now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func money(s string) types.Money { return types.MustParseMoney(s) }

func date(d int) *time.Time {
	t := time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func newLot(remaining, unitCost string, expiry *time.Time, entryDay int) *ingredient.Lot {
	return &ingredient.Lot{
		ID:        id.NewLotID(),
		EntryDate: time.Date(2026, 2, entryDay, 0, 0, 0, 0, time.UTC),
		Expiry:    expiry,
		Initial:   dec(remaining),
		Remaining: dec(remaining),
		UnitCost:  money(unitCost),
		Origin:    ingredient.OriginPurchase,
	}
}

// flour is the two-lot fixture: A 10000 g at 1.0, B 25000 g at 0.94
// expiring later.
func flour() (*ingredient.Ingredient, *ingredient.Lot, *ingredient.Lot) {
	a := newLot("10000", "1", date(10), 1)
	b := newLot("25000", "0.94", date(20), 2)
	ing := &ingredient.Ingredient{
		ID:       id.NewIngredientID(),
		Name:     "Flour",
		BaseUnit: types.BaseGram,
		Lots:     []*ingredient.Lot{b, a},
	}
	Refresh(ing)

	return ing, a, b
}

func TestOrder(t *testing.T) {
	early := newLot("1", "1", date(5), 9)
	late := newLot("1", "1", date(9), 1)
	none := newLot("1", "1", nil, 1)
	sameExpiryOlder := newLot("1", "1", date(5), 3)
	empty := newLot("0", "1", date(1), 1)

	got := Order([]*ingredient.Lot{none, late, early, empty, sameExpiryOlder})
	want := []*ingredient.Lot{sameExpiryOlder, early, late, none}

	if len(got) != len(want) {
		t.Fatalf("got %d lots, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got lot %s, want %s", i, got[i].ID, want[i].ID)
		}
	}
}

func TestConsumeFlourExample(t *testing.T) {
	ing, a, b := flour()

	c, err := Consume(ing, dec("12000"), false, now)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}

	if !c.Cost.Equal(money("11880")) {
		t.Errorf("cost: got %s, want 11880", c.Cost)
	}
	if !a.Remaining.IsZero() || a.DepletedAt == nil {
		t.Errorf("lot A: remaining %s, depleted %v", a.Remaining, a.DepletedAt)
	}
	if !b.Remaining.Equal(dec("23000")) {
		t.Errorf("lot B: got %s, want 23000", b.Remaining)
	}

	if len(c.Breakdown) != 2 {
		t.Fatalf("breakdown: got %d entries, want 2", len(c.Breakdown))
	}
	if c.Breakdown[0].LotID != a.ID || !c.Breakdown[0].Quantity.Equal(dec("10000")) {
		t.Errorf("first draw: %+v", c.Breakdown[0])
	}
	if c.Breakdown[1].LotID != b.ID || !c.Breakdown[1].Quantity.Equal(dec("2000")) {
		t.Errorf("second draw: %+v", c.Breakdown[1])
	}
	if !ing.UnitCost.Equal(money("0.94")) {
		t.Errorf("cached cost: got %s, want 0.94", ing.UnitCost)
	}
}

func TestConsumeWithinFirstLotTouchesOnlyIt(t *testing.T) {
	quantities := []string{"1", "2500", "9999.5", "10000"}

	for _, q := range quantities {
		t.Run(q, func(t *testing.T) {
			ing, a, b := flour()
			c, err := Consume(ing, dec(q), false, now)
			if err != nil {
				t.Fatalf("Consume: %v", err)
			}
			if len(c.Breakdown) != 1 || c.Breakdown[0].LotID != a.ID {
				t.Errorf("expected a single draw from lot A, got %+v", c.Breakdown)
			}
			if !b.Remaining.Equal(dec("25000")) {
				t.Errorf("lot B touched: %s", b.Remaining)
			}
		})
	}
}

func TestConsumeInsufficientLeavesLotsUntouched(t *testing.T) {
	ing := &ingredient.Ingredient{
		Name: "Sugar",
		Lots: []*ingredient.Lot{newLot("500", "2", nil, 1)},
	}
	before := ing.Clone()

	_, err := Consume(ing, dec("800"), false, now)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("got %v, want ErrInsufficientStock", err)
	}
	if !ing.Remaining().Equal(before.Remaining()) {
		t.Errorf("remaining changed: %s", ing.Remaining())
	}
	if ing.Lots[0].DepletedAt != nil {
		t.Error("lot marked depleted by a failed consume")
	}
}

func TestConsumeRejectsNonPositive(t *testing.T) {
	ing, _, _ := flour()

	for _, q := range []string{"0", "-5"} {
		if _, err := Consume(ing, dec(q), true, now); !errors.Is(err, types.ErrInvalidQuantity) {
			t.Errorf("qty %s: got %v, want ErrInvalidQuantity", q, err)
		}
	}
}

func TestConsumeIntoNegativeBalance(t *testing.T) {
	ing := &ingredient.Ingredient{
		Name: "Butter",
		Lots: []*ingredient.Lot{newLot("500", "4", nil, 1)},
	}
	Refresh(ing)

	c, err := Consume(ing, dec("800"), true, now)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}

	if !ing.NegativeBalance.Equal(dec("300")) {
		t.Errorf("negative balance: got %s, want 300", ing.NegativeBalance)
	}
	if !ing.Remaining().Equal(dec("-300")) {
		t.Errorf("remaining: got %s, want -300", ing.Remaining())
	}
	if !c.Cost.Equal(money("3200")) {
		t.Errorf("cost: got %s, want 3200", c.Cost)
	}

	last := c.Breakdown[len(c.Breakdown)-1]
	if !last.FromPool() || !last.Quantity.Equal(dec("300")) || !last.UnitCost.Equal(money("4")) {
		t.Errorf("pool draw: %+v", last)
	}
}

func TestRestoreIsExact(t *testing.T) {
	ing, _, _ := flour()
	remaining, value := ing.Remaining(), ing.TotalValue()

	c, err := Consume(ing, dec("12000"), false, now)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if _, err := Restore(ing, c.Breakdown, now); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if !ing.Remaining().Equal(remaining) {
		t.Errorf("remaining: got %s, want %s", ing.Remaining(), remaining)
	}
	if !ing.TotalValue().Equal(value) {
		t.Errorf("value: got %s, want %s", ing.TotalValue(), value)
	}
	for _, l := range ing.Lots {
		if l.DepletedAt != nil {
			t.Errorf("lot %s still marked depleted", l.ID)
		}
	}
}

func TestRestoreRecreatesArchivedLot(t *testing.T) {
	ing, a, _ := flour()

	c, err := Consume(ing, dec("12000"), false, now)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}

	archived := Archive(ing, now.Add(time.Hour))
	if len(archived) != 1 || archived[0].ID != a.ID {
		t.Fatalf("expected lot A archived, got %v", archived)
	}

	if _, err := Restore(ing, c.Breakdown, now); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	back := ing.Lot(a.ID)
	if back == nil {
		t.Fatal("lot A not recreated")
	}
	if back.Origin != ingredient.OriginRestoration {
		t.Errorf("origin: got %s, want restoration", back.Origin)
	}
	if !back.UnitCost.Equal(money("1")) || !back.Remaining.Equal(dec("10000")) {
		t.Errorf("recreated lot: cost %s remaining %s", back.UnitCost, back.Remaining)
	}
	if back.Expiry == nil || !back.Expiry.Equal(*date(10)) {
		t.Errorf("expiry not carried over: %v", back.Expiry)
	}
	if !ing.TotalValue().Equal(money("33500")) {
		t.Errorf("value: got %s, want 33500", ing.TotalValue())
	}
}

func TestRestoreUnrecreatableLot(t *testing.T) {
	ing, _, _ := flour()
	before := ing.Clone()

	b := Breakdown{{LotID: id.NewLotID(), Quantity: dec("10"), UnitCost: money("1")}}
	if _, err := Restore(ing, b, now); !errors.Is(err, ErrLotNotFound) {
		t.Fatalf("got %v, want ErrLotNotFound", err)
	}
	if len(ing.Lots) != len(before.Lots) {
		t.Error("lots changed after failed restore")
	}
}

func TestReceiveSettlesNegativeBalance(t *testing.T) {
	ing := &ingredient.Ingredient{Name: "Eggs", NegativeBalance: dec("4")}

	r, err := Receive(ing, Receipt{
		Quantity:  dec("30"),
		Price:     money("2700"),
		Fees:      money("300"),
		EntryDate: now,
	})
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}

	if !r.Settled.Equal(dec("4")) {
		t.Errorf("settled: got %s, want 4", r.Settled)
	}
	if !ing.NegativeBalance.IsZero() {
		t.Errorf("negative balance: got %s, want 0", ing.NegativeBalance)
	}
	if !r.Lot.Initial.Equal(dec("30")) || !r.Lot.Remaining.Equal(dec("26")) {
		t.Errorf("lot: initial %s remaining %s", r.Lot.Initial, r.Lot.Remaining)
	}
	if !r.Lot.UnitCost.Equal(money("100")) {
		t.Errorf("landed unit cost: got %s, want 100", r.Lot.UnitCost)
	}
	if !ing.Remaining().Equal(dec("26")) {
		t.Errorf("remaining: got %s, want 26", ing.Remaining())
	}
}

func TestReceiveValidation(t *testing.T) {
	tests := []struct {
		name string
		r    Receipt
	}{
		{"zero quantity", Receipt{Quantity: dec("0"), Price: money("10")}},
		{"negative quantity", Receipt{Quantity: dec("-1"), Price: money("10")}},
		{"negative price", Receipt{Quantity: dec("1"), Price: money("-10")}},
		{"negative fees", Receipt{Quantity: dec("1"), Fees: money("-1")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ing := &ingredient.Ingredient{}
			if _, err := Receive(ing, tt.r); !errors.Is(err, types.ErrInvalidQuantity) {
				t.Errorf("got %v, want ErrInvalidQuantity", err)
			}
			if len(ing.Lots) != 0 {
				t.Error("lot created by a rejected receipt")
			}
		})
	}
}

func TestRestorePoolAfterSettlement(t *testing.T) {
	ing := &ingredient.Ingredient{Name: "Oil", Lots: []*ingredient.Lot{newLot("100", "3", nil, 1)}}
	Refresh(ing)

	c, err := Consume(ing, dec("150"), true, now)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if _, err := Receive(ing, Receipt{Quantity: dec("200"), Price: money("800"), EntryDate: now}); err != nil {
		t.Fatalf("Receive: %v", err)
	}

	applied, err := Restore(ing, c.Breakdown, now)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}

	// 100 back into the first lot plus 50 as a restoration lot.
	if !ing.Remaining().Equal(dec("300")) {
		t.Errorf("remaining: got %s, want 300", ing.Remaining())
	}
	if !applied.Quantity().Equal(dec("150")) {
		t.Errorf("applied: got %s, want 150", applied.Quantity())
	}

	var restored *ingredient.Lot
	for _, l := range ing.Lots {
		if l.Origin == ingredient.OriginRestoration {
			restored = l
		}
	}
	if restored == nil || !restored.Remaining.Equal(dec("50")) || !restored.UnitCost.Equal(money("3")) {
		t.Errorf("restoration lot: %+v", restored)
	}
}

func TestAdjustUsesWeightedAverageCost(t *testing.T) {
	ing, _, _ := flour()

	l, err := Adjust(ing, dec("700"), now)
	if err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	if l.Origin != ingredient.OriginAdjustment {
		t.Errorf("origin: got %s", l.Origin)
	}
	if !l.UnitCost.Round(6).Equal(money("0.957143")) {
		t.Errorf("unit cost: got %s", l.UnitCost)
	}
	if !ing.Available().Equal(dec("35700")) {
		t.Errorf("available: got %s", ing.Available())
	}
}

func TestArchiveKeepsRecentAndNonEmptyLots(t *testing.T) {
	old := newLot("0", "1", nil, 1)
	oldAt := now.Add(-48 * time.Hour)
	old.DepletedAt = &oldAt

	recent := newLot("0", "1", nil, 2)
	recentAt := now.Add(-time.Hour)
	recent.DepletedAt = &recentAt

	live := newLot("5", "1", nil, 3)

	ing := &ingredient.Ingredient{Lots: []*ingredient.Lot{old, recent, live}}
	got := Archive(ing, now.Add(-24*time.Hour))

	if len(got) != 1 || got[0] != old {
		t.Fatalf("archived: %v", got)
	}
	if len(ing.Lots) != 2 {
		t.Errorf("kept %d lots, want 2", len(ing.Lots))
	}
}
