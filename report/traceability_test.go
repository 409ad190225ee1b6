package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/id"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/types"
)

func TestBuild(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	flour, sugar, gone := id.NewIngredientID(), id.NewIngredientID(), id.NewIngredientID()
	batch := id.NewBatchID()

	qty := func(v int64) decimal.Decimal { return decimal.NewFromInt(v) }
	cost := types.MoneyFromInt

	j := movement.NewJournal(
		movement.New(t0, flour, id.NewLotID(), qty(1000), cost(1000), "", movement.Receipt{}),
		movement.New(t0.Add(time.Hour), flour, id.NewLotID(), qty(-300), cost(-300), "", movement.Consume{BatchID: batch}),
		movement.New(t0.Add(2*time.Hour), flour, id.NewLotID(), qty(-200), cost(-200), "", movement.Consume{BatchID: batch}),
		movement.New(t0.Add(3*time.Hour), sugar, id.NewLotID(), qty(-5), cost(-10), "", movement.Loss{}),
		movement.New(t0.Add(4*time.Hour), gone, id.Nil, qty(7), cost(0), "", movement.Reconcile{}),
		movement.New(t0.Add(48*time.Hour), flour, id.NewLotID(), qty(-1), cost(-1), "", movement.Loss{}),
	)

	names := map[id.IngredientID]string{flour: "Flour", sugar: "Sugar"}
	r := Build(j, t0, t0.Add(24*time.Hour), func(i id.IngredientID) (string, bool) {
		n, ok := names[i]
		return n, ok
	})

	if len(r.Ingredients) != 3 {
		t.Fatalf("got %d ingredients, want 3", len(r.Ingredients))
	}

	var fl IngredientTrace
	for _, tr := range r.Ingredients {
		if tr.IngredientID == flour {
			fl = tr
		}
	}

	if len(fl.Movements) != 3 {
		t.Errorf("flour movements: got %d, want 3", len(fl.Movements))
	}
	if !fl.Net.Equal(qty(500)) {
		t.Errorf("flour net: got %s, want 500", fl.Net)
	}
	if len(fl.Batches) != 1 || fl.Batches[0] != batch {
		t.Errorf("flour batches: %v", fl.Batches)
	}
	if len(fl.Totals) != 2 || fl.Totals[0].Kind != movement.KindReceipt || fl.Totals[1].Count != 2 {
		t.Errorf("flour totals: %+v", fl.Totals)
	}

	for _, tr := range r.Ingredients {
		if tr.IngredientID == gone && tr.Name != gone.String() {
			t.Errorf("removed ingredient name: got %q", tr.Name)
		}
	}
}
