package observability_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"github.com/xraph/larder"
	"github.com/xraph/larder/observability"
	"github.com/xraph/larder/production"
	"github.com/xraph/larder/stock"
	"github.com/xraph/larder/store/memory"
)

func TestMetricsFromLedger(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	factory := observability.NewPrometheusFactory(reg)
	m := observability.NewMetricsExtension(factory)

	l := larder.New(memory.New(), larder.WithPlugin(m))
	if err := l.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ing, err := l.AddIngredient(ctx, larder.IngredientInput{Name: "Sugar", DisplayUnit: larder.Kilogram})
	if err != nil {
		t.Fatalf("AddIngredient: %v", err)
	}
	for _, qty := range []int64{2000, 3000} {
		if _, err := l.ReceiveLot(ctx, ing.ID, stock.Receipt{Quantity: decimal.NewFromInt(qty), Price: larder.MoneyFromInt(qty)}); err != nil {
			t.Fatalf("ReceiveLot: %v", err)
		}
	}
	if _, err := l.DeclareLoss(ctx, ing.ID, decimal.NewFromInt(50), "wet"); err != nil {
		t.Fatalf("DeclareLoss: %v", err)
	}
	if _, err := l.Reconcile(ctx, ing.ID, decimal.NewFromInt(4900)); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	b, err := l.ProduceBatch(ctx, larder.ProduceInput{
		Name:         "Syrup",
		Requirements: []production.Requirement{{IngredientID: ing.ID, Quantity: decimal.NewFromInt(1), Unit: larder.Kilogram}},
		ProducedQty:  5,
		DeductStock:  true,
	})
	if err != nil {
		t.Fatalf("ProduceBatch: %v", err)
	}
	if _, err := l.DrawFinishedGoods(ctx, b.ID, 3); err != nil {
		t.Fatalf("DrawFinishedGoods: %v", err)
	}

	tests := []struct {
		name    string
		counter observability.Counter
		want    float64
	}{
		{"ingredient added", m.IngredientAdded, 1},
		{"lots received", m.LotReceived, 2},
		{"stock lost", m.StockLost, 1},
		{"stock consumed", m.StockConsumed, 1},
		{"reconciled", m.Reconciled, 1},
		{"drift", m.ReconcileDrift, 1},
		{"batches", m.BatchProduced, 1},
		{"finished units", m.FinishedUnitsDrawn, 3},
		{"snapshots loaded", m.SnapshotLoaded, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := tt.counter.(prometheus.Counter)
			if !ok {
				t.Fatalf("counter is %T", tt.counter)
			}
			if got := testutil.ToFloat64(c); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	// every mutation above autosaved
	saved, ok := m.SnapshotSaved.(prometheus.Counter)
	if !ok {
		t.Fatalf("SnapshotSaved is %T", m.SnapshotSaved)
	}
	if got := testutil.ToFloat64(saved); got != 7 {
		t.Errorf("snapshots saved = %v, want 7", got)
	}
}

func TestPrometheusFactoryReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := observability.NewPrometheusFactory(reg)

	a := f.Counter("larder.batch.produced")
	b := f.Counter("larder.batch.produced")
	if a != b {
		t.Error("same name gave two counters")
	}
	a.Inc()

	n, err := testutil.GatherAndCount(reg, "larder_batch_produced")
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	if n != 1 {
		t.Errorf("series = %d, want 1", n)
	}

	f.Histogram("larder.snapshot.save.latency_ms").Observe(3)
	if n, _ := testutil.GatherAndCount(reg, "larder_snapshot_save_latency_ms"); n != 1 {
		t.Errorf("histogram series = %d, want 1", n)
	}
}
