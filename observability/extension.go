// Package observability provides a metrics extension for Larder that records
// lifecycle event counts through a MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/plugin"
	"github.com/xraph/larder/production"
	"github.com/xraph/larder/stock"
	"github.com/xraph/larder/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin               = (*MetricsExtension)(nil)
	_ plugin.OnInit               = (*MetricsExtension)(nil)
	_ plugin.OnIngredientAdded    = (*MetricsExtension)(nil)
	_ plugin.OnLotReceived        = (*MetricsExtension)(nil)
	_ plugin.OnStockConsumed      = (*MetricsExtension)(nil)
	_ plugin.OnStockReconciled    = (*MetricsExtension)(nil)
	_ plugin.OnLowStock           = (*MetricsExtension)(nil)
	_ plugin.OnLotsArchived       = (*MetricsExtension)(nil)
	_ plugin.OnBatchProduced      = (*MetricsExtension)(nil)
	_ plugin.OnBatchRolledBack    = (*MetricsExtension)(nil)
	_ plugin.OnBatchEdited        = (*MetricsExtension)(nil)
	_ plugin.OnFinishedGoodsDrawn = (*MetricsExtension)(nil)
	_ plugin.OnSnapshotSaved      = (*MetricsExtension)(nil)
	_ plugin.OnSnapshotLoaded     = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records ledger lifecycle metrics.
// Register it as a Larder plugin to track stock and production activity.
type MetricsExtension struct {
	factory MetricFactory

	// Catalog metrics
	IngredientAdded Counter

	// Stock metrics
	LotReceived      Counter
	ReceivedQuantity Histogram
	StockConsumed    Counter
	StockLost        Counter
	ConsumptionCost  Histogram
	LotsDrawn        Histogram
	Reconciled       Counter
	ReconcileDrift   Counter
	ReconcileImpact  Histogram
	LowStock         Counter
	LotsArchived     Counter

	// Production metrics
	BatchProduced      Counter
	BatchRolledBack    Counter
	BatchEdited        Counter
	BatchCost          Histogram
	FinishedUnitsDrawn Counter
	FinishedCOGS       Histogram

	// Persistence metrics
	SnapshotSaved       Counter
	SnapshotSaveLatency Histogram
	SnapshotLoaded      Counter
	SnapshotLoadLatency Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions, or NewPrometheusFactory standalone.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		IngredientAdded: factory.Counter("larder.ingredient.added"),

		LotReceived:      factory.Counter("larder.lot.received"),
		ReceivedQuantity: factory.Histogram("larder.lot.received.quantity"),
		StockConsumed:    factory.Counter("larder.stock.consumed"),
		StockLost:        factory.Counter("larder.stock.lost"),
		ConsumptionCost:  factory.Histogram("larder.stock.consumption.cost"),
		LotsDrawn:        factory.Histogram("larder.stock.consumption.lots"),
		Reconciled:       factory.Counter("larder.stock.reconciled"),
		ReconcileDrift:   factory.Counter("larder.stock.reconcile.drift"),
		ReconcileImpact:  factory.Histogram("larder.stock.reconcile.cost_impact"),
		LowStock:         factory.Counter("larder.stock.low"),
		LotsArchived:     factory.Counter("larder.lots.archived"),

		BatchProduced:      factory.Counter("larder.batch.produced"),
		BatchRolledBack:    factory.Counter("larder.batch.rolled_back"),
		BatchEdited:        factory.Counter("larder.batch.edited"),
		BatchCost:          factory.Histogram("larder.batch.cost_total"),
		FinishedUnitsDrawn: factory.Counter("larder.finished.units_drawn"),
		FinishedCOGS:       factory.Histogram("larder.finished.cogs"),

		SnapshotSaved:       factory.Counter("larder.snapshot.saved"),
		SnapshotSaveLatency: factory.Histogram("larder.snapshot.save.latency_ms"),
		SnapshotLoaded:      factory.Counter("larder.snapshot.loaded"),
		SnapshotLoadLatency: factory.Histogram("larder.snapshot.load.latency_ms"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	return nil
}

// ──────────────────────────────────────────────────
// Stock hooks
// ──────────────────────────────────────────────────

// OnIngredientAdded implements plugin.OnIngredientAdded.
func (m *MetricsExtension) OnIngredientAdded(_ context.Context, _ *ingredient.Ingredient) error {
	m.IngredientAdded.Inc()
	return nil
}

// OnLotReceived implements plugin.OnLotReceived.
func (m *MetricsExtension) OnLotReceived(_ context.Context, _ *ingredient.Ingredient, lot *ingredient.Lot) error {
	m.LotReceived.Inc()
	m.ReceivedQuantity.Observe(lot.Initial.InexactFloat64())
	return nil
}

// OnStockConsumed implements plugin.OnStockConsumed.
func (m *MetricsExtension) OnStockConsumed(_ context.Context, _ *ingredient.Ingredient, kind movement.Kind, c stock.Consumption) error {
	if kind == movement.KindLoss {
		m.StockLost.Inc()
	} else {
		m.StockConsumed.Inc()
	}
	m.ConsumptionCost.Observe(c.Cost.Float())
	m.LotsDrawn.Observe(float64(len(c.Breakdown)))
	return nil
}

// OnStockReconciled implements plugin.OnStockReconciled.
func (m *MetricsExtension) OnStockReconciled(_ context.Context, _ *ingredient.Ingredient, delta decimal.Decimal, cost types.Money) error {
	m.Reconciled.Inc()
	if !delta.IsZero() {
		m.ReconcileDrift.Inc()
		m.ReconcileImpact.Observe(cost.Float())
	}
	return nil
}

// OnLowStock implements plugin.OnLowStock.
func (m *MetricsExtension) OnLowStock(_ context.Context, _ ingredient.Health) error {
	m.LowStock.Inc()
	return nil
}

// OnLotsArchived implements plugin.OnLotsArchived.
func (m *MetricsExtension) OnLotsArchived(_ context.Context, _ *ingredient.Ingredient, lots []*ingredient.Lot) error {
	m.LotsArchived.Add(float64(len(lots)))
	return nil
}

// ──────────────────────────────────────────────────
// Production hooks
// ──────────────────────────────────────────────────

// OnBatchProduced implements plugin.OnBatchProduced.
func (m *MetricsExtension) OnBatchProduced(_ context.Context, b *production.Batch) error {
	m.BatchProduced.Inc()
	m.BatchCost.Observe(b.CostTotal.Float())
	return nil
}

// OnBatchRolledBack implements plugin.OnBatchRolledBack.
func (m *MetricsExtension) OnBatchRolledBack(_ context.Context, _ *production.Batch) error {
	m.BatchRolledBack.Inc()
	return nil
}

// OnBatchEdited implements plugin.OnBatchEdited.
func (m *MetricsExtension) OnBatchEdited(_ context.Context, _, _ *production.Batch) error {
	m.BatchEdited.Inc()
	return nil
}

// OnFinishedGoodsDrawn implements plugin.OnFinishedGoodsDrawn.
func (m *MetricsExtension) OnFinishedGoodsDrawn(_ context.Context, _ *production.Batch, units int64, cogs types.Money) error {
	m.FinishedUnitsDrawn.Add(float64(units))
	m.FinishedCOGS.Observe(cogs.Float())
	return nil
}

// ──────────────────────────────────────────────────
// Persistence hooks
// ──────────────────────────────────────────────────

// OnSnapshotSaved implements plugin.OnSnapshotSaved.
func (m *MetricsExtension) OnSnapshotSaved(_ context.Context, _ string, elapsed time.Duration) error {
	m.SnapshotSaved.Inc()
	m.SnapshotSaveLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}

// OnSnapshotLoaded implements plugin.OnSnapshotLoaded.
func (m *MetricsExtension) OnSnapshotLoaded(_ context.Context, _ string, elapsed time.Duration) error {
	m.SnapshotLoaded.Inc()
	m.SnapshotLoadLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}
