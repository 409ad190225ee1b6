// Package plugin provides the hook system for Larder. A plugin implements
// Name plus any of the hook interfaces below; the Registry discovers which
// ones at registration time.
package plugin

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/production"
	"github.com/xraph/larder/stock"
	"github.com/xraph/larder/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l interface{}) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Stock hooks
// ──────────────────────────────────────────────────

// OnIngredientAdded is called after an ingredient joins the catalog.
type OnIngredientAdded interface {
	Plugin
	OnIngredientAdded(ctx context.Context, ing *ingredient.Ingredient) error
}

// OnLotReceived is called after a lot is received.
type OnLotReceived interface {
	Plugin
	OnLotReceived(ctx context.Context, ing *ingredient.Ingredient, lot *ingredient.Lot) error
}

// OnStockConsumed is called after stock leaves the ledger through a
// consumption, a loss or a reconciliation shortage.
type OnStockConsumed interface {
	Plugin
	OnStockConsumed(ctx context.Context, ing *ingredient.Ingredient, kind movement.Kind, c stock.Consumption) error
}

// OnStockReconciled is called after a physical count is applied.
type OnStockReconciled interface {
	Plugin
	OnStockReconciled(ctx context.Context, ing *ingredient.Ingredient, delta decimal.Decimal, cost types.Money) error
}

// OnLowStock is called when a mutation leaves an ingredient at red status.
type OnLowStock interface {
	Plugin
	OnLowStock(ctx context.Context, h ingredient.Health) error
}

// OnLotsArchived is called after depleted lots are archived.
type OnLotsArchived interface {
	Plugin
	OnLotsArchived(ctx context.Context, ing *ingredient.Ingredient, lots []*ingredient.Lot) error
}

// ──────────────────────────────────────────────────
// Production hooks
// ──────────────────────────────────────────────────

// OnBatchProduced is called after a production batch is recorded.
type OnBatchProduced interface {
	Plugin
	OnBatchProduced(ctx context.Context, b *production.Batch) error
}

// OnBatchRolledBack is called after a batch is reversed.
type OnBatchRolledBack interface {
	Plugin
	OnBatchRolledBack(ctx context.Context, b *production.Batch) error
}

// OnBatchEdited is called after a batch is edited.
type OnBatchEdited interface {
	Plugin
	OnBatchEdited(ctx context.Context, previous, updated *production.Batch) error
}

// OnFinishedGoodsDrawn is called after finished units leave inventory.
type OnFinishedGoodsDrawn interface {
	Plugin
	OnFinishedGoodsDrawn(ctx context.Context, b *production.Batch, units int64, cogs types.Money) error
}

// ──────────────────────────────────────────────────
// Persistence hooks
// ──────────────────────────────────────────────────

// OnSnapshotSaved is called after a profile snapshot is persisted.
type OnSnapshotSaved interface {
	Plugin
	OnSnapshotSaved(ctx context.Context, profile string, elapsed time.Duration) error
}

// OnSnapshotLoaded is called after a profile snapshot is swapped in.
type OnSnapshotLoaded interface {
	Plugin
	OnSnapshotLoaded(ctx context.Context, profile string, elapsed time.Duration) error
}
