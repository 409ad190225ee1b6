package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/production"
	"github.com/xraph/larder/stock"
	"github.com/xraph/larder/types"
)

// DefaultTimeout bounds a single hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery so emitting an event only visits plugins
// that implement its hook.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit               []OnInit
	onShutdown           []OnShutdown
	onIngredientAdded    []OnIngredientAdded
	onLotReceived        []OnLotReceived
	onStockConsumed      []OnStockConsumed
	onStockReconciled    []OnStockReconciled
	onLowStock           []OnLowStock
	onLotsArchived       []OnLotsArchived
	onBatchProduced      []OnBatchProduced
	onBatchRolledBack    []OnBatchRolledBack
	onBatchEdited        []OnBatchEdited
	onFinishedGoodsDrawn []OnFinishedGoodsDrawn
	onSnapshotSaved      []OnSnapshotSaved
	onSnapshotLoaded     []OnSnapshotLoaded
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-call hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnIngredientAdded); ok {
		r.onIngredientAdded = append(r.onIngredientAdded, v)
	}
	if v, ok := p.(OnLotReceived); ok {
		r.onLotReceived = append(r.onLotReceived, v)
	}
	if v, ok := p.(OnStockConsumed); ok {
		r.onStockConsumed = append(r.onStockConsumed, v)
	}
	if v, ok := p.(OnStockReconciled); ok {
		r.onStockReconciled = append(r.onStockReconciled, v)
	}
	if v, ok := p.(OnLowStock); ok {
		r.onLowStock = append(r.onLowStock, v)
	}
	if v, ok := p.(OnLotsArchived); ok {
		r.onLotsArchived = append(r.onLotsArchived, v)
	}
	if v, ok := p.(OnBatchProduced); ok {
		r.onBatchProduced = append(r.onBatchProduced, v)
	}
	if v, ok := p.(OnBatchRolledBack); ok {
		r.onBatchRolledBack = append(r.onBatchRolledBack, v)
	}
	if v, ok := p.(OnBatchEdited); ok {
		r.onBatchEdited = append(r.onBatchEdited, v)
	}
	if v, ok := p.(OnFinishedGoodsDrawn); ok {
		r.onFinishedGoodsDrawn = append(r.onFinishedGoodsDrawn, v)
	}
	if v, ok := p.(OnSnapshotSaved); ok {
		r.onSnapshotSaved = append(r.onSnapshotSaved, v)
	}
	if v, ok := p.(OnSnapshotLoaded); ok {
		r.onSnapshotLoaded = append(r.onSnapshotLoaded, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnIngredientAdded)(nil)).Elem(), "OnIngredientAdded")
	checkInterface(reflect.TypeOf((*OnLotReceived)(nil)).Elem(), "OnLotReceived")
	checkInterface(reflect.TypeOf((*OnStockConsumed)(nil)).Elem(), "OnStockConsumed")
	checkInterface(reflect.TypeOf((*OnStockReconciled)(nil)).Elem(), "OnStockReconciled")
	checkInterface(reflect.TypeOf((*OnLowStock)(nil)).Elem(), "OnLowStock")
	checkInterface(reflect.TypeOf((*OnLotsArchived)(nil)).Elem(), "OnLotsArchived")
	checkInterface(reflect.TypeOf((*OnBatchProduced)(nil)).Elem(), "OnBatchProduced")
	checkInterface(reflect.TypeOf((*OnBatchRolledBack)(nil)).Elem(), "OnBatchRolledBack")
	checkInterface(reflect.TypeOf((*OnBatchEdited)(nil)).Elem(), "OnBatchEdited")
	checkInterface(reflect.TypeOf((*OnFinishedGoodsDrawn)(nil)).Elem(), "OnFinishedGoodsDrawn")
	checkInterface(reflect.TypeOf((*OnSnapshotSaved)(nil)).Elem(), "OnSnapshotSaved")
	checkInterface(reflect.TypeOf((*OnSnapshotLoaded)(nil)).Elem(), "OnSnapshotLoaded")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// emit runs call for every cached plugin of one hook, logging failures.
func emit[P Plugin](ctx context.Context, r *Registry, hook string, list func(*Registry) []P, call func(P) error) {
	r.mu.RLock()
	plugins := list(r)
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return call(p)
		}); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, l interface{}) {
	emit(ctx, r, "OnInit", func(r *Registry) []OnInit { return r.onInit },
		func(p OnInit) error { return p.OnInit(ctx, l) })
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	emit(ctx, r, "OnShutdown", func(r *Registry) []OnShutdown { return r.onShutdown },
		func(p OnShutdown) error { return p.OnShutdown(ctx) })
}

// EmitIngredientAdded calls OnIngredientAdded for all plugins that implement it.
func (r *Registry) EmitIngredientAdded(ctx context.Context, ing *ingredient.Ingredient) {
	emit(ctx, r, "OnIngredientAdded", func(r *Registry) []OnIngredientAdded { return r.onIngredientAdded },
		func(p OnIngredientAdded) error { return p.OnIngredientAdded(ctx, ing) })
}

// EmitLotReceived calls OnLotReceived for all plugins that implement it.
func (r *Registry) EmitLotReceived(ctx context.Context, ing *ingredient.Ingredient, lot *ingredient.Lot) {
	emit(ctx, r, "OnLotReceived", func(r *Registry) []OnLotReceived { return r.onLotReceived },
		func(p OnLotReceived) error { return p.OnLotReceived(ctx, ing, lot) })
}

// EmitStockConsumed calls OnStockConsumed for all plugins that implement it.
func (r *Registry) EmitStockConsumed(ctx context.Context, ing *ingredient.Ingredient, kind movement.Kind, c stock.Consumption) {
	emit(ctx, r, "OnStockConsumed", func(r *Registry) []OnStockConsumed { return r.onStockConsumed },
		func(p OnStockConsumed) error { return p.OnStockConsumed(ctx, ing, kind, c) })
}

// EmitStockReconciled calls OnStockReconciled for all plugins that implement it.
func (r *Registry) EmitStockReconciled(ctx context.Context, ing *ingredient.Ingredient, delta decimal.Decimal, cost types.Money) {
	emit(ctx, r, "OnStockReconciled", func(r *Registry) []OnStockReconciled { return r.onStockReconciled },
		func(p OnStockReconciled) error { return p.OnStockReconciled(ctx, ing, delta, cost) })
}

// EmitLowStock calls OnLowStock for all plugins that implement it.
func (r *Registry) EmitLowStock(ctx context.Context, h ingredient.Health) {
	emit(ctx, r, "OnLowStock", func(r *Registry) []OnLowStock { return r.onLowStock },
		func(p OnLowStock) error { return p.OnLowStock(ctx, h) })
}

// EmitLotsArchived calls OnLotsArchived for all plugins that implement it.
func (r *Registry) EmitLotsArchived(ctx context.Context, ing *ingredient.Ingredient, lots []*ingredient.Lot) {
	emit(ctx, r, "OnLotsArchived", func(r *Registry) []OnLotsArchived { return r.onLotsArchived },
		func(p OnLotsArchived) error { return p.OnLotsArchived(ctx, ing, lots) })
}

// EmitBatchProduced calls OnBatchProduced for all plugins that implement it.
func (r *Registry) EmitBatchProduced(ctx context.Context, b *production.Batch) {
	emit(ctx, r, "OnBatchProduced", func(r *Registry) []OnBatchProduced { return r.onBatchProduced },
		func(p OnBatchProduced) error { return p.OnBatchProduced(ctx, b) })
}

// EmitBatchRolledBack calls OnBatchRolledBack for all plugins that implement it.
func (r *Registry) EmitBatchRolledBack(ctx context.Context, b *production.Batch) {
	emit(ctx, r, "OnBatchRolledBack", func(r *Registry) []OnBatchRolledBack { return r.onBatchRolledBack },
		func(p OnBatchRolledBack) error { return p.OnBatchRolledBack(ctx, b) })
}

// EmitBatchEdited calls OnBatchEdited for all plugins that implement it.
func (r *Registry) EmitBatchEdited(ctx context.Context, previous, updated *production.Batch) {
	emit(ctx, r, "OnBatchEdited", func(r *Registry) []OnBatchEdited { return r.onBatchEdited },
		func(p OnBatchEdited) error { return p.OnBatchEdited(ctx, previous, updated) })
}

// EmitFinishedGoodsDrawn calls OnFinishedGoodsDrawn for all plugins that implement it.
func (r *Registry) EmitFinishedGoodsDrawn(ctx context.Context, b *production.Batch, units int64, cogs types.Money) {
	emit(ctx, r, "OnFinishedGoodsDrawn", func(r *Registry) []OnFinishedGoodsDrawn { return r.onFinishedGoodsDrawn },
		func(p OnFinishedGoodsDrawn) error { return p.OnFinishedGoodsDrawn(ctx, b, units, cogs) })
}

// EmitSnapshotSaved calls OnSnapshotSaved for all plugins that implement it.
func (r *Registry) EmitSnapshotSaved(ctx context.Context, profile string, elapsed time.Duration) {
	emit(ctx, r, "OnSnapshotSaved", func(r *Registry) []OnSnapshotSaved { return r.onSnapshotSaved },
		func(p OnSnapshotSaved) error { return p.OnSnapshotSaved(ctx, profile, elapsed) })
}

// EmitSnapshotLoaded calls OnSnapshotLoaded for all plugins that implement it.
func (r *Registry) EmitSnapshotLoaded(ctx context.Context, profile string, elapsed time.Duration) {
	emit(ctx, r, "OnSnapshotLoaded", func(r *Registry) []OnSnapshotLoaded { return r.onSnapshotLoaded },
		func(p OnSnapshotLoaded) error { return p.OnSnapshotLoaded(ctx, profile, elapsed) })
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins must never hold up a ledger operation.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
