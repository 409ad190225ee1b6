// Package audithook bridges Larder lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/plugin"
	"github.com/xraph/larder/production"
	"github.com/xraph/larder/stock"
	"github.com/xraph/larder/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin               = (*Extension)(nil)
	_ plugin.OnIngredientAdded    = (*Extension)(nil)
	_ plugin.OnLotReceived        = (*Extension)(nil)
	_ plugin.OnStockConsumed      = (*Extension)(nil)
	_ plugin.OnStockReconciled    = (*Extension)(nil)
	_ plugin.OnLowStock           = (*Extension)(nil)
	_ plugin.OnLotsArchived       = (*Extension)(nil)
	_ plugin.OnBatchProduced      = (*Extension)(nil)
	_ plugin.OnBatchRolledBack    = (*Extension)(nil)
	_ plugin.OnBatchEdited        = (*Extension)(nil)
	_ plugin.OnFinishedGoodsDrawn = (*Extension)(nil)
	_ plugin.OnSnapshotLoaded     = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly; callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Larder lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Stock hooks
// ──────────────────────────────────────────────────

// OnIngredientAdded implements plugin.OnIngredientAdded.
func (e *Extension) OnIngredientAdded(ctx context.Context, ing *ingredient.Ingredient) error {
	return e.record(ctx, ActionIngredientAdded, SeverityInfo, OutcomeSuccess,
		ResourceIngredient, ing.ID.String(), CategoryCatalog, nil,
		"name", ing.Name,
		"base_unit", string(ing.BaseUnit),
	)
}

// OnLotReceived implements plugin.OnLotReceived.
func (e *Extension) OnLotReceived(ctx context.Context, ing *ingredient.Ingredient, lot *ingredient.Lot) error {
	return e.record(ctx, ActionLotReceived, SeverityInfo, OutcomeSuccess,
		ResourceLot, lot.ID.String(), CategoryStock, nil,
		"ingredient_id", ing.ID.String(),
		"quantity", lot.Initial.String(),
		"unit_cost", lot.UnitCost.String(),
		"supplier_ref", lot.SupplierRef,
	)
}

// OnStockConsumed implements plugin.OnStockConsumed. Losses are recorded
// under their own action.
func (e *Extension) OnStockConsumed(ctx context.Context, ing *ingredient.Ingredient, kind movement.Kind, c stock.Consumption) error {
	action := ActionStockConsumed
	if kind == movement.KindLoss {
		action = ActionStockLost
	}

	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceIngredient, ing.ID.String(), CategoryStock, nil,
		"kind", string(kind),
		"quantity", c.Quantity.String(),
		"cost", c.Cost.String(),
		"lots", len(c.Breakdown),
	)
}

// OnStockReconciled implements plugin.OnStockReconciled. A count that
// disagrees with the ledger is recorded as a warning.
func (e *Extension) OnStockReconciled(ctx context.Context, ing *ingredient.Ingredient, delta decimal.Decimal, cost types.Money) error {
	severity := SeverityInfo
	if !delta.IsZero() {
		severity = SeverityWarning
	}

	return e.record(ctx, ActionStockReconciled, severity, OutcomeSuccess,
		ResourceIngredient, ing.ID.String(), CategoryStock, nil,
		"delta", delta.String(),
		"cost_impact", cost.String(),
	)
}

// OnLowStock implements plugin.OnLowStock.
func (e *Extension) OnLowStock(ctx context.Context, h ingredient.Health) error {
	return e.record(ctx, ActionLowStock, SeverityWarning, OutcomeSuccess,
		ResourceIngredient, h.IngredientID.String(), CategoryStock, nil,
		"name", h.Name,
		"available", h.Available.String(),
		"quantity_level", h.Quantity.String(),
		"expiry_level", h.Expiry.String(),
	)
}

// OnLotsArchived implements plugin.OnLotsArchived.
func (e *Extension) OnLotsArchived(ctx context.Context, ing *ingredient.Ingredient, lots []*ingredient.Lot) error {
	ids := make([]string, len(lots))
	for i, l := range lots {
		ids[i] = l.ID.String()
	}

	return e.record(ctx, ActionLotsArchived, SeverityInfo, OutcomeSuccess,
		ResourceIngredient, ing.ID.String(), CategoryStock, nil,
		"lots", ids,
	)
}

// ──────────────────────────────────────────────────
// Production hooks
// ──────────────────────────────────────────────────

// OnBatchProduced implements plugin.OnBatchProduced.
func (e *Extension) OnBatchProduced(ctx context.Context, b *production.Batch) error {
	return e.record(ctx, ActionBatchProduced, SeverityInfo, OutcomeSuccess,
		ResourceBatch, b.ID.String(), CategoryProduction, nil,
		"name", b.Name,
		"produced", b.Produced,
		"cost_total", b.CostTotal.String(),
		"deduct_stock", b.DeductStock,
	)
}

// OnBatchRolledBack implements plugin.OnBatchRolledBack.
func (e *Extension) OnBatchRolledBack(ctx context.Context, b *production.Batch) error {
	return e.record(ctx, ActionBatchRolledBack, SeverityWarning, OutcomeSuccess,
		ResourceBatch, b.ID.String(), CategoryProduction, nil,
		"name", b.Name,
		"produced", b.Produced,
	)
}

// OnBatchEdited implements plugin.OnBatchEdited.
func (e *Extension) OnBatchEdited(ctx context.Context, previous, updated *production.Batch) error {
	return e.record(ctx, ActionBatchEdited, SeverityInfo, OutcomeSuccess,
		ResourceBatch, updated.ID.String(), CategoryProduction, nil,
		"previous_name", previous.Name,
		"name", updated.Name,
		"previous_produced", previous.Produced,
		"produced", updated.Produced,
		"cost_total", updated.CostTotal.String(),
	)
}

// OnFinishedGoodsDrawn implements plugin.OnFinishedGoodsDrawn.
func (e *Extension) OnFinishedGoodsDrawn(ctx context.Context, b *production.Batch, units int64, cogs types.Money) error {
	return e.record(ctx, ActionFinishedGoodsDrawn, SeverityInfo, OutcomeSuccess,
		ResourceBatch, b.ID.String(), CategoryProduction, nil,
		"units", units,
		"cogs", cogs.String(),
		"remaining", b.Remaining,
	)
}

// ──────────────────────────────────────────────────
// Persistence hooks
// ──────────────────────────────────────────────────

// OnSnapshotLoaded implements plugin.OnSnapshotLoaded.
func (e *Extension) OnSnapshotLoaded(ctx context.Context, profile string, elapsed time.Duration) error {
	return e.record(ctx, ActionSnapshotLoaded, SeverityInfo, OutcomeSuccess,
		ResourceProfile, profile, CategoryData, nil,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
