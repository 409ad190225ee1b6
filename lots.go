package larder

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/id"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/stock"
	"github.com/xraph/larder/types"
)

// Reasons recorded on movements the ledger writes on its own.
const (
	ReasonShortage   = "adjustment: shortage"
	ReasonSurplus    = "adjustment: surplus"
	ReasonCounted    = "adjustment: count matches"
	ReasonSettlement = "negative balance settled"
	ReasonReceipt    = "receipt"
)

// reconcileEpsilon is the difference below which a count matches the ledger.
var reconcileEpsilon = decimal.New(1, -9)

// ReconcileResult is the outcome of Reconcile. Delta is physical less
// theoretical; CostImpact is negative for a shortage.
type ReconcileResult struct {
	Theoretical decimal.Decimal
	Physical    decimal.Decimal
	Delta       decimal.Decimal
	CostImpact  types.Money
}

// ReceiveLot records a receipt of quantity (base unit) at the given total
// price and fees. An outstanding negative balance is settled first and
// only the surplus becomes available in the new lot.
func (l *Larder) ReceiveLot(ctx context.Context, ingID id.IngredientID, r stock.Receipt) (id.LotID, error) {
	var lotID id.LotID

	err := l.mutate(ctx, "receive lot", func(t *tx) error {
		ing, err := t.ingredient(ingID)
		if err != nil {
			return err
		}

		if r.EntryDate.IsZero() {
			r.EntryDate = t.now
		}

		res, err := stock.Receive(ing, r)
		if err != nil {
			return err
		}
		lot := res.Lot
		lotID = lot.ID

		t.record(movement.New(t.now, ing.ID, lot.ID,
			lot.Remaining, lot.UnitCost.Mul(lot.Remaining), ReasonReceipt,
			movement.Receipt{
				Origin:      lot.Origin,
				SupplierRef: lot.SupplierRef,
				Price:       lot.Price,
				Fees:        lot.Fees,
				Expiry:      lot.Expiry,
				Received:    lot.Initial,
			}))

		if res.Settled.IsPositive() {
			t.record(movement.New(t.now, ing.ID, id.Nil,
				res.Settled, lot.UnitCost.Mul(res.Settled), ReasonSettlement,
				movement.Consume{Settlement: true}))
		}

		ing.Touch(t.now)

		snap, received := ing.Clone(), lot.Clone()
		t.after(func(ctx context.Context) {
			l.plugins.EmitLotReceived(ctx, snap, received)
		})

		return nil
	})
	if err != nil {
		return id.Nil, err
	}

	return lotID, nil
}

// Consume draws quantity (base unit) from the ingredient in expiry-first
// order and returns the cost and per-lot breakdown.
func (l *Larder) Consume(ctx context.Context, ingID id.IngredientID, qty decimal.Decimal, reason string) (stock.Consumption, error) {
	return l.draw(ctx, "consume", ingID, qty, reason, func(string) movement.Detail {
		return movement.Consume{}
	})
}

// DeclareLoss draws quantity (base unit) the same way as Consume and logs
// it as a loss.
func (l *Larder) DeclareLoss(ctx context.Context, ingID id.IngredientID, qty decimal.Decimal, reason string) (stock.Consumption, error) {
	return l.draw(ctx, "declare loss", ingID, qty, reason, func(reason string) movement.Detail {
		return movement.Loss{Cause: reason}
	})
}

func (l *Larder) draw(ctx context.Context, op string, ingID id.IngredientID, qty decimal.Decimal, reason string, detail func(string) movement.Detail) (stock.Consumption, error) {
	var out stock.Consumption

	err := l.mutate(ctx, op, func(t *tx) error {
		ing, err := t.ingredient(ingID)
		if err != nil {
			return err
		}

		c, err := stock.Consume(ing, qty, l.allowNegative, t.now)
		if err != nil {
			return err
		}

		d := detail(reason)
		for _, dr := range c.Breakdown {
			t.record(movement.New(t.now, ing.ID, dr.LotID,
				dr.Quantity.Neg(), dr.Cost().Neg(), reason, d))
		}

		ing.Touch(t.now)
		out = c

		snap, kind, cons := ing.Clone(), d.Kind(), cloneConsumption(c)
		t.after(func(ctx context.Context) {
			l.plugins.EmitStockConsumed(ctx, snap, kind, cons)
		})

		return nil
	})
	if err != nil {
		return stock.Consumption{}, err
	}

	return cloneConsumption(out), nil
}

// Reconcile aligns lot-backed stock with a physical count (base unit). A
// shortage is drained expiry-first; a surplus becomes an adjustment lot at
// the weighted-average cost. A matching count still logs a movement.
func (l *Larder) Reconcile(ctx context.Context, ingID id.IngredientID, physical decimal.Decimal) (ReconcileResult, error) {
	var res ReconcileResult

	err := l.mutate(ctx, "reconcile", func(t *tx) error {
		if physical.IsNegative() {
			return ValidationError{Field: "physical", Message: "must not be negative", Err: ErrInvalidQuantity}
		}

		ing, err := t.ingredient(ingID)
		if err != nil {
			return err
		}

		theoretical := ing.Available()
		delta := physical.Sub(theoretical)
		res = ReconcileResult{Theoretical: theoretical, Physical: physical, Delta: delta, CostImpact: types.ZeroMoney}
		detail := movement.Reconcile{Physical: physical, Theoretical: theoretical, Delta: delta}

		switch {
		case delta.Abs().LessThanOrEqual(reconcileEpsilon):
			res.Delta = decimal.Zero
			detail.Delta = decimal.Zero
			t.record(movement.New(t.now, ing.ID, id.Nil, decimal.Zero, types.ZeroMoney, ReasonCounted, detail))

		case delta.IsNegative():
			c, err := stock.Consume(ing, delta.Neg(), false, t.now)
			if err != nil {
				return err
			}
			for _, dr := range c.Breakdown {
				t.record(movement.New(t.now, ing.ID, dr.LotID,
					dr.Quantity.Neg(), dr.Cost().Neg(), ReasonShortage, detail))
			}
			res.CostImpact = c.Cost.Neg()

		default:
			lot, err := stock.Adjust(ing, delta, t.now)
			if err != nil {
				return err
			}
			t.record(movement.New(t.now, ing.ID, lot.ID, delta, lot.Value(), ReasonSurplus, detail))
			res.CostImpact = lot.Value()
		}

		ing.Touch(t.now)

		snap, out := ing.Clone(), res
		t.after(func(ctx context.Context) {
			l.plugins.EmitStockReconciled(ctx, snap, out.Delta, out.CostImpact)
		})

		return nil
	})
	if err != nil {
		return ReconcileResult{}, err
	}

	return res, nil
}

// ArchiveDepletedLots removes lots that have been empty for longer than
// the archive retention and returns how many were removed. Breakdowns keep
// enough of each lot for a rollback to recreate it.
func (l *Larder) ArchiveDepletedLots(ctx context.Context) (int, error) {
	var count int

	err := l.mutate(ctx, "archive lots", func(t *tx) error {
		cutoff := t.now.Add(-l.retention)

		for ingID, ing := range t.ingredients {
			if !archivable(ing, cutoff) {
				continue
			}

			w, err := t.ingredient(ingID)
			if err != nil {
				return err
			}

			archived := stock.Archive(w, cutoff)
			count += len(archived)

			snap := w.Clone()
			t.after(func(ctx context.Context) {
				l.plugins.EmitLotsArchived(ctx, snap, archived)
			})
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	if count > 0 {
		l.logger.Info("depleted lots archived", "count", count, "retention", l.retention)
	}

	return count, nil
}

func archivable(ing *ingredient.Ingredient, cutoff time.Time) bool {
	for _, lot := range ing.Lots {
		if lot.Depleted() && lot.DepletedAt != nil && lot.DepletedAt.Before(cutoff) {
			return true
		}
	}

	return false
}

func cloneConsumption(c stock.Consumption) stock.Consumption {
	c.Breakdown = c.Breakdown.Clone()
	return c
}
