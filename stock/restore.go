package stock

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/id"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/types"
)

// Restore reverses a recorded breakdown exactly.
//
// A draw against a lot that still exists is put back into it. A draw
// against an archived lot recreates the lot under the same id with the
// recorded unit cost, expiry and supplier reference. A pool draw reduces
// the negative balance; if a receipt has already settled that debt, the
// quantity comes back as a restoration lot at the recorded cost.
//
// The returned breakdown lists what was applied, one entry per lot touched
// and one pool entry for the negative balance reduced.
func Restore(ing *ingredient.Ingredient, b Breakdown, now time.Time) (Breakdown, error) {
	if err := checkRestore(ing, b); err != nil {
		return nil, err
	}

	var applied Breakdown
	for _, d := range b {
		if d.FromPool() {
			applied = append(applied, restorePool(ing, d, now)...)
			continue
		}

		if l := ing.Lot(d.LotID); l != nil {
			l.Remaining = l.Remaining.Add(d.Quantity)
			l.DepletedAt = nil
			if l.Remaining.GreaterThan(l.Initial) {
				// recreated earlier in this call from a split draw
				l.Initial = l.Remaining
				l.Price = l.UnitCost.Mul(l.Initial)
			}
		} else {
			ing.Lots = append(ing.Lots, recreate(d))
		}
		applied = append(applied, d)
	}

	Refresh(ing)

	return applied, nil
}

func checkRestore(ing *ingredient.Ingredient, b Breakdown) error {
	pending := make(map[id.LotID]decimal.Decimal)

	for _, d := range b {
		if !d.Quantity.IsPositive() {
			return fmt.Errorf("%w: restore quantity %s", types.ErrInvalidQuantity, d.Quantity)
		}
		if d.FromPool() {
			continue
		}

		l := ing.Lot(d.LotID)
		if l == nil {
			if d.EntryDate.IsZero() {
				return fmt.Errorf("%w: %s cannot be recreated", ErrLotNotFound, d.LotID)
			}
			continue
		}

		total := pending[d.LotID].Add(d.Quantity)
		pending[d.LotID] = total
		if l.Remaining.Add(total).GreaterThan(l.Initial) {
			return fmt.Errorf("%w: restoring %s to lot %s exceeds its initial quantity",
				types.ErrInvalidQuantity, total, d.LotID)
		}
	}

	return nil
}

func restorePool(ing *ingredient.Ingredient, d Draw, now time.Time) Breakdown {
	var applied Breakdown

	offset := decimal.Min(ing.NegativeBalance, d.Quantity)
	if offset.IsPositive() {
		ing.NegativeBalance = ing.NegativeBalance.Sub(offset)
		applied = append(applied, Draw{Quantity: offset, UnitCost: d.UnitCost, EntryDate: d.EntryDate})
	}

	if excess := d.Quantity.Sub(offset); excess.IsPositive() {
		l := &ingredient.Lot{
			ID:        id.NewLotID(),
			EntryDate: now.UTC(),
			Initial:   excess,
			Remaining: excess,
			Price:     d.UnitCost.Mul(excess),
			UnitCost:  d.UnitCost,
			Origin:    ingredient.OriginRestoration,
		}
		ing.Lots = append(ing.Lots, l)
		applied = append(applied, drawFrom(l, excess))
	}

	return applied
}

func recreate(d Draw) *ingredient.Lot {
	l := &ingredient.Lot{
		ID:          d.LotID,
		EntryDate:   d.EntryDate,
		Initial:     d.Quantity,
		Remaining:   d.Quantity,
		SupplierRef: d.SupplierRef,
		Price:       d.UnitCost.Mul(d.Quantity),
		UnitCost:    d.UnitCost,
		Origin:      ingredient.OriginRestoration,
	}
	if d.Expiry != nil {
		e := *d.Expiry
		l.Expiry = &e
	}

	return l
}
