package stock

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/id"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/types"
)

// Receipt describes incoming stock.
type Receipt struct {
	Quantity    decimal.Decimal
	Price       types.Money
	Fees        types.Money
	Expiry      *time.Time
	SupplierRef string
	EntryDate   time.Time
}

// Received is the result of Receive. Settled is the part of the incoming
// quantity that went to paying off the negative balance.
type Received struct {
	Lot     *ingredient.Lot
	Settled decimal.Decimal
}

// Receive adds a lot to ing with landed unit cost (price+fees)/quantity.
// An outstanding negative balance is offset first; only the surplus is
// left in the lot as available stock.
func Receive(ing *ingredient.Ingredient, r Receipt) (Received, error) {
	if !r.Quantity.IsPositive() {
		return Received{}, fmt.Errorf("%w: received quantity %s", types.ErrInvalidQuantity, r.Quantity)
	}
	if r.Price.IsNegative() || r.Fees.IsNegative() {
		return Received{}, fmt.Errorf("%w: price and fees must not be negative", types.ErrInvalidQuantity)
	}

	entry := r.EntryDate.UTC()
	settled := decimal.Min(ing.NegativeBalance, r.Quantity)
	if settled.IsNegative() {
		settled = decimal.Zero
	}

	l := &ingredient.Lot{
		ID:          id.NewLotID(),
		EntryDate:   entry,
		Expiry:      r.Expiry,
		Initial:     r.Quantity,
		Remaining:   r.Quantity.Sub(settled),
		SupplierRef: r.SupplierRef,
		Price:       r.Price,
		Fees:        r.Fees,
		UnitCost:    r.Price.Add(r.Fees).Div(r.Quantity),
		Origin:      ingredient.OriginPurchase,
	}
	if l.Depleted() {
		l.DepletedAt = &entry
	}

	ing.NegativeBalance = ing.NegativeBalance.Sub(settled)
	ing.Lots = append(ing.Lots, l)

	if ing.Available().IsPositive() {
		Refresh(ing)
	} else {
		ing.UnitCost = l.UnitCost
	}

	return Received{Lot: l, Settled: settled}, nil
}

// Adjust records a counted surplus as a new lot valued at the current
// weighted-average cost.
func Adjust(ing *ingredient.Ingredient, qty decimal.Decimal, now time.Time) (*ingredient.Lot, error) {
	if !qty.IsPositive() {
		return nil, fmt.Errorf("%w: surplus %s", types.ErrInvalidQuantity, qty)
	}

	cost := ing.WeightedAverageCost()
	l := &ingredient.Lot{
		ID:        id.NewLotID(),
		EntryDate: now.UTC(),
		Initial:   qty,
		Remaining: qty,
		Price:     cost.Mul(qty),
		UnitCost:  cost,
		Origin:    ingredient.OriginAdjustment,
	}

	ing.Lots = append(ing.Lots, l)
	Refresh(ing)

	return l, nil
}

// Archive removes lots that have been empty since before cutoff and
// returns them.
func Archive(ing *ingredient.Ingredient, cutoff time.Time) []*ingredient.Lot {
	var (
		kept     = ing.Lots[:0:0]
		archived []*ingredient.Lot
	)

	for _, l := range ing.Lots {
		if l.Depleted() && l.DepletedAt != nil && l.DepletedAt.Before(cutoff) {
			archived = append(archived, l)
			continue
		}
		kept = append(kept, l)
	}

	if len(archived) > 0 {
		ing.Lots = kept
	}

	return archived
}
