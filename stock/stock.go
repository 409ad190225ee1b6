// Package stock implements the lot ledger: expiry-first consumption,
// receipts, exact restoration of a recorded breakdown, count adjustments
// and archival of depleted lots.
//
// Every function here mutates the *ingredient.Ingredient it is given, and
// only after all validation has passed, so a returned error means the
// ingredient is untouched.
package stock

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/id"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/types"
)

var (
	// ErrInsufficientStock is returned when demand exceeds lot-backed
	// supply and negative stock is not allowed.
	ErrInsufficientStock = errors.New("larder: insufficient stock")

	// ErrLotNotFound is returned when a restore target is missing and the
	// breakdown does not carry enough data to recreate it.
	ErrLotNotFound = errors.New("larder: lot not found")
)

// Draw is one entry of a consumption breakdown: the quantity taken from a
// single lot at that lot's unit cost. A draw with a nil LotID was charged
// to the negative-balance pool.
//
// Expiry, EntryDate and SupplierRef are copied from the lot so that a
// restore can recreate it after archival.
type Draw struct {
	LotID       id.LotID        `json:"lot_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    types.Money     `json:"unit_cost"`
	Expiry      *time.Time      `json:"expiry,omitempty"`
	EntryDate   time.Time       `json:"entry_date"`
	SupplierRef string          `json:"supplier_ref,omitempty"`
}

// Cost is the quantity valued at the draw's unit cost.
func (d Draw) Cost() types.Money { return d.UnitCost.Mul(d.Quantity) }

// FromPool reports whether the draw was charged to the negative balance.
func (d Draw) FromPool() bool { return d.LotID.IsNil() }

// Breakdown lists the draws of one consumption in the order they were taken.
type Breakdown []Draw

// Quantity is the total quantity drawn.
func (b Breakdown) Quantity() decimal.Decimal {
	total := decimal.Zero
	for _, d := range b {
		total = total.Add(d.Quantity)
	}

	return total
}

// Cost is the total cost of all draws.
func (b Breakdown) Cost() types.Money {
	total := types.ZeroMoney
	for _, d := range b {
		total = total.Add(d.Cost())
	}

	return total
}

// Clone returns a copy of the breakdown.
func (b Breakdown) Clone() Breakdown {
	if b == nil {
		return nil
	}
	c := make(Breakdown, len(b))
	for i, d := range b {
		c[i] = d
		if d.Expiry != nil {
			e := *d.Expiry
			c[i].Expiry = &e
		}
	}

	return c
}

// Consumption is the result of Consume.
type Consumption struct {
	Quantity  decimal.Decimal
	Cost      types.Money
	Breakdown Breakdown
}

// Order returns the lots that still hold stock, nearest expiry first.
// Lots without an expiry sort last; ties go to the earliest entry date and
// then to the lot id, which is time-ordered.
func Order(lots []*ingredient.Lot) []*ingredient.Lot {
	out := make([]*ingredient.Lot, 0, len(lots))
	for _, l := range lots {
		if l.Remaining.IsPositive() {
			out = append(out, l)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return before(out[i], out[j])
	})

	return out
}

func before(a, b *ingredient.Lot) bool {
	switch {
	case a.Expiry != nil && b.Expiry == nil:
		return true
	case a.Expiry == nil && b.Expiry != nil:
		return false
	case a.Expiry != nil && !a.Expiry.Equal(*b.Expiry):
		return a.Expiry.Before(*b.Expiry)
	case !a.EntryDate.Equal(b.EntryDate):
		return a.EntryDate.Before(b.EntryDate)
	default:
		return a.ID.Compare(b.ID) < 0
	}
}

// Check reports whether qty can be consumed from ing.
func Check(ing *ingredient.Ingredient, qty decimal.Decimal, allowNegative bool) error {
	if !qty.IsPositive() {
		return fmt.Errorf("%w: %s", types.ErrInvalidQuantity, qty)
	}
	if allowNegative {
		return nil
	}
	if avail := ing.Available(); avail.LessThan(qty) {
		return fmt.Errorf("%w: %s needs %s %s, %s available",
			ErrInsufficientStock, ing.Name, qty, ing.BaseUnit, avail)
	}

	return nil
}

// Consume draws qty from ing in expiry-first order and returns the cost
// and per-lot breakdown. Demand beyond lot-backed stock fails with
// ErrInsufficientStock unless allowNegative is set, in which case the
// remainder is charged at the weighted-average cost and added to the
// negative balance.
func Consume(ing *ingredient.Ingredient, qty decimal.Decimal, allowNegative bool, now time.Time) (Consumption, error) {
	if err := Check(ing, qty, allowNegative); err != nil {
		return Consumption{}, err
	}

	wac := ing.WeightedAverageCost()
	need := qty
	var breakdown Breakdown

	for _, l := range Order(ing.Lots) {
		if !need.IsPositive() {
			break
		}

		take := decimal.Min(l.Remaining, need)
		l.Remaining = l.Remaining.Sub(take)
		need = need.Sub(take)

		if l.Depleted() {
			at := now.UTC()
			l.DepletedAt = &at
		}

		breakdown = append(breakdown, drawFrom(l, take))
	}

	if need.IsPositive() {
		ing.NegativeBalance = ing.NegativeBalance.Add(need)
		breakdown = append(breakdown, Draw{
			Quantity:  need,
			UnitCost:  wac,
			EntryDate: now.UTC(),
		})
	}

	Refresh(ing)

	return Consumption{
		Quantity:  qty,
		Cost:      breakdown.Cost(),
		Breakdown: breakdown,
	}, nil
}

// Estimate prices qty at the weighted-average cost without touching ing.
func Estimate(ing *ingredient.Ingredient, qty decimal.Decimal) types.Money {
	return ing.WeightedAverageCost().Mul(qty)
}

func drawFrom(l *ingredient.Lot, qty decimal.Decimal) Draw {
	d := Draw{
		LotID:       l.ID,
		Quantity:    qty,
		UnitCost:    l.UnitCost,
		EntryDate:   l.EntryDate,
		SupplierRef: l.SupplierRef,
	}
	if l.Expiry != nil {
		e := *l.Expiry
		d.Expiry = &e
	}

	return d
}

// Refresh recomputes the cached weighted-average cost. The cache is kept
// as is when no lot-backed stock remains.
func Refresh(ing *ingredient.Ingredient) {
	if ing.Available().IsPositive() {
		ing.UnitCost = ing.WeightedAverageCost()
	}
}
