// Package production defines production batches: a recipe run that turns
// ingredient requirements into finished units and keeps the exact lot
// breakdown it consumed.
package production

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/id"
	"github.com/xraph/larder/stock"
	"github.com/xraph/larder/types"
)

// ErrBatchInUse is returned when a rollback or composition edit targets a
// batch whose output has already been partly sold or packed.
var ErrBatchInUse = errors.New("larder: batch in use")

var maxRuns = decimal.NewFromInt(math.MaxInt64)

// Requirement is one ingredient line of a recipe, per run, as entered.
type Requirement struct {
	IngredientID id.IngredientID `json:"ingredient_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         types.Unit      `json:"unit"`
}

// Line is the consumption record for one ingredient of a batch.
type Line struct {
	IngredientID    id.IngredientID `json:"ingredient_id"`
	Name            string          `json:"name"`
	QuantityEntered decimal.Decimal `json:"quantity_entered"`
	UnitEntered     types.Unit      `json:"unit_entered"`
	// PerRun is the base quantity for one run; Quantity is PerRun times
	// the batch multiplier.
	PerRun    decimal.Decimal `json:"per_run"`
	Quantity  decimal.Decimal `json:"quantity"`
	Cost      types.Money     `json:"cost"`
	Breakdown stock.Breakdown `json:"breakdown,omitempty"`
}

// Batch is one production run of a recipe, repeated Multiplier times.
type Batch struct {
	ID             id.BatchID  `json:"id"`
	Name           string      `json:"name"`
	SalePrice      types.Money `json:"sale_price"`
	Lines          []Line      `json:"lines"`
	ProducedPerRun int64       `json:"produced_per_run"`
	Multiplier     int64       `json:"multiplier"`
	Produced       int64       `json:"produced"`
	Remaining      int64       `json:"remaining"`
	CostTotal      types.Money `json:"cost_total"`
	CostPerUnit    types.Money `json:"cost_per_unit"`
	DeductStock    bool        `json:"deduct_stock"`

	types.Entity
}

// InUse reports whether some of the batch output has left inventory.
func (b *Batch) InUse() bool {
	return b.Remaining < b.Produced
}

// Margin is the sale price less the unit cost.
func (b *Batch) Margin() types.Money {
	return b.SalePrice.Sub(b.CostPerUnit)
}

// Uses reports whether the batch consumed the ingredient.
func (b *Batch) Uses(ingID id.IngredientID) bool {
	for _, l := range b.Lines {
		if l.IngredientID == ingID {
			return true
		}
	}

	return false
}

// Draw takes units out of the batch's remaining output.
func (b *Batch) Draw(units int64) error {
	if units <= 0 {
		return fmt.Errorf("%w: %d units", types.ErrInvalidQuantity, units)
	}
	if units > b.Remaining {
		return fmt.Errorf("%w: batch %s has %d units left, %d requested",
			stock.ErrInsufficientStock, b.Name, b.Remaining, units)
	}
	b.Remaining -= units

	return nil
}

// Return puts units back into the batch's remaining output, never above
// what was produced.
func (b *Batch) Return(units int64) error {
	if units <= 0 {
		return fmt.Errorf("%w: %d units", types.ErrInvalidQuantity, units)
	}
	b.Remaining = min(b.Remaining+units, b.Produced)

	return nil
}

// Clone returns a deep copy of the batch.
func (b *Batch) Clone() *Batch {
	c := *b
	c.Lines = make([]Line, len(b.Lines))
	for i, l := range b.Lines {
		c.Lines[i] = l
		c.Lines[i].Breakdown = l.Breakdown.Clone()
	}

	return &c
}

// Capacity is the number of finished units the batch's recipe could still
// yield with the quantities available now. An ingredient that no longer
// exists yields zero.
func Capacity(b *Batch, available func(id.IngredientID) (decimal.Decimal, bool)) int64 {
	if len(b.Lines) == 0 || b.ProducedPerRun <= 0 {
		return 0
	}

	runs := int64(-1)
	for _, l := range b.Lines {
		if !l.PerRun.IsPositive() {
			continue
		}
		avail, ok := available(l.IngredientID)
		if !ok || !avail.IsPositive() {
			return 0
		}

		q := avail.Div(l.PerRun).Floor()
		n := int64(math.MaxInt64)
		if q.LessThan(maxRuns) {
			n = q.IntPart()
		}
		if runs < 0 || n < runs {
			runs = n
		}
	}

	if runs < 0 {
		return 0
	}

	if runs > math.MaxInt64/b.ProducedPerRun {
		return math.MaxInt64
	}

	return runs * b.ProducedPerRun
}
