// Package ingredient defines the catalog models: an Ingredient and the
// procurement Lots it owns.
package ingredient

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/id"
	"github.com/xraph/larder/types"
)

// Origin records how a lot came into existence.
type Origin string

const (
	// OriginPurchase is a lot received from a supplier.
	OriginPurchase Origin = "purchase"
	// OriginRestoration is a lot recreated by a production rollback after
	// the original lot was archived, or stock returned from a settled debt.
	OriginRestoration Origin = "restoration"
	// OriginAdjustment is a surplus found by a physical count.
	OriginAdjustment Origin = "adjustment"
	// OriginLegacy is the opening stock carried over from a flat-stock snapshot.
	OriginLegacy Origin = "legacy"
)

// Lot is a discrete receipt of an ingredient with its own remaining
// quantity and a landed unit cost fixed at creation.
type Lot struct {
	ID          id.LotID        `json:"id"`
	EntryDate   time.Time       `json:"entry_date"`
	Expiry      *time.Time      `json:"expiry,omitempty"`
	Initial     decimal.Decimal `json:"initial"`
	Remaining   decimal.Decimal `json:"remaining"`
	SupplierRef string          `json:"supplier_ref,omitempty"`
	Price       types.Money     `json:"price"`
	Fees        types.Money     `json:"fees"`
	UnitCost    types.Money     `json:"unit_cost"`
	Origin      Origin          `json:"origin"`
	DepletedAt  *time.Time      `json:"depleted_at,omitempty"`
}

// Value is the remaining quantity valued at the lot's unit cost.
func (l *Lot) Value() types.Money {
	return l.UnitCost.Mul(l.Remaining)
}

// Depleted reports whether nothing remains in the lot.
func (l *Lot) Depleted() bool {
	return !l.Remaining.IsPositive()
}

// Clone returns a deep copy of the lot.
func (l *Lot) Clone() *Lot {
	c := *l
	c.Expiry = cloneTime(l.Expiry)
	c.DepletedAt = cloneTime(l.DepletedAt)

	return &c
}

// Ingredient is a raw material tracked by lot.
//
// MinStock and MaxStock are in the base unit; zero means unset.
// UnitCost caches the last weighted-average cost so that an ingredient
// with no stock can still be costed. NegativeBalance is the quantity
// consumed beyond lot-backed stock when negative stock is allowed.
type Ingredient struct {
	ID              id.IngredientID `json:"id"`
	Name            string          `json:"name"`
	Category        string          `json:"category,omitempty"`
	BaseUnit        types.BaseUnit  `json:"base_unit"`
	DisplayUnit     types.Unit      `json:"display_unit"`
	MinStock        decimal.Decimal `json:"min_stock"`
	MaxStock        decimal.Decimal `json:"max_stock"`
	UnitCost        types.Money     `json:"unit_cost"`
	NegativeBalance decimal.Decimal `json:"negative_balance"`
	Lots            []*Lot          `json:"lots"`

	types.Entity
}

// Available is the lot-backed quantity: the sum of lot remaining quantities.
func (i *Ingredient) Available() decimal.Decimal {
	total := decimal.Zero
	for _, l := range i.Lots {
		total = total.Add(l.Remaining)
	}

	return total
}

// Remaining is the available quantity less any outstanding negative balance.
func (i *Ingredient) Remaining() decimal.Decimal {
	return i.Available().Sub(i.NegativeBalance)
}

// TotalValue is the value of lot-backed stock. The negative balance is not
// valued.
func (i *Ingredient) TotalValue() types.Money {
	total := types.ZeroMoney
	for _, l := range i.Lots {
		total = total.Add(l.Value())
	}

	return total
}

// WeightedAverageCost is TotalValue divided by Available, or the cached
// cost when nothing is available.
func (i *Ingredient) WeightedAverageCost() types.Money {
	avail := i.Available()
	if !avail.IsPositive() {
		return i.UnitCost
	}

	return i.TotalValue().Div(avail)
}

// Lot returns the lot with the given id, or nil.
func (i *Ingredient) Lot(lotID id.LotID) *Lot {
	for _, l := range i.Lots {
		if l.ID == lotID {
			return l
		}
	}

	return nil
}

// NearestExpiry returns the earliest expiry among lots that still hold
// stock, or nil.
func (i *Ingredient) NearestExpiry() *time.Time {
	var nearest *time.Time
	for _, l := range i.Lots {
		if l.Depleted() || l.Expiry == nil {
			continue
		}
		if nearest == nil || l.Expiry.Before(*nearest) {
			nearest = l.Expiry
		}
	}

	return cloneTime(nearest)
}

// Clone returns a deep copy of the ingredient and its lots.
func (i *Ingredient) Clone() *Ingredient {
	c := *i
	c.Lots = make([]*Lot, len(i.Lots))
	for n, l := range i.Lots {
		c.Lots[n] = l.Clone()
	}

	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t

	return &v
}
