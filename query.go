package larder

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/id"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/report"
	"github.com/xraph/larder/types"
)

// Remaining is the ingredient's lot-backed quantity less its negative
// balance, in the base unit.
func (l *Larder) Remaining(ingID id.IngredientID) (decimal.Decimal, error) {
	var out decimal.Decimal
	err := l.withIngredient(ingID, func(ing *ingredient.Ingredient) {
		out = ing.Remaining()
	})

	return out, err
}

// TotalValue is the value of the ingredient's lot-backed stock.
func (l *Larder) TotalValue(ingID id.IngredientID) (types.Money, error) {
	var out types.Money
	err := l.withIngredient(ingID, func(ing *ingredient.Ingredient) {
		out = ing.TotalValue()
	})

	return out, err
}

// WeightedAverageCost is the ingredient's current unit cost.
func (l *Larder) WeightedAverageCost(ingID id.IngredientID) (types.Money, error) {
	var out types.Money
	err := l.withIngredient(ingID, func(ing *ingredient.Ingredient) {
		out = ing.WeightedAverageCost()
	})

	return out, err
}

// HealthStatus scores the ingredient's stock and expiry.
func (l *Larder) HealthStatus(ingID id.IngredientID) (ingredient.Health, error) {
	now := l.now()

	var out ingredient.Health
	err := l.withIngredient(ingID, func(ing *ingredient.Ingredient) {
		out = ingredient.Assess(ing, now)
	})

	return out, err
}

// HealthReport scores every ingredient, worst status first, then by name.
func (l *Larder) HealthReport() []ingredient.Health {
	now := l.now()

	var out []ingredient.Health
	l.read(func(st *state) {
		out = make([]ingredient.Health, 0, len(st.ingredients))
		for _, ing := range st.ingredients {
			out = append(out, ingredient.Assess(ing, now))
		}
	})

	sort.Slice(out, func(i, j int) bool {
		if out[i].Status != out[j].Status {
			return out[i].Status > out[j].Status
		}
		return byName(out[i].Name, out[j].Name, out[i].IngredientID, out[j].IngredientID)
	})

	return out
}

// MovementsFor returns up to limit movements of the ingredient, most
// recent first. A limit of zero or less gives the default audit view.
func (l *Larder) MovementsFor(ingID id.IngredientID, limit int) []*movement.Movement {
	var out []*movement.Movement
	l.read(func(st *state) {
		out = st.journal.ForIngredient(ingID, limit)
	})

	return out
}

// Movements returns the whole journal, oldest first.
func (l *Larder) Movements() []*movement.Movement {
	var out []*movement.Movement
	l.read(func(st *state) {
		out = st.journal.All()
	})

	return out
}

// TraceabilityReport groups the movements in [from, to) by ingredient.
// A zero bound leaves that side of the range open.
func (l *Larder) TraceabilityReport(from, to time.Time) (report.Traceability, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return report.Traceability{}, ValidationError{Field: "to", Message: "is before from"}
	}

	var out report.Traceability
	l.read(func(st *state) {
		out = report.Build(st.journal, from, to, func(ingID id.IngredientID) (string, bool) {
			ing, ok := st.ingredients[ingID]
			if !ok {
				return "", false
			}
			return ing.Name, true
		})
	})

	return out, nil
}

func (l *Larder) withIngredient(ingID id.IngredientID, fn func(*ingredient.Ingredient)) error {
	var err error
	l.read(func(st *state) {
		ing, ok := st.ingredients[ingID]
		if !ok {
			err = fmt.Errorf("%w: %s", ErrIngredientNotFound, ingID)
			return
		}
		fn(ing)
	})

	return err
}
