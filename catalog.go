package larder

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/id"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/types"
)

// IngredientInput describes a new ingredient. MinStock and MaxStock are
// given in DisplayUnit; zero leaves a threshold unset.
type IngredientInput struct {
	Name        string
	Category    string
	DisplayUnit types.Unit
	MinStock    decimal.Decimal
	MaxStock    decimal.Decimal
}

// IngredientUpdate changes catalog fields of an ingredient. Nil fields are
// left as they are. Stock is never edited here; it changes through lots.
type IngredientUpdate struct {
	Name        *string
	Category    *string
	DisplayUnit *types.Unit
	MinStock    *decimal.Decimal
	MaxStock    *decimal.Decimal
}

// AddIngredient registers a new ingredient with no stock.
func (l *Larder) AddIngredient(ctx context.Context, in IngredientInput) (*ingredient.Ingredient, error) {
	var added *ingredient.Ingredient

	err := l.mutate(ctx, "add ingredient", func(t *tx) error {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return ValidationError{Field: "name", Message: "is required"}
		}
		if err := t.uniqueName(name, id.Nil); err != nil {
			return err
		}

		unit := types.ParseUnit(string(in.DisplayUnit))
		minStock, maxStock, err := thresholds(in.MinStock, in.MaxStock, unit)
		if err != nil {
			return err
		}

		ing := &ingredient.Ingredient{
			ID:          id.NewIngredientID(),
			Name:        name,
			Category:    strings.TrimSpace(in.Category),
			BaseUnit:    unit.Base(),
			DisplayUnit: unit,
			MinStock:    minStock,
			MaxStock:    maxStock,
			Entity:      types.NewEntity(t.now),
		}
		t.putIngredient(ing)

		added = ing.Clone()
		t.after(func(ctx context.Context) {
			l.plugins.EmitIngredientAdded(ctx, added.Clone())
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Debug("ingredient added", "ingredient_id", added.ID.String(), "name", added.Name)

	return added, nil
}

// UpdateIngredient changes the catalog fields of an ingredient. The
// display unit may only change to another unit of the same base.
func (l *Larder) UpdateIngredient(ctx context.Context, ingID id.IngredientID, up IngredientUpdate) (*ingredient.Ingredient, error) {
	var updated *ingredient.Ingredient

	err := l.mutate(ctx, "update ingredient", func(t *tx) error {
		ing, err := t.ingredient(ingID)
		if err != nil {
			return err
		}

		if up.Name != nil {
			name := strings.TrimSpace(*up.Name)
			if name == "" {
				return ValidationError{Field: "name", Message: "is required"}
			}
			if err := t.uniqueName(name, ingID); err != nil {
				return err
			}
			ing.Name = name
		}
		if up.Category != nil {
			ing.Category = strings.TrimSpace(*up.Category)
		}

		unit := ing.DisplayUnit
		if up.DisplayUnit != nil {
			unit = types.ParseUnit(string(*up.DisplayUnit))
			if unit.Base() != ing.BaseUnit {
				return ValidationError{
					Field:   "display_unit",
					Message: fmt.Sprintf("%s is not measured in %s", unit, ing.BaseUnit),
					Err:     ErrUnitMismatch,
				}
			}
		}

		// thresholds are entered in the display unit in effect after the update
		minStock := types.FromBase(ing.MinStock, unit)
		if up.MinStock != nil {
			minStock = *up.MinStock
		}
		maxStock := types.FromBase(ing.MaxStock, unit)
		if up.MaxStock != nil {
			maxStock = *up.MaxStock
		}

		baseMin, baseMax, err := thresholds(minStock, maxStock, unit)
		if err != nil {
			return err
		}
		if up.MinStock != nil {
			ing.MinStock = baseMin
		}
		if up.MaxStock != nil {
			ing.MaxStock = baseMax
		}

		ing.DisplayUnit = unit
		ing.Touch(t.now)
		updated = ing.Clone()

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// RemoveIngredient deletes an ingredient from the catalog. It is refused
// while a recorded batch still references it, since rolling that batch
// back must remain possible. Its movements stay in the journal.
func (l *Larder) RemoveIngredient(ctx context.Context, ingID id.IngredientID) error {
	return l.mutate(ctx, "remove ingredient", func(t *tx) error {
		ing, err := t.peek(ingID)
		if err != nil {
			return err
		}

		for _, b := range t.batches {
			if b.Uses(ingID) {
				return fmt.Errorf("%w: %s is used by batch %s", ErrIngredientInUse, ing.Name, b.Name)
			}
		}

		t.removeIngredient(ingID)

		return nil
	})
}

// Ingredient returns a copy of the ingredient.
func (l *Larder) Ingredient(ingID id.IngredientID) (*ingredient.Ingredient, error) {
	var (
		out *ingredient.Ingredient
		err error
	)

	l.read(func(st *state) {
		ing, ok := st.ingredients[ingID]
		if !ok {
			err = fmt.Errorf("%w: %s", ErrIngredientNotFound, ingID)
			return
		}
		out = ing.Clone()
	})

	return out, err
}

// Ingredients returns copies of every ingredient, sorted by name.
func (l *Larder) Ingredients() []*ingredient.Ingredient {
	var out []*ingredient.Ingredient

	l.read(func(st *state) {
		out = make([]*ingredient.Ingredient, 0, len(st.ingredients))
		for _, ing := range st.ingredients {
			out = append(out, ing.Clone())
		}
	})

	sort.Slice(out, func(i, j int) bool {
		return byName(out[i].Name, out[j].Name, out[i].ID, out[j].ID)
	})

	return out
}

func (t *tx) uniqueName(name string, self id.IngredientID) error {
	for _, ing := range t.ingredients {
		if ing.ID != self && strings.EqualFold(ing.Name, name) {
			return fmt.Errorf("%w: ingredient %q", ErrAlreadyExists, name)
		}
	}

	return nil
}

// thresholds converts min/max stock from the display unit to the base unit.
func thresholds(minStock, maxStock decimal.Decimal, unit types.Unit) (decimal.Decimal, decimal.Decimal, error) {
	if minStock.IsNegative() {
		return decimal.Zero, decimal.Zero, ValidationError{Field: "min_stock", Message: "must not be negative", Err: ErrInvalidQuantity}
	}
	if maxStock.IsNegative() {
		return decimal.Zero, decimal.Zero, ValidationError{Field: "max_stock", Message: "must not be negative", Err: ErrInvalidQuantity}
	}
	if maxStock.IsPositive() && maxStock.LessThan(minStock) {
		return decimal.Zero, decimal.Zero, ValidationError{Field: "max_stock", Message: "must not be below min_stock", Err: ErrInvalidQuantity}
	}

	base := unit.Base()
	toBase := func(v decimal.Decimal) decimal.Decimal {
		if v.IsZero() {
			return decimal.Zero
		}
		q, _ := types.ToBase(v, unit, base) //nolint:errcheck // positive and same base
		return q
	}

	return toBase(minStock), toBase(maxStock), nil
}

func byName(a, b string, aID, bID id.IngredientID) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}

	return aID.Compare(bID) < 0
}
