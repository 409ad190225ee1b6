package production

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/id"
	"github.com/xraph/larder/types"
)

// Resolved is a requirement converted to the ingredient's base unit.
type Resolved struct {
	Requirement
	Name   string
	PerRun decimal.Decimal
}

// Resolve converts requirements into base quantities and merges duplicate
// ingredients, keeping the order of first appearance. lookup returns the
// ingredient's name and base unit.
func Resolve(reqs []Requirement, lookup func(id.IngredientID) (string, types.BaseUnit, error)) ([]Resolved, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: no ingredient lines", types.ErrInvalidQuantity)
	}

	var (
		out   []Resolved
		index = make(map[id.IngredientID]int)
	)

	for _, r := range reqs {
		name, base, err := lookup(r.IngredientID)
		if err != nil {
			return nil, err
		}

		qty, err := types.ToBase(r.Quantity, r.Unit, base)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		if i, ok := index[r.IngredientID]; ok {
			merged := &out[i]
			merged.PerRun = merged.PerRun.Add(qty)
			merged.Quantity = types.FromBase(merged.PerRun, merged.Unit)
			continue
		}

		index[r.IngredientID] = len(out)
		out = append(out, Resolved{Requirement: r, Name: name, PerRun: qty})
	}

	return out, nil
}
