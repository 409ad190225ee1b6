// Package report builds read-only views over the movement journal.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/id"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/types"
)

// KindTotal sums the movements of one kind.
type KindTotal struct {
	Kind       movement.Kind   `json:"kind"`
	Count      int             `json:"count"`
	Quantity   decimal.Decimal `json:"quantity"`
	CostImpact types.Money     `json:"cost_impact"`
}

// IngredientTrace is the activity of one ingredient within the range.
type IngredientTrace struct {
	IngredientID id.IngredientID      `json:"ingredient_id"`
	Name         string               `json:"name"`
	Movements    []*movement.Movement `json:"movements"`
	Totals       []KindTotal          `json:"totals"`
	Net          decimal.Decimal      `json:"net"`
	Batches      []id.BatchID         `json:"batches,omitempty"`
}

// Traceability covers every ingredient touched between From and To.
type Traceability struct {
	From        time.Time         `json:"from"`
	To          time.Time         `json:"to"`
	Ingredients []IngredientTrace `json:"ingredients"`
}

// Build groups the movements in [from, to) by ingredient. names resolves
// ingredient names; an ingredient removed from the catalog keeps its id
// as name.
func Build(j *movement.Journal, from, to time.Time, names func(id.IngredientID) (string, bool)) Traceability {
	traces := make(map[id.IngredientID]*IngredientTrace)
	var order []id.IngredientID

	for _, m := range j.Between(from, to) {
		tr, ok := traces[m.IngredientID]
		if !ok {
			name, found := names(m.IngredientID)
			if !found {
				name = m.IngredientID.String()
			}
			tr = &IngredientTrace{IngredientID: m.IngredientID, Name: name, Net: decimal.Zero}
			traces[m.IngredientID] = tr
			order = append(order, m.IngredientID)
		}
		tr.Movements = append(tr.Movements, m)
	}

	out := Traceability{From: from, To: to, Ingredients: make([]IngredientTrace, 0, len(order))}
	for _, ingID := range order {
		tr := traces[ingID]
		summarize(tr)
		out.Ingredients = append(out.Ingredients, *tr)
	}

	sort.SliceStable(out.Ingredients, func(a, b int) bool {
		return out.Ingredients[a].Name < out.Ingredients[b].Name
	})

	return out
}

func summarize(tr *IngredientTrace) {
	totals := make(map[movement.Kind]*KindTotal, len(movement.Kinds))
	seen := make(map[id.BatchID]bool)

	for _, m := range tr.Movements {
		kt, ok := totals[m.Kind]
		if !ok {
			kt = &KindTotal{Kind: m.Kind}
			totals[m.Kind] = kt
		}
		kt.Count++
		kt.Quantity = kt.Quantity.Add(m.Quantity)
		kt.CostImpact = kt.CostImpact.Add(m.CostImpact)
		tr.Net = tr.Net.Add(m.Quantity)

		if b, ok := m.BatchID(); ok && !seen[b] {
			seen[b] = true
			tr.Batches = append(tr.Batches, b)
		}
	}

	for _, k := range movement.Kinds {
		if kt, ok := totals[k]; ok {
			tr.Totals = append(tr.Totals, *kt)
		}
	}
}
