package snapshot

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/finished"
	"github.com/xraph/larder/id"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/production"
	"github.com/xraph/larder/stock"
	"github.com/xraph/larder/types"
)

// Migration rewrites a snapshot from one version to a later one.
type Migration struct {
	From int
	To   int
	Up   func(data []byte) ([]byte, error)
}

// migrations are applied in order starting from the stored version.
// Versions 0 to 3 share the flat-stock shape, which had no lots.
var migrations = []Migration{
	{From: 0, To: 4, Up: upFlatStock},
	{From: 1, To: 4, Up: upFlatStock},
	{From: 2, To: 4, Up: upFlatStock},
	{From: 3, To: 4, Up: upFlatStock},
}

func migrate(data []byte, from int) ([]byte, error) {
	v := from
	for v < Version {
		m, ok := find(v)
		if !ok {
			return nil, fmt.Errorf("%w: no migration from version %d", ErrUnsupportedSnapshot, v)
		}

		out, err := m.Up(data)
		if err != nil {
			return nil, fmt.Errorf("snapshot: migrate %d to %d: %w", m.From, m.To, err)
		}
		data, v = out, m.To
	}

	return data, nil
}

func find(from int) (Migration, bool) {
	for _, m := range migrations {
		if m.From == from {
			return m, true
		}
	}

	return Migration{}, false
}

// flatState is the shape written before lots existed. Each ingredient
// held a single remaining quantity priced at priceTotal/baseQtyTotal.
type flatState struct {
	Ingredients []flatIngredient `json:"ingredients"`
	Recipes     []flatRecipe     `json:"recipes"`
	Inventory   struct {
		FinishedUnits float64 `json:"finishedUnits"`
		FinishedValue float64 `json:"finishedValue"`
	} `json:"inventory"`
}

type flatIngredient struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	PriceTotal       float64 `json:"priceTotal"`
	BaseQtyTotal     float64 `json:"baseQtyTotal"`
	BaseQtyRemaining float64 `json:"baseQtyRemaining"`
	BaseUnit         string  `json:"baseUnit"`
	DisplayUnit      string  `json:"displayUnit"`
	AlertBaseQty     float64 `json:"alertBaseQty"`
}

type flatRecipe struct {
	Name        string  `json:"name"`
	ProducedQty float64 `json:"producedQty"`
	SalePrice   float64 `json:"salePrice"`
	Ingredients []struct {
		IngredientID string  `json:"ingredientId"`
		Name         string  `json:"name"`
		QtyEntered   float64 `json:"qtyEntered"`
		UnitEntered  string  `json:"unitEntered"`
		BaseQty      float64 `json:"baseQty"`
		Cost         float64 `json:"cost"`
	} `json:"ingredients"`
	CostTotal   float64 `json:"costTotal"`
	CostPerUnit float64 `json:"costPerUnit"`
	CreatedAt   string  `json:"createdAt"`
}

// upFlatStock turns each flat ingredient into one legacy lot holding its
// remaining stock, with a RECEIPT movement for it, and each recipe into a
// batch whose lines draw from those lots.
func upFlatStock(data []byte) ([]byte, error) {
	var fs flatState
	if err := json.Unmarshal(data, &fs); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	s := &Snapshot{SavedAt: now}

	byOldID := make(map[string]*ingredient.Ingredient, len(fs.Ingredients))

	for _, fi := range fs.Ingredients {
		display := types.ParseUnit(fi.DisplayUnit)
		base := types.BaseUnit(strings.ToLower(fi.BaseUnit))
		if !base.Valid() {
			base = display.Base()
		}

		unitCost := types.ZeroMoney
		if fi.BaseQtyTotal > 0 {
			unitCost = types.MoneyFromFloat(fi.PriceTotal).Div(decimal.NewFromFloat(fi.BaseQtyTotal))
		}

		ing := &ingredient.Ingredient{
			ID:          id.NewIngredientID(),
			Name:        fi.Name,
			BaseUnit:    base,
			DisplayUnit: display,
			MinStock:    decimal.NewFromFloat(fi.AlertBaseQty),
			UnitCost:    unitCost,
			Entity:      types.NewEntity(now),
		}

		if remaining := decimal.NewFromFloat(fi.BaseQtyRemaining); remaining.IsPositive() {
			l := &ingredient.Lot{
				ID:        id.NewLotID(),
				EntryDate: now,
				Initial:   remaining,
				Remaining: remaining,
				Price:     unitCost.Mul(remaining),
				UnitCost:  unitCost,
				Origin:    ingredient.OriginLegacy,
			}
			ing.Lots = append(ing.Lots, l)

			s.Movements = append(s.Movements, movement.New(now, ing.ID, l.ID, remaining, l.Value(),
				"opening stock", movement.Receipt{Origin: ingredient.OriginLegacy, Price: l.Price, Received: remaining}))
		}

		s.Ingredients = append(s.Ingredients, ing)
		byOldID[fi.ID] = ing
	}

	for _, fr := range fs.Recipes {
		produced := int64(fr.ProducedQty)
		created := now
		if t, err := time.Parse(time.RFC3339, fr.CreatedAt); err == nil {
			created = t.UTC()
		}

		b := &production.Batch{
			ID:             id.NewBatchID(),
			Name:           fr.Name,
			SalePrice:      types.MoneyFromFloat(fr.SalePrice),
			ProducedPerRun: produced,
			Multiplier:     1,
			Produced:       produced,
			Remaining:      produced,
			CostTotal:      types.MoneyFromFloat(fr.CostTotal),
			CostPerUnit:    types.MoneyFromFloat(fr.CostPerUnit),
			DeductStock:    true,
			Entity:         types.NewEntity(created),
		}

		for _, fl := range fr.Ingredients {
			qty := decimal.NewFromFloat(fl.BaseQty)
			line := production.Line{
				Name:            fl.Name,
				QuantityEntered: decimal.NewFromFloat(fl.QtyEntered),
				UnitEntered:     types.ParseUnit(fl.UnitEntered),
				PerRun:          qty,
				Quantity:        qty,
				Cost:            types.MoneyFromFloat(fl.Cost),
			}

			ing, ok := byOldID[fl.IngredientID]
			if !ok || !qty.IsPositive() {
				// the ingredient was deleted; the run can no longer be reversed
				b.DeductStock = false
				b.Lines = append(b.Lines, line)
				continue
			}

			line.IngredientID = ing.ID
			line.Breakdown = stock.Breakdown{legacyDraw(qty, line.Cost, created)}
			b.Lines = append(b.Lines, line)
		}

		if !b.DeductStock {
			for i := range b.Lines {
				b.Lines[i].Breakdown = nil
			}
		}

		s.Batches = append(s.Batches, b)
	}

	s.Finished = finished.Pool{
		Units: int64(fs.Inventory.FinishedUnits),
		Value: types.MoneyFromFloat(fs.Inventory.FinishedValue),
	}
	s.Version = Version

	return json.Marshal(s)
}

// legacyDraw records a recipe line as drawn from a lot consumed before
// lots were tracked. The lot id is fresh, so a rollback recreates the
// quantity as a restoration lot at the recorded cost.
func legacyDraw(qty decimal.Decimal, cost types.Money, at time.Time) stock.Draw {
	return stock.Draw{
		LotID:     id.NewLotID(),
		Quantity:  qty,
		UnitCost:  cost.Div(qty),
		EntryDate: at,
	}
}
