package snapshot

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/finished"
	"github.com/xraph/larder/id"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/types"
)

func TestEncodeDecode(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	ing := &ingredient.Ingredient{
		ID:       id.NewIngredientID(),
		Name:     "Flour",
		BaseUnit: types.BaseGram,
		Lots: []*ingredient.Lot{{
			ID:        id.NewLotID(),
			EntryDate: now,
			Initial:   decimal.NewFromInt(1000),
			Remaining: decimal.NewFromInt(400),
			UnitCost:  types.MustParseMoney("1.275"),
			Origin:    ingredient.OriginPurchase,
		}},
	}

	in := &Snapshot{
		Profile:     "bakery",
		SavedAt:     now,
		Ingredients: []*ingredient.Ingredient{ing},
		Movements: []*movement.Movement{
			movement.New(now, ing.ID, ing.Lots[0].ID, decimal.NewFromInt(-600), types.MoneyFromInt(-765), "", movement.Loss{Cause: "spill"}),
		},
		Finished: finished.Pool{Units: 3, Value: types.MoneyFromInt(90)},
	}

	data, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	out, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if out.Version != Version || out.Profile != "bakery" {
		t.Errorf("header: version %d profile %q", out.Version, out.Profile)
	}
	if got := out.Ingredients[0].Lots[0].UnitCost; !got.Equal(types.MustParseMoney("1.275")) {
		t.Errorf("unit cost: got %s", got)
	}
	if d, ok := out.Movements[0].Detail.(movement.Loss); !ok || d.Cause != "spill" {
		t.Errorf("movement detail: %#v", out.Movements[0].Detail)
	}
	if out.Finished.Units != 3 {
		t.Errorf("finished units: got %d", out.Finished.Units)
	}
}

func TestDecodeRejectsNewerVersion(t *testing.T) {
	_, err := Decode([]byte(`{"version": 99}`))
	if !errors.Is(err, ErrUnsupportedSnapshot) {
		t.Errorf("got %v, want ErrUnsupportedSnapshot", err)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte(`not json`)); !errors.Is(err, ErrUnsupportedSnapshot) {
		t.Errorf("got %v, want ErrUnsupportedSnapshot", err)
	}
}

const flatV3 = `{
  "version": 3,
  "config": {"activite": "gaufres"},
  "ingredients": [
    {"id": "a1", "name": "Farine", "priceTotal": 1200, "baseQtyTotal": 1000,
     "baseQtyRemaining": 400, "baseUnit": "g", "displayUnit": "kg", "alertBaseQty": 250},
    {"id": "a2", "name": "Oeufs", "priceTotal": 900, "baseQtyTotal": 30,
     "baseQtyRemaining": 0, "baseUnit": "piece", "displayUnit": "piece", "alertBaseQty": 0}
  ],
  "recipes": [
    {"id": "r1", "name": "Gaufres", "producedQty": 20, "salePrice": 500,
     "ingredients": [
       {"ingredientId": "a1", "name": "Farine", "qtyEntered": 0.6, "unitEntered": "kg", "baseQty": 600, "cost": 720},
       {"ingredientId": "a2", "name": "Oeufs", "qtyEntered": 6, "unitEntered": "piece", "baseQty": 6, "cost": 180}
     ],
     "costTotal": 900, "costPerUnit": 45, "createdAt": "2025-11-02T09:00:00.000Z"}
  ],
  "packs": [], "sales": [],
  "inventory": {"finishedUnits": 14, "finishedValue": 630}
}`

func TestDecodeMigratesFlatStock(t *testing.T) {
	s, err := Decode([]byte(flatV3))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if s.Version != Version {
		t.Errorf("version: got %d, want %d", s.Version, Version)
	}
	if len(s.Ingredients) != 2 {
		t.Fatalf("ingredients: got %d, want 2", len(s.Ingredients))
	}

	flour := s.Ingredients[0]
	if flour.BaseUnit != types.BaseGram || flour.DisplayUnit != types.Kilogram {
		t.Errorf("units: %s / %s", flour.BaseUnit, flour.DisplayUnit)
	}
	if !flour.MinStock.Equal(decimal.NewFromInt(250)) {
		t.Errorf("min stock: got %s", flour.MinStock)
	}
	if len(flour.Lots) != 1 || flour.Lots[0].Origin != ingredient.OriginLegacy {
		t.Fatalf("flour lots: %+v", flour.Lots)
	}
	if !flour.Remaining().Equal(decimal.NewFromInt(400)) {
		t.Errorf("flour remaining: got %s", flour.Remaining())
	}
	if !flour.Lots[0].UnitCost.Equal(types.MustParseMoney("1.2")) {
		t.Errorf("flour unit cost: got %s", flour.Lots[0].UnitCost)
	}

	eggs := s.Ingredients[1]
	if len(eggs.Lots) != 0 || !eggs.UnitCost.Equal(types.MoneyFromInt(30)) {
		t.Errorf("eggs: %d lots, cost %s", len(eggs.Lots), eggs.UnitCost)
	}

	if len(s.Movements) != 1 || s.Movements[0].Kind != movement.KindReceipt {
		t.Errorf("movements: %+v", s.Movements)
	}

	if len(s.Batches) != 1 {
		t.Fatalf("batches: got %d, want 1", len(s.Batches))
	}
	b := s.Batches[0]
	if b.Produced != 20 || b.Remaining != 20 || !b.DeductStock {
		t.Errorf("batch: produced %d remaining %d deduct %v", b.Produced, b.Remaining, b.DeductStock)
	}
	if b.Lines[0].IngredientID != flour.ID || len(b.Lines[0].Breakdown) != 1 {
		t.Errorf("flour line: %+v", b.Lines[0])
	}
	if !b.Lines[0].Breakdown[0].UnitCost.Equal(types.MustParseMoney("1.2")) {
		t.Errorf("line unit cost: got %s", b.Lines[0].Breakdown[0].UnitCost)
	}
	if b.CreatedAt.Year() != 2025 {
		t.Errorf("created at: got %s", b.CreatedAt)
	}

	if s.Finished.Units != 14 || !s.Finished.Value.Equal(types.MoneyFromInt(630)) {
		t.Errorf("finished: %+v", s.Finished)
	}
}

func TestDecodeMigratesUnversionedFlatStock(t *testing.T) {
	s, err := Decode([]byte(`{"ingredients": [{"id": "x", "name": "Sel", "displayUnit": "g", "baseQtyRemaining": 50}]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(s.Ingredients) != 1 || s.Ingredients[0].BaseUnit != types.BaseGram {
		t.Errorf("ingredients: %+v", s.Ingredients)
	}
}
