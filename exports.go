package larder

import (
	"github.com/xraph/larder/finished"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/production"
	"github.com/xraph/larder/report"
	"github.com/xraph/larder/stock"
	"github.com/xraph/larder/types"
)

// Re-export common types for convenience so users don't have to import
// every subpackage.

// Money is re-exported from types package.
type Money = types.Money

// Unit is re-exported from types package.
type Unit = types.Unit

// Entity is re-exported from types package.
type Entity = types.Entity

// Ingredient is re-exported from ingredient package.
type Ingredient = ingredient.Ingredient

// Lot is re-exported from ingredient package.
type Lot = ingredient.Lot

// Health is re-exported from ingredient package.
type Health = ingredient.Health

// Movement is re-exported from movement package.
type Movement = movement.Movement

// Draw is re-exported from stock package.
type Draw = stock.Draw

// Breakdown is re-exported from stock package.
type Breakdown = stock.Breakdown

// Consumption is re-exported from stock package.
type Consumption = stock.Consumption

// Batch is re-exported from production package.
type Batch = production.Batch

// Requirement is re-exported from production package.
type Requirement = production.Requirement

// FinishedGoods is re-exported from finished package.
type FinishedGoods = finished.Pool

// Traceability is re-exported from report package.
type Traceability = report.Traceability

// Re-export units
const (
	Kilogram   = types.Kilogram
	Gram       = types.Gram
	Liter      = types.Liter
	Milliliter = types.Milliliter
	Piece      = types.Piece
)

// Re-export Money constructors
var (
	MoneyFromInt   = types.MoneyFromInt
	ParseMoney     = types.ParseMoney
	MustParseMoney = types.MustParseMoney
	ZeroMoney      = types.ZeroMoney
	Sum            = types.Sum
)
