package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Unit is a unit a quantity may be entered in.
type Unit string

// Accepted input units.
const (
	Kilogram   Unit = "kg"
	Gram       Unit = "g"
	Liter      Unit = "l"
	Milliliter Unit = "ml"
	Piece      Unit = "piece"
)

// BaseUnit is the unit stock is stored and costed in. Kilograms and liters
// are converted to grams and milliliters on the way in.
type BaseUnit string

// Base units.
const (
	BaseGram       BaseUnit = "g"
	BaseMilliliter BaseUnit = "ml"
	BasePiece      BaseUnit = "piece"
)

var (
	// ErrUnitMismatch is returned when a quantity's unit does not reduce to
	// the ingredient's base unit.
	ErrUnitMismatch = errors.New("larder: unit mismatch")

	// ErrInvalidQuantity is returned for zero, negative or malformed quantities.
	ErrInvalidQuantity = errors.New("larder: invalid quantity")
)

var thousand = decimal.NewFromInt(1000)

// ParseUnit normalizes a unit string. Anything that is not a mass or
// volume unit counts as pieces.
func ParseUnit(s string) Unit {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kg":
		return Kilogram
	case "g":
		return Gram
	case "l":
		return Liter
	case "ml":
		return Milliliter
	default:
		return Piece
	}
}

// Base returns the base unit this unit reduces to.
func (u Unit) Base() BaseUnit {
	switch u {
	case Kilogram, Gram:
		return BaseGram
	case Liter, Milliliter:
		return BaseMilliliter
	default:
		return BasePiece
	}
}

// factor is the multiplier from u to its base unit.
func (u Unit) factor() decimal.Decimal {
	switch u {
	case Kilogram, Liter:
		return thousand
	default:
		return decimal.NewFromInt(1)
	}
}

// Valid reports whether b is a known base unit.
func (b BaseUnit) Valid() bool {
	switch b {
	case BaseGram, BaseMilliliter, BasePiece:
		return true
	default:
		return false
	}
}

// ToBase converts qty expressed in u into base-unit quantity. Units other
// than kg, g, l and ml are pieces. It fails
// with ErrUnitMismatch when u does not reduce to want, and with
// ErrInvalidQuantity when qty is not strictly positive.
func ToBase(qty decimal.Decimal, u Unit, want BaseUnit) (decimal.Decimal, error) {
	if u.Base() != want {
		return decimal.Zero, fmt.Errorf("%w: %s is not measured in %s", ErrUnitMismatch, u, want)
	}
	if !qty.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidQuantity, qty)
	}

	return qty.Mul(u.factor()), nil
}

// FromBase converts a base quantity into the display unit.
func FromBase(qty decimal.Decimal, display Unit) decimal.Decimal {
	return qty.Div(display.factor())
}

// FormatQuantity renders a base quantity in the display unit, e.g. "1.5 kg".
func FormatQuantity(qty decimal.Decimal, display Unit) string {
	return FromBase(qty, display).Round(3).String() + " " + string(display)
}
