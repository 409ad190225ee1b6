package ingredient

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/id"
)

// Level is a severity used for prioritized listing. It never blocks an
// operation.
type Level int

// Severity levels, ordered.
const (
	Green Level = iota
	Orange
	Red
)

var orangeFactor = decimal.RequireFromString("1.3")

// String returns the level name.
func (l Level) String() string {
	switch l {
	case Red:
		return "red"
	case Orange:
		return "orange"
	default:
		return "green"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(data []byte) error {
	switch string(data) {
	case "red":
		*l = Red
	case "orange":
		*l = Orange
	default:
		*l = Green
	}

	return nil
}

// Health is the urgency assessment of one ingredient.
type Health struct {
	IngredientID  id.IngredientID `json:"ingredient_id"`
	Name          string          `json:"name"`
	Status        Level           `json:"status"`
	Quantity      Level           `json:"quantity"`
	Expiry        Level           `json:"expiry"`
	Available     decimal.Decimal `json:"available"`
	NearestExpiry *time.Time      `json:"nearest_expiry,omitempty"`
	DaysToExpiry  *int            `json:"days_to_expiry,omitempty"`
	Overstocked   bool            `json:"overstocked"`
}

// Assess scores the ingredient's stock and expiry levels at now and
// reports the worse of the two as Status.
func Assess(ing *Ingredient, now time.Time) Health {
	avail := ing.Available()
	h := Health{
		IngredientID: ing.ID,
		Name:         ing.Name,
		Available:    avail,
		Quantity:     QuantityLevel(avail, ing.MinStock),
	}

	if ing.MaxStock.IsPositive() && avail.GreaterThan(ing.MaxStock) {
		h.Overstocked = true
	}

	if exp := ing.NearestExpiry(); exp != nil {
		days := DaysUntil(now, *exp)
		h.NearestExpiry = exp
		h.DaysToExpiry = &days
		h.Expiry = ExpiryLevel(days)
	}

	h.Status = max(h.Quantity, h.Expiry)

	return h
}

// QuantityLevel is red at or below min and orange at or below 1.3×min.
// Without a minimum the level is always green.
func QuantityLevel(avail, minStock decimal.Decimal) Level {
	if !minStock.IsPositive() {
		return Green
	}

	switch {
	case avail.LessThanOrEqual(minStock):
		return Red
	case avail.LessThanOrEqual(minStock.Mul(orangeFactor)):
		return Orange
	default:
		return Green
	}
}

// ExpiryLevel is red when one day or less is left (expired included) and
// orange at two days.
func ExpiryLevel(days int) Level {
	switch {
	case days <= 1:
		return Red
	case days <= 2:
		return Orange
	default:
		return Green
	}
}

// DaysUntil counts calendar days from now to t in UTC. A date already
// past is negative.
func DaysUntil(now, t time.Time) int {
	a := truncateDay(now)
	b := truncateDay(t)

	return int(b.Sub(a).Hours() / 24)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
