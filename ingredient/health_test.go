package ingredient

import (
	"fmt"
	"testing"
	"time"
)

func TestQuantityLevel(t *testing.T) {
	tests := []struct {
		name  string
		avail string
		min   string
		want  Level
	}{
		{"no minimum", "0", "0", Green},
		{"at minimum", "1000", "1000", Red},
		{"below minimum", "10", "1000", Red},
		{"within 30 percent", "1300", "1000", Orange},
		{"above band", "1301", "1000", Green},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QuantityLevel(dec(tt.avail), dec(tt.min)); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExpiryLevel(t *testing.T) {
	tests := []struct {
		days int
		want Level
	}{
		{-3, Red},
		{0, Red},
		{1, Red},
		{2, Orange},
		{3, Green},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d days", tt.days), func(t *testing.T) {
			if got := ExpiryLevel(tt.days); got != tt.want {
				t.Errorf("days %d: got %s, want %s", tt.days, got, tt.want)
			}
		})
	}
}

func TestDaysUntilCountsCalendarDays(t *testing.T) {
	now := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	exp := time.Date(2026, 3, 2, 0, 15, 0, 0, time.UTC)

	if got := DaysUntil(now, exp); got != 1 {
		t.Errorf("got %d, want 1", got)
	}
}

func TestAssessTakesWorseLevel(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		ing       *Ingredient
		status    Level
		overstock bool
	}{
		{
			name:   "plenty and fresh",
			ing:    &Ingredient{MinStock: dec("100"), Lots: []*Lot{lot("1000", "1", day(20))}},
			status: Green,
		},
		{
			name:   "plenty but expiring tomorrow",
			ing:    &Ingredient{MinStock: dec("100"), Lots: []*Lot{lot("1000", "1", day(2))}},
			status: Red,
		},
		{
			name:   "low stock without expiry",
			ing:    &Ingredient{MinStock: dec("1000"), Lots: []*Lot{lot("1200", "1", nil)}},
			status: Orange,
		},
		{
			name:      "above maximum",
			ing:       &Ingredient{MaxStock: dec("500"), Lots: []*Lot{lot("600", "1", nil)}},
			status:    Green,
			overstock: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Assess(tt.ing, now)
			if h.Status != tt.status {
				t.Errorf("status: got %s, want %s", h.Status, tt.status)
			}
			if h.Overstocked != tt.overstock {
				t.Errorf("overstocked: got %v, want %v", h.Overstocked, tt.overstock)
			}
		})
	}
}
