package finished

import (
	"errors"
	"testing"

	"github.com/xraph/larder/stock"
	"github.com/xraph/larder/types"
)

func TestPoolWeightedAverage(t *testing.T) {
	var p Pool
	p.Add(10, types.MoneyFromInt(1000))
	p.Add(30, types.MoneyFromInt(6000))

	if got := p.AverageCost(); !got.Equal(types.MoneyFromInt(175)) {
		t.Fatalf("average: got %s, want 175", got)
	}

	cogs, err := p.Remove(4)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !cogs.Equal(types.MoneyFromInt(700)) {
		t.Errorf("cogs: got %s, want 700", cogs)
	}
	if p.Units != 36 || !p.Value.Equal(types.MoneyFromInt(6300)) {
		t.Errorf("pool: %d units, %s", p.Units, p.Value)
	}

	if err := p.Return(4, cogs); err != nil {
		t.Fatalf("Return: %v", err)
	}
	if p.Units != 40 || !p.Value.Equal(types.MoneyFromInt(7000)) {
		t.Errorf("after return: %d units, %s", p.Units, p.Value)
	}
}

func TestPoolRemoveErrors(t *testing.T) {
	p := Pool{Units: 2, Value: types.MoneyFromInt(10)}

	tests := []struct {
		name  string
		units int64
		want  error
	}{
		{"zero", 0, types.ErrInvalidQuantity},
		{"too many", 3, stock.ErrInsufficientStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := p.Remove(tt.units); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
			if p.Units != 2 {
				t.Error("pool changed by a failed remove")
			}
		})
	}
}

func TestPoolWithdrawClamps(t *testing.T) {
	p := Pool{Units: 3, Value: types.MoneyFromInt(30)}
	p.Withdraw(5, types.MoneyFromInt(50))

	if p.Units != 0 || !p.Value.IsZero() {
		t.Errorf("got %d units, %s", p.Units, p.Value)
	}

	p.Reset()
	if p.Units != 0 || !p.Value.IsZero() {
		t.Error("reset left a non-empty pool")
	}
}
