// Package finished holds the finished-goods inventory: a pool of sellable
// units valued at weighted-average cost.
package finished

import (
	"fmt"

	"github.com/xraph/larder/stock"
	"github.com/xraph/larder/types"
)

// Pool is the finished-goods inventory. Units come in from production at
// batch cost and leave at the pool's average cost.
type Pool struct {
	Units int64       `json:"units"`
	Value types.Money `json:"value"`
}

// AverageCost is Value divided by Units, or zero for an empty pool.
func (p Pool) AverageCost() types.Money {
	if p.Units <= 0 {
		return types.ZeroMoney
	}

	return p.Value.DivInt(p.Units)
}

// Add records produced units at their production cost.
func (p *Pool) Add(units int64, cost types.Money) {
	p.Units += units
	p.Value = p.Value.Add(cost)
}

// Withdraw reverses a production addition. Both figures are clamped at
// zero, since units may have been reset in the meantime.
func (p *Pool) Withdraw(units int64, cost types.Money) {
	p.Units = max(p.Units-units, 0)
	p.Value = p.Value.Sub(cost)
	if p.Value.IsNegative() || p.Units == 0 {
		p.Value = types.ZeroMoney
	}
}

// Remove takes units out at the average cost and returns that cost of
// goods sold.
func (p *Pool) Remove(units int64) (types.Money, error) {
	if units <= 0 {
		return types.ZeroMoney, fmt.Errorf("%w: %d units", types.ErrInvalidQuantity, units)
	}
	if units > p.Units {
		return types.ZeroMoney, fmt.Errorf("%w: %d finished units left, %d requested",
			stock.ErrInsufficientStock, p.Units, units)
	}

	cogs := p.AverageCost().MulInt(units)
	p.Units -= units
	p.Value = p.Value.Sub(cogs)
	if p.Units == 0 || p.Value.IsNegative() {
		p.Value = types.ZeroMoney
	}

	return cogs, nil
}

// Return puts units back at the cost they were drawn at.
func (p *Pool) Return(units int64, cogs types.Money) error {
	if units <= 0 {
		return fmt.Errorf("%w: %d units", types.ErrInvalidQuantity, units)
	}
	p.Add(units, cogs)

	return nil
}

// Reset empties the pool.
func (p *Pool) Reset() {
	*p = Pool{}
}
