package larder

import (
	"context"

	"github.com/xraph/larder/finished"
	"github.com/xraph/larder/id"
	"github.com/xraph/larder/types"
)

// DrawFinishedGoods takes units of a batch out of finished goods, for a
// sale or a pack, and returns their cost at the pool's average cost. Once
// a batch has been drawn from it is in use.
func (l *Larder) DrawFinishedGoods(ctx context.Context, batchID id.BatchID, units int64) (types.Money, error) {
	var cogs types.Money

	err := l.mutate(ctx, "draw finished goods", func(t *tx) error {
		b, err := t.batch(batchID)
		if err != nil {
			return err
		}
		if err := b.Draw(units); err != nil {
			return err
		}

		cogs, err = t.finished.Remove(units)
		if err != nil {
			return err
		}
		b.Touch(t.now)

		snap, out := b.Clone(), cogs
		t.after(func(ctx context.Context) {
			l.plugins.EmitFinishedGoodsDrawn(ctx, snap, units, out)
		})

		return nil
	})
	if err != nil {
		return types.ZeroMoney, err
	}

	return cogs, nil
}

// ReturnFinishedGoods undoes a draw, putting units back at the cost they
// left with. A batch never gets back more than it produced. A nil batch id
// returns units to the pool only.
func (l *Larder) ReturnFinishedGoods(ctx context.Context, batchID id.BatchID, units int64, cogs types.Money) error {
	return l.mutate(ctx, "return finished goods", func(t *tx) error {
		if cogs.IsNegative() {
			return ValidationError{Field: "cogs", Message: "must not be negative"}
		}

		if !batchID.IsNil() {
			b, err := t.batch(batchID)
			if err != nil {
				return err
			}
			if err := b.Return(units); err != nil {
				return err
			}
			b.Touch(t.now)
		}

		return t.finished.Return(units, cogs)
	})
}

// FinishedGoods returns the finished-goods pool.
func (l *Larder) FinishedGoods() finished.Pool {
	var out finished.Pool
	l.read(func(st *state) { out = st.finished })

	return out
}

// ResetFinishedGoods empties the finished-goods pool. Batches keep their
// remaining counts.
func (l *Larder) ResetFinishedGoods(ctx context.Context) error {
	return l.mutate(ctx, "reset finished goods", func(t *tx) error {
		t.finished.Reset()
		return nil
	})
}
