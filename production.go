package larder

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/id"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/production"
	"github.com/xraph/larder/stock"
	"github.com/xraph/larder/types"
)

// ProduceInput describes a production run. ProducedQty is the number of
// finished units one run yields; the run is repeated Multiplier times
// (zero means once). With DeductStock off, the batch is costed at the
// weighted-average cost and the lots are left untouched.
type ProduceInput struct {
	Name         string
	SalePrice    types.Money
	Requirements []production.Requirement
	ProducedQty  int64
	Multiplier   int64
	DeductStock  bool
}

// BatchEdit changes a recorded batch. Nil fields keep their current value;
// a nil Requirements keeps the current composition. Once a batch is in
// use only Name and SalePrice may be set.
type BatchEdit struct {
	Name         *string
	SalePrice    *types.Money
	Requirements []production.Requirement
	ProducedQty  *int64
	Multiplier   *int64
	DeductStock  *bool
}

func (e BatchEdit) changesComposition() bool {
	return e.Requirements != nil || e.ProducedQty != nil || e.Multiplier != nil || e.DeductStock != nil
}

// ProduceBatch records a production run, consuming its ingredients when
// DeductStock is set, and adds its output to finished goods. Every
// ingredient is checked before any lot is touched.
func (l *Larder) ProduceBatch(ctx context.Context, in ProduceInput) (*production.Batch, error) {
	var out *production.Batch

	err := l.mutate(ctx, "produce batch", func(t *tx) error {
		b, err := l.produce(t, in, id.NewBatchID(), t.now)
		if err != nil {
			return err
		}

		out = b.Clone()
		snap := b.Clone()
		t.after(func(ctx context.Context) {
			l.plugins.EmitBatchProduced(ctx, snap)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Debug("batch produced",
		"batch_id", out.ID.String(),
		"produced", out.Produced,
		"cost", out.CostTotal.String(),
	)

	return out, nil
}

// RollbackBatch reverses a batch: its recorded breakdowns are restored to
// the lots (recreating archived ones) and its output is withdrawn from
// finished goods. A batch in use cannot be rolled back.
func (l *Larder) RollbackBatch(ctx context.Context, batchID id.BatchID) error {
	return l.mutate(ctx, "rollback batch", func(t *tx) error {
		b, err := t.batch(batchID)
		if err != nil {
			return err
		}

		if err := l.rollback(t, b); err != nil {
			return err
		}

		snap := b.Clone()
		t.after(func(ctx context.Context) {
			l.plugins.EmitBatchRolledBack(ctx, snap)
		})

		return nil
	})
}

// EditBatch changes a recorded batch. A composition change rolls the batch
// back and produces it again in one step, keeping its id and creation
// time; it fails with ErrBatchInUse once some output has left inventory.
func (l *Larder) EditBatch(ctx context.Context, batchID id.BatchID, e BatchEdit) (*production.Batch, error) {
	var out *production.Batch

	err := l.mutate(ctx, "edit batch", func(t *tx) error {
		b, err := t.batch(batchID)
		if err != nil {
			return err
		}
		prev := b.Clone()

		if !e.changesComposition() {
			if e.Name != nil {
				name := strings.TrimSpace(*e.Name)
				if name == "" {
					return ValidationError{Field: "name", Message: "is required"}
				}
				b.Name = name
			}
			if e.SalePrice != nil {
				if e.SalePrice.IsNegative() {
					return ValidationError{Field: "sale_price", Message: "must not be negative"}
				}
				b.SalePrice = *e.SalePrice
			}
			b.Touch(t.now)

			out = b.Clone()
		} else {
			if b.InUse() {
				return fmt.Errorf("%w: %s has %d of %d units left",
					ErrBatchInUse, b.Name, b.Remaining, b.Produced)
			}

			in := editedInput(prev, e)
			if err := l.rollback(t, b); err != nil {
				return err
			}

			nb, err := l.produce(t, in, prev.ID, prev.CreatedAt)
			if err != nil {
				return err
			}
			out = nb.Clone()
		}

		updated := out.Clone()
		t.after(func(ctx context.Context) {
			l.plugins.EmitBatchEdited(ctx, prev, updated)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Batch returns a copy of the batch.
func (l *Larder) Batch(batchID id.BatchID) (*production.Batch, error) {
	var (
		out *production.Batch
		err error
	)

	l.read(func(st *state) {
		b, ok := st.batches[batchID]
		if !ok {
			err = fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
			return
		}
		out = b.Clone()
	})

	return out, err
}

// Batches returns copies of every batch, newest first.
func (l *Larder) Batches() []*production.Batch {
	var out []*production.Batch

	l.read(func(st *state) {
		out = make([]*production.Batch, 0, len(st.batches))
		for _, b := range st.batches {
			out = append(out, b.Clone())
		}
	})

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Compare(out[j].ID) > 0
	})

	return out
}

// Capacity is the number of finished units the batch's recipe could still
// yield from the stock available now.
func (l *Larder) Capacity(batchID id.BatchID) (int64, error) {
	var (
		units int64
		err   error
	)

	l.read(func(st *state) {
		b, ok := st.batches[batchID]
		if !ok {
			err = fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
			return
		}
		units = production.Capacity(b, func(ingID id.IngredientID) (decimal.Decimal, bool) {
			ing, ok := st.ingredients[ingID]
			if !ok {
				return decimal.Zero, false
			}
			return ing.Available(), true
		})
	})

	return units, err
}

// produce runs a batch inside t under the given id.
func (l *Larder) produce(t *tx, in ProduceInput, batchID id.BatchID, created time.Time) (*production.Batch, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ValidationError{Field: "name", Message: "is required"}
	}
	if in.ProducedQty <= 0 {
		return nil, ValidationError{Field: "produced_qty", Message: "must be positive", Err: ErrInvalidQuantity}
	}
	if in.SalePrice.IsNegative() {
		return nil, ValidationError{Field: "sale_price", Message: "must not be negative"}
	}

	mult := in.Multiplier
	if mult == 0 {
		mult = 1
	}
	if mult < 0 {
		return nil, ValidationError{Field: "multiplier", Message: "must be positive", Err: ErrInvalidQuantity}
	}
	if in.ProducedQty > math.MaxInt64/mult {
		return nil, ValidationError{Field: "multiplier", Message: "produced quantity overflows", Err: ErrInvalidQuantity}
	}

	resolved, err := production.Resolve(in.Requirements, func(ingID id.IngredientID) (string, types.BaseUnit, error) {
		ing, err := t.peek(ingID)
		if err != nil {
			return "", "", err
		}
		return ing.Name, ing.BaseUnit, nil
	})
	if err != nil {
		return nil, err
	}

	runs := decimal.NewFromInt(mult)

	if in.DeductStock {
		for _, r := range resolved {
			ing, _ := t.peek(r.IngredientID) //nolint:errcheck // resolved above
			if err := stock.Check(ing, r.PerRun.Mul(runs), l.allowNegative); err != nil {
				return nil, err
			}
		}
	}

	b := &production.Batch{
		ID:             batchID,
		Name:           name,
		SalePrice:      in.SalePrice,
		ProducedPerRun: in.ProducedQty,
		Multiplier:     mult,
		Produced:       in.ProducedQty * mult,
		DeductStock:    in.DeductStock,
		Entity:         types.NewEntity(created),
	}
	b.Touch(t.now)
	b.Remaining = b.Produced

	reason := "production: " + name
	total := types.ZeroMoney

	for _, r := range resolved {
		line := production.Line{
			IngredientID:    r.IngredientID,
			Name:            r.Name,
			QuantityEntered: r.Quantity,
			UnitEntered:     r.Unit,
			PerRun:          r.PerRun,
			Quantity:        r.PerRun.Mul(runs),
		}

		if in.DeductStock {
			ing, err := t.ingredient(r.IngredientID)
			if err != nil {
				return nil, err
			}

			c, err := stock.Consume(ing, line.Quantity, l.allowNegative, t.now)
			if err != nil {
				return nil, err
			}
			ing.Touch(t.now)

			for _, d := range c.Breakdown {
				t.record(movement.New(t.now, ing.ID, d.LotID,
					d.Quantity.Neg(), d.Cost().Neg(), reason,
					movement.Consume{BatchID: batchID}))
			}

			line.Cost = c.Cost
			line.Breakdown = c.Breakdown

			snap, cons := ing.Clone(), cloneConsumption(c)
			t.after(func(ctx context.Context) {
				l.plugins.EmitStockConsumed(ctx, snap, movement.KindConsume, cons)
			})
		} else {
			ing, _ := t.peek(r.IngredientID) //nolint:errcheck // resolved above
			line.Cost = stock.Estimate(ing, line.Quantity)
		}

		total = total.Add(line.Cost)
		b.Lines = append(b.Lines, line)
	}

	b.CostTotal = total
	b.CostPerUnit = total.DivInt(b.Produced)

	t.finished.Add(b.Produced, total)
	t.putBatch(b)

	return b, nil
}

// rollback reverses b inside t and removes it.
func (l *Larder) rollback(t *tx, b *production.Batch) error {
	if b.InUse() {
		return fmt.Errorf("%w: %s has %d of %d units left",
			ErrBatchInUse, b.Name, b.Remaining, b.Produced)
	}

	if b.DeductStock {
		reason := "rollback: " + b.Name

		for _, line := range b.Lines {
			if len(line.Breakdown) == 0 {
				continue
			}

			ing, err := t.ingredient(line.IngredientID)
			if err != nil {
				return err
			}

			applied, err := stock.Restore(ing, line.Breakdown, t.now)
			if err != nil {
				return fmt.Errorf("restore %s: %w", line.Name, err)
			}
			ing.Touch(t.now)

			for _, d := range applied {
				t.record(movement.New(t.now, ing.ID, d.LotID,
					d.Quantity, d.Cost(), reason,
					movement.Consume{BatchID: b.ID, Reversal: true}))
			}
		}
	}

	t.finished.Withdraw(b.Produced, b.CostTotal)
	t.removeBatch(b.ID)

	return nil
}

func editedInput(b *production.Batch, e BatchEdit) ProduceInput {
	in := ProduceInput{
		Name:        b.Name,
		SalePrice:   b.SalePrice,
		ProducedQty: b.ProducedPerRun,
		Multiplier:  b.Multiplier,
		DeductStock: b.DeductStock,
	}

	if e.Name != nil {
		in.Name = *e.Name
	}
	if e.SalePrice != nil {
		in.SalePrice = *e.SalePrice
	}
	if e.ProducedQty != nil {
		in.ProducedQty = *e.ProducedQty
	}
	if e.Multiplier != nil {
		in.Multiplier = *e.Multiplier
	}
	if e.DeductStock != nil {
		in.DeductStock = *e.DeductStock
	}

	if e.Requirements != nil {
		in.Requirements = e.Requirements
	} else {
		in.Requirements = make([]production.Requirement, 0, len(b.Lines))
		for _, line := range b.Lines {
			in.Requirements = append(in.Requirements, production.Requirement{
				IngredientID: line.IngredientID,
				Quantity:     line.QuantityEntered,
				Unit:         line.UnitEntered,
			})
		}
	}

	return in
}
