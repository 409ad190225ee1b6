package larder

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/xraph/larder/finished"
	"github.com/xraph/larder/id"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/production"
)

// tx is a copy-on-write view of the state used by a single operation.
// Maps are shallow copies; an ingredient or batch is cloned the first
// time the operation asks to change it.
type tx struct {
	base *state
	now  time.Time

	ingredients map[id.IngredientID]*ingredient.Ingredient
	batches     map[id.BatchID]*production.Batch
	finished    finished.Pool

	ownIngredients map[id.IngredientID]bool
	ownBatches     map[id.BatchID]bool

	movements []*movement.Movement
	events    []func(ctx context.Context)
}

func begin(base *state, now time.Time) *tx {
	return &tx{
		base:           base,
		now:            now,
		ingredients:    maps.Clone(base.ingredients),
		batches:        maps.Clone(base.batches),
		finished:       base.finished,
		ownIngredients: make(map[id.IngredientID]bool),
		ownBatches:     make(map[id.BatchID]bool),
	}
}

// peek returns an ingredient for reading only.
func (t *tx) peek(ingID id.IngredientID) (*ingredient.Ingredient, error) {
	ing, ok := t.ingredients[ingID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIngredientNotFound, ingID)
	}

	return ing, nil
}

// ingredient returns a writable ingredient.
func (t *tx) ingredient(ingID id.IngredientID) (*ingredient.Ingredient, error) {
	ing, err := t.peek(ingID)
	if err != nil {
		return nil, err
	}
	if !t.ownIngredients[ingID] {
		ing = ing.Clone()
		t.ingredients[ingID] = ing
		t.ownIngredients[ingID] = true
	}

	return ing, nil
}

func (t *tx) putIngredient(ing *ingredient.Ingredient) {
	t.ingredients[ing.ID] = ing
	t.ownIngredients[ing.ID] = true
}

func (t *tx) removeIngredient(ingID id.IngredientID) {
	delete(t.ingredients, ingID)
	delete(t.ownIngredients, ingID)
}

// batch returns a writable batch.
func (t *tx) batch(batchID id.BatchID) (*production.Batch, error) {
	b, ok := t.batches[batchID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
	}
	if !t.ownBatches[batchID] {
		b = b.Clone()
		t.batches[batchID] = b
		t.ownBatches[batchID] = true
	}

	return b, nil
}

func (t *tx) putBatch(b *production.Batch) {
	t.batches[b.ID] = b
	t.ownBatches[b.ID] = true
}

func (t *tx) removeBatch(batchID id.BatchID) {
	delete(t.batches, batchID)
	delete(t.ownBatches, batchID)
}

// record appends movements to the pending journal entries.
func (t *tx) record(ms ...*movement.Movement) {
	t.movements = append(t.movements, ms...)
}

// after queues a plugin notification to run once the state is committed.
func (t *tx) after(fn func(ctx context.Context)) {
	t.events = append(t.events, fn)
}

// touched lists the ingredients changed by the operation.
func (t *tx) touched() []id.IngredientID {
	out := make([]id.IngredientID, 0, len(t.ownIngredients))
	for ingID := range t.ownIngredients {
		out = append(out, ingID)
	}

	return out
}

// commit builds the next state.
func (t *tx) commit() *state {
	journal := t.base.journal
	if len(t.movements) > 0 {
		journal = journal.Extend(t.movements...)
	}

	return &state{
		ingredients: t.ingredients,
		batches:     t.batches,
		journal:     journal,
		finished:    t.finished,
	}
}

// ──────────────────────────────────────────────────
// Mutation pipeline
// ──────────────────────────────────────────────────

// mutate runs fn on a transaction and swaps the result in when fn
// succeeds. With autosave on, the snapshot is persisted before the swap;
// a save failure discards the transaction. Plugin events run after the
// lock is released.
func (l *Larder) mutate(ctx context.Context, op string, fn func(t *tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t, next, profile, saved, err := l.apply(ctx, op, fn)
	if err != nil {
		return err
	}

	for _, ev := range t.events {
		ev(ctx)
	}

	if l.autoSave {
		l.plugins.EmitSnapshotSaved(ctx, profile, saved)
	}

	for _, ingID := range t.touched() {
		ing, ok := next.ingredients[ingID]
		if !ok {
			continue
		}
		if h := ingredient.Assess(ing, t.now); h.Status == ingredient.Red {
			l.plugins.EmitLowStock(ctx, h)
		}
	}

	return nil
}

// apply runs fn and commits its result under the write lock. The lock is
// released on every path, a panic in fn or in the store included.
func (l *Larder) apply(ctx context.Context, op string, fn func(t *tx) error) (*tx, *state, string, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := begin(l.st, l.now())
	if err := fn(t); err != nil {
		l.logger.Debug("larder operation rejected", "op", op, "error", err)
		return nil, nil, "", 0, err
	}

	next := t.commit()

	var saved time.Duration
	if l.autoSave {
		start := time.Now()
		if err := l.persist(ctx, l.profile, next, t.now); err != nil {
			l.logger.Error("snapshot save failed", "op", op, "profile", l.profile, "error", err)
			return nil, nil, "", 0, fmt.Errorf("larder: %s: %w", op, err)
		}
		saved = time.Since(start)
	}

	l.st = next

	return t, next, l.profile, saved, nil
}

// read runs fn under the read lock.
func (l *Larder) read(fn func(st *state)) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	fn(l.st)
}
