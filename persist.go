package larder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/xraph/larder/id"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/production"
	"github.com/xraph/larder/snapshot"
)

// Load replaces the ledger with the snapshot stored for profile and makes
// it the active profile. A profile with no snapshot starts empty. The swap
// is atomic: queries see either the old ledger or the new one.
func (l *Larder) Load(ctx context.Context, profile string) error {
	if profile == "" {
		return ValidationError{Field: "profile", Message: "is required"}
	}

	start := time.Now()

	next := newState()
	s, err := l.store.LoadSnapshot(ctx, profile)
	switch {
	case errors.Is(err, ErrProfileNotFound):
		l.logger.Debug("no snapshot for profile, starting empty", "profile", profile)
	case err != nil:
		return fmt.Errorf("larder: load %s: %w", profile, err)
	default:
		next = fromSnapshot(s)
	}

	l.mu.Lock()
	l.st = next
	l.profile = profile
	l.mu.Unlock()

	elapsed := time.Since(start)
	l.logger.Debug("snapshot loaded",
		"profile", profile,
		"ingredients", len(next.ingredients),
		"movements", next.journal.Len(),
		"elapsed_ms", elapsed.Milliseconds(),
	)
	l.plugins.EmitSnapshotLoaded(ctx, profile, elapsed)

	return nil
}

// Save persists the current ledger under the active profile.
func (l *Larder) Save(ctx context.Context) error {
	var (
		st      *state
		profile string
	)

	l.mu.RLock()
	st, profile = l.st, l.profile
	l.mu.RUnlock()

	start := time.Now()
	if err := l.persist(ctx, profile, st, l.now()); err != nil {
		l.logger.Error("snapshot save failed", "profile", profile, "error", err)
		return fmt.Errorf("larder: save %s: %w", profile, err)
	}

	elapsed := time.Since(start)
	l.plugins.EmitSnapshotSaved(ctx, profile, elapsed)

	return nil
}

// Profiles lists the profiles with a stored snapshot.
func (l *Larder) Profiles(ctx context.Context) ([]string, error) {
	return l.store.ListProfiles(ctx)
}

// Snapshot returns the current ledger in its persisted form.
func (l *Larder) Snapshot() *snapshot.Snapshot {
	var (
		st      *state
		profile string
	)

	l.mu.RLock()
	st, profile = l.st, l.profile
	l.mu.RUnlock()

	return toSnapshot(profile, st, l.now())
}

func (l *Larder) persist(ctx context.Context, profile string, st *state, now time.Time) error {
	start := time.Now()

	if err := l.store.SaveSnapshot(ctx, toSnapshot(profile, st, now)); err != nil {
		return err
	}

	l.logger.Debug("snapshot saved",
		"profile", profile,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// toSnapshot copies st into its persisted form with a stable ordering.
func toSnapshot(profile string, st *state, now time.Time) *snapshot.Snapshot {
	s := &snapshot.Snapshot{
		Version:     snapshot.Version,
		Profile:     profile,
		SavedAt:     now.UTC(),
		Ingredients: make([]*ingredient.Ingredient, 0, len(st.ingredients)),
		Movements:   st.journal.All(),
		Batches:     make([]*production.Batch, 0, len(st.batches)),
		Finished:    st.finished,
	}

	for _, ing := range st.ingredients {
		s.Ingredients = append(s.Ingredients, ing.Clone())
	}
	sort.Slice(s.Ingredients, func(i, j int) bool {
		return s.Ingredients[i].ID.Compare(s.Ingredients[j].ID) < 0
	})

	for _, b := range st.batches {
		s.Batches = append(s.Batches, b.Clone())
	}
	sort.Slice(s.Batches, func(i, j int) bool {
		return s.Batches[i].ID.Compare(s.Batches[j].ID) < 0
	})

	return s
}

func fromSnapshot(s *snapshot.Snapshot) *state {
	st := &state{
		ingredients: make(map[id.IngredientID]*ingredient.Ingredient, len(s.Ingredients)),
		batches:     make(map[id.BatchID]*production.Batch, len(s.Batches)),
		journal:     movement.NewJournal(s.Movements...),
		finished:    s.Finished,
	}

	for _, ing := range s.Ingredients {
		if ing != nil {
			st.ingredients[ing.ID] = ing
		}
	}
	for _, b := range s.Batches {
		if b != nil {
			st.batches[b.ID] = b
		}
	}

	return st
}
