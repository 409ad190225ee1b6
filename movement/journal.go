package movement

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/id"
)

// DefaultAuditLimit is the number of entries in the per-ingredient audit view.
const DefaultAuditLimit = 8

// Journal is an append-only, time-ordered list of movements. Entries are
// never edited or removed; a correction is a new entry.
//
// Journals built by Extend share one backing array. Only the newest
// journal on that array, the tip, may write past its length, so older
// journals never see their entries change.
type Journal struct {
	entries []*Movement
	tip     *tip
}

// tip records how many slots of a backing array are claimed.
type tip struct {
	mu      sync.Mutex
	claimed int
}

// NewJournal builds a journal from existing entries, kept in the given order.
func NewJournal(entries ...*Movement) *Journal {
	out := append([]*Movement(nil), entries...)
	return &Journal{entries: out, tip: &tip{claimed: len(out)}}
}

// Append adds entries to the end of the journal.
func (j *Journal) Append(ms ...*Movement) {
	*j = *j.Extend(ms...)
}

// Extend returns a new journal holding j's entries followed by ms. j is
// not modified. Extending the tip appends in place, so a long-lived
// journal grows in amortized constant time per entry; extending an older
// journal copies it onto a new array.
func (j *Journal) Extend(ms ...*Movement) *Journal {
	if j.tip != nil {
		j.tip.mu.Lock()
		defer j.tip.mu.Unlock()

		if j.tip.claimed == len(j.entries) {
			out := append(j.entries, ms...)
			if cap(out) == cap(j.entries) {
				j.tip.claimed = len(out)
				return &Journal{entries: out, tip: j.tip}
			}
			// append moved to a new array
			return &Journal{entries: out, tip: &tip{claimed: len(out)}}
		}
	}

	out := make([]*Movement, 0, len(j.entries)+len(ms))
	out = append(out, j.entries...)
	out = append(out, ms...)

	return &Journal{entries: out, tip: &tip{claimed: len(out)}}
}

// Len returns the number of entries.
func (j *Journal) Len() int { return len(j.entries) }

// All returns every entry, oldest first.
func (j *Journal) All() []*Movement {
	return append([]*Movement(nil), j.entries...)
}

// ForIngredient returns up to limit entries for the ingredient, most
// recent first. A limit of zero or less means DefaultAuditLimit.
func (j *Journal) ForIngredient(ingID id.IngredientID, limit int) []*Movement {
	if limit <= 0 {
		limit = DefaultAuditLimit
	}

	var out []*Movement
	for i := len(j.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if j.entries[i].IngredientID == ingID {
			out = append(out, j.entries[i])
		}
	}

	return out
}

// ForBatch returns the entries linked to a production batch, oldest first.
func (j *Journal) ForBatch(batchID id.BatchID) []*Movement {
	var out []*Movement
	for _, m := range j.entries {
		if b, ok := m.BatchID(); ok && b == batchID {
			out = append(out, m)
		}
	}

	return out
}

// Between returns entries with from <= At < to, ordered by time. A zero
// bound is open.
func (j *Journal) Between(from, to time.Time) []*Movement {
	var out []*Movement
	for _, m := range j.entries {
		if !from.IsZero() && m.At.Before(from) {
			continue
		}
		if !to.IsZero() && !m.At.Before(to) {
			continue
		}
		out = append(out, m)
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].At.Before(out[b].At) })

	return out
}

// Net sums the signed quantity of every entry for the ingredient.
func (j *Journal) Net(ingID id.IngredientID) decimal.Decimal {
	total := decimal.Zero
	for _, m := range j.entries {
		if m.IngredientID == ingID {
			total = total.Add(m.Quantity)
		}
	}

	return total
}
