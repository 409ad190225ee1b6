package types

import "time"

// Entity carries creation and modification timestamps. Embed it in
// domain types that are edited over their lifetime.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity creates a new Entity stamped at now.
func NewEntity(now time.Time) Entity {
	now = now.UTC()
	return Entity{
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch sets UpdatedAt to now.
func (e *Entity) Touch(now time.Time) {
	e.UpdatedAt = now.UTC()
}

// Age returns how long before now the entity was created.
func (e Entity) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}

// IsStale reports whether the entity has not been updated within d.
func (e Entity) IsStale(now time.Time, d time.Duration) bool {
	return now.Sub(e.UpdatedAt) > d
}
