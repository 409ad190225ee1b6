// Package store defines the persistence contract for Larder: whole-ledger
// snapshots keyed by profile.
package store

import (
	"context"

	"github.com/xraph/larder/snapshot"
)

// Store persists ledger snapshots. SaveSnapshot must replace the stored
// snapshot atomically: a concurrent or later LoadSnapshot sees either the
// previous snapshot or the new one, never a mix.
type Store interface {
	// LoadSnapshot returns the snapshot saved for profile, or an error
	// matching larder.ErrProfileNotFound.
	LoadSnapshot(ctx context.Context, profile string) (*snapshot.Snapshot, error)

	// SaveSnapshot writes s under s.Profile, replacing any previous one.
	SaveSnapshot(ctx context.Context, s *snapshot.Snapshot) error

	// DeleteSnapshot removes the profile's snapshot.
	DeleteSnapshot(ctx context.Context, profile string) error

	// ListProfiles returns every profile with a stored snapshot, sorted.
	ListProfiles(ctx context.Context) ([]string, error)

	// Migrate prepares the backend schema.
	Migrate(ctx context.Context) error

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Close releases the backend.
	Close() error
}
