// Package mongo stores ledger snapshots in MongoDB through grove.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/larder"
	"github.com/xraph/larder/snapshot"
	larderstore "github.com/xraph/larder/store"
)

// Collection name constants.
const (
	colSnapshots = "larder_snapshots"
)

// compile-time interface check
var _ larderstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Open connects to MongoDB at uri, whose path names the database.
func Open(ctx context.Context, uri string) (*Store, error) {
	mdb := mongodriver.New()
	if err := mdb.Open(ctx, uri); err != nil {
		return nil, fmt.Errorf("larder/mongo: open: %w", err)
	}

	db, err := grove.Open(mdb)
	if err != nil {
		_ = mdb.Close()
		return nil, fmt.Errorf("larder/mongo: %w", err)
	}

	return New(db), nil
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for the larder collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("larder/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("%w: larder/mongo: %w", larder.ErrStoreNotReady, err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadSnapshot reads and decodes the profile's snapshot.
func (s *Store) LoadSnapshot(ctx context.Context, profile string) (*snapshot.Snapshot, error) {
	var m snapshotModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": profile}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("%w: %s", larder.ErrProfileNotFound, profile)
		}
		return nil, fmt.Errorf("larder/mongo: load %s: %w", profile, err)
	}
	return fromSnapshotModel(&m)
}

// SaveSnapshot replaces the profile's document in a single upsert.
func (s *Store) SaveSnapshot(ctx context.Context, snap *snapshot.Snapshot) error {
	m, err := toSnapshotModel(snap)
	if err != nil {
		return err
	}

	_, err = s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Profile}).
		Set("version", m.Version).
		Set("payload", m.Payload).
		Set("saved_at", m.SavedAt).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("larder/mongo: save %s: %w", snap.Profile, err)
	}
	return nil
}

// DeleteSnapshot removes the profile's document.
func (s *Store) DeleteSnapshot(ctx context.Context, profile string) error {
	res, err := s.mdb.NewDelete((*snapshotModel)(nil)).
		Filter(bson.M{"_id": profile}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("larder/mongo: delete %s: %w", profile, err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("%w: %s", larder.ErrProfileNotFound, profile)
	}
	return nil
}

// ListProfiles returns every stored profile, sorted.
func (s *Store) ListProfiles(ctx context.Context) ([]string, error) {
	var models []snapshotModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Project(bson.M{"_id": 1}).
		Sort(bson.D{{Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("larder/mongo: list profiles: %w", err)
	}

	out := make([]string, len(models))
	for i, m := range models {
		out[i] = m.Profile
	}
	return out, nil
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for the larder collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colSnapshots: {
			{Keys: bson.D{{Key: "saved_at", Value: -1}}},
			{
				Keys:    bson.D{{Key: "version", Value: 1}},
				Options: options.Index().SetName("larder_snapshots_version"),
			},
		},
	}
}
