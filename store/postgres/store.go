// Package postgres stores ledger snapshots in PostgreSQL through grove.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	_ "github.com/xraph/grove/drivers/pgdriver/pgmigrate" // registers the pg migration executor
	"github.com/xraph/grove/migrate"

	"github.com/xraph/larder"
	"github.com/xraph/larder/snapshot"
	larderstore "github.com/xraph/larder/store"
)

// compile-time interface check
var _ larderstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// Open connects to PostgreSQL at dsn and returns a store for it.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pg := pgdriver.New()
	if err := pg.Open(ctx, dsn); err != nil {
		return nil, fmt.Errorf("larder/postgres: open: %w", err)
	}

	db, err := grove.Open(pg)
	if err != nil {
		_ = pg.Close()
		return nil, fmt.Errorf("larder/postgres: %w", err)
	}

	return New(db), nil
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("larder/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("larder/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("%w: larder/postgres: %w", larder.ErrStoreNotReady, err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadSnapshot reads and decodes the profile's snapshot.
func (s *Store) LoadSnapshot(ctx context.Context, profile string) (*snapshot.Snapshot, error) {
	var models []snapshotModel
	err := s.pg.NewSelect(&models).
		Where("profile = $1", profile).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("larder/postgres: load %s: %w", profile, err)
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("%w: %s", larder.ErrProfileNotFound, profile)
	}

	return fromSnapshotModel(&models[0])
}

// SaveSnapshot upserts the snapshot in a single statement.
func (s *Store) SaveSnapshot(ctx context.Context, snap *snapshot.Snapshot) error {
	m, err := toSnapshotModel(snap)
	if err != nil {
		return err
	}

	_, err = s.pg.NewInsert(m).
		OnConflict("(profile) DO UPDATE").
		Set("version = EXCLUDED.version").
		Set("payload = EXCLUDED.payload").
		Set("saved_at = EXCLUDED.saved_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("larder/postgres: save %s: %w", snap.Profile, err)
	}
	return nil
}

// DeleteSnapshot removes the profile's snapshot.
func (s *Store) DeleteSnapshot(ctx context.Context, profile string) error {
	res, err := s.pg.NewDelete((*snapshotModel)(nil)).
		Where("profile = $1", profile).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", larder.ErrProfileNotFound, profile)
	}
	return nil
}

// ListProfiles returns every stored profile, sorted.
func (s *Store) ListProfiles(ctx context.Context) ([]string, error) {
	var models []snapshotModel
	err := s.pg.NewSelect(&models).
		Column("profile").
		OrderExpr("profile ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
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
