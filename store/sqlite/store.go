// Package sqlite stores ledger snapshots in SQLite through grove.
package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	_ "github.com/xraph/grove/drivers/sqlitedriver/sqlitemigrate" // registers the sqlite migration executor
	"github.com/xraph/grove/migrate"

	"github.com/xraph/larder"
	"github.com/xraph/larder/snapshot"
	larderstore "github.com/xraph/larder/store"
)

// compile-time interface check
var _ larderstore.Store = (*Store)(nil)

type snapshotModel struct {
	grove.BaseModel `grove:"table:larder_snapshots"`

	Profile string `grove:"profile,pk"`
	Version int    `grove:"version"`
	Payload string `grove:"payload"`
	SavedAt string `grove:"saved_at"`
}

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// Open connects to the SQLite database at dsn and returns a store for it.
func Open(ctx context.Context, dsn string) (*Store, error) {
	sdb := sqlitedriver.New()
	if err := sdb.Open(ctx, dsn); err != nil {
		return nil, fmt.Errorf("larder/sqlite: open %s: %w", dsn, err)
	}

	db, err := grove.Open(sdb)
	if err != nil {
		_ = sdb.Close()
		return nil, fmt.Errorf("larder/sqlite: %w", err)
	}

	return New(db), nil
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("larder/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("larder/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("%w: larder/sqlite: %w", larder.ErrStoreNotReady, err)
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
	err := s.sdb.NewSelect(&models).
		Where("profile = ?", profile).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("larder/sqlite: load %s: %w", profile, err)
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("%w: %s", larder.ErrProfileNotFound, profile)
	}

	return snapshot.Decode([]byte(models[0].Payload))
}

// SaveSnapshot upserts the snapshot in a single statement.
func (s *Store) SaveSnapshot(ctx context.Context, snap *snapshot.Snapshot) error {
	data, err := snapshot.Encode(snap)
	if err != nil {
		return err
	}

	m := &snapshotModel{
		Profile: snap.Profile,
		Version: snap.Version,
		Payload: string(data),
		SavedAt: snap.SavedAt.UTC().Format(time.RFC3339Nano),
	}
	_, err = s.sdb.NewInsert(m).
		OnConflict("(profile) DO UPDATE").
		Set("version = EXCLUDED.version").
		Set("payload = EXCLUDED.payload").
		Set("saved_at = EXCLUDED.saved_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("larder/sqlite: save %s: %w", snap.Profile, err)
	}
	return nil
}

// DeleteSnapshot removes the profile's snapshot.
func (s *Store) DeleteSnapshot(ctx context.Context, profile string) error {
	res, err := s.sdb.NewDelete((*snapshotModel)(nil)).
		Where("profile = ?", profile).
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
	err := s.sdb.NewSelect(&models).
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
