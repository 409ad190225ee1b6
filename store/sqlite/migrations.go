package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Larder store (SQLite).
var Migrations = migrate.NewGroup("larder")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_larder_snapshots",
			Version: "20260101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS larder_snapshots (
    profile    TEXT PRIMARY KEY,
    version    INTEGER NOT NULL DEFAULT 0,
    payload    TEXT NOT NULL DEFAULT '{}',
    saved_at   TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS larder_snapshots`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "index_larder_snapshots_saved_at",
			Version: "20260101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE INDEX IF NOT EXISTS idx_larder_snapshots_saved_at ON larder_snapshots (saved_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP INDEX IF EXISTS idx_larder_snapshots_saved_at`)
				return err
			},
		},
	)
}
