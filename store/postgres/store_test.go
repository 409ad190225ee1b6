package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/xraph/larder"
	"github.com/xraph/larder/snapshot"
)

// openTestStore connects to the database named by LARDER_POSTGRES_DSN and
// skips the test when it is unset.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("LARDER_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LARDER_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return s
}

func TestSnapshotLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	profile := "test-" + time.Now().UTC().Format("20060102150405.000000000")
	saved := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	if err := s.SaveSnapshot(ctx, &snapshot.Snapshot{Profile: profile, SavedAt: saved}); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if err := s.SaveSnapshot(ctx, &snapshot.Snapshot{Profile: profile, SavedAt: saved.Add(time.Hour)}); err != nil {
		t.Fatalf("SaveSnapshot (replace): %v", err)
	}

	got, err := s.LoadSnapshot(ctx, profile)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if !got.SavedAt.Equal(saved.Add(time.Hour)) {
		t.Errorf("SavedAt = %v, want the replacing snapshot", got.SavedAt)
	}

	profiles, err := s.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("ListProfiles: %v", err)
	}
	found := false
	for _, p := range profiles {
		found = found || p == profile
	}
	if !found {
		t.Errorf("ListProfiles = %v, missing %s", profiles, profile)
	}

	if err := s.DeleteSnapshot(ctx, profile); err != nil {
		t.Fatalf("DeleteSnapshot: %v", err)
	}
	if _, err := s.LoadSnapshot(ctx, profile); !errors.Is(err, larder.ErrProfileNotFound) {
		t.Errorf("LoadSnapshot after delete error = %v, want ErrProfileNotFound", err)
	}
}
