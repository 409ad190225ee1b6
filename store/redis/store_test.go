package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xraph/larder"
	"github.com/xraph/larder/snapshot"
)

func TestKeys(t *testing.T) {
	tests := []struct {
		name   string
		opts   []Option
		snap   string
		lock   string
		profiles string
	}{
		{name: "default", snap: "larder:snapshot:bakery", lock: "larder:lock:bakery", profiles: "larder:profiles"},
		{name: "prefixed", opts: []Option{WithPrefix("shop")}, snap: "shop:snapshot:bakery", lock: "shop:lock:bakery", profiles: "shop:profiles"},
		{name: "empty prefix ignored", opts: []Option{WithPrefix("")}, snap: "larder:snapshot:bakery", lock: "larder:lock:bakery", profiles: "larder:profiles"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(redis.NewClient(&redis.Options{Addr: "localhost:0"}), tt.opts...)
			t.Cleanup(func() { _ = s.Close() })

			if got := s.snapshotKey("bakery"); got != tt.snap {
				t.Errorf("snapshotKey = %q, want %q", got, tt.snap)
			}
			if got := s.lockKey("bakery"); got != tt.lock {
				t.Errorf("lockKey = %q, want %q", got, tt.lock)
			}
			if got := s.profilesKey(); got != tt.profiles {
				t.Errorf("profilesKey = %q, want %q", got, tt.profiles)
			}
		})
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()

	addr := os.Getenv("LARDER_REDIS_ADDR")
	if addr == "" {
		t.Skip("LARDER_REDIS_ADDR not set")
	}

	prefix := "larder-test-" + time.Now().UTC().Format("150405.000000000")
	s, err := Open(context.Background(), addr, WithPrefix(prefix), WithLockTTL(2*time.Second))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSnapshotLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	saved := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	if err := s.SaveSnapshot(ctx, &snapshot.Snapshot{Profile: "bakery", SavedAt: saved}); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	got, err := s.LoadSnapshot(ctx, "bakery")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if !got.SavedAt.Equal(saved) {
		t.Errorf("SavedAt = %v, want %v", got.SavedAt, saved)
	}

	profiles, err := s.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("ListProfiles: %v", err)
	}
	if len(profiles) != 1 || profiles[0] != "bakery" {
		t.Errorf("ListProfiles = %v, want [bakery]", profiles)
	}

	if err := s.DeleteSnapshot(ctx, "bakery"); err != nil {
		t.Fatalf("DeleteSnapshot: %v", err)
	}
	if _, err := s.LoadSnapshot(ctx, "bakery"); !errors.Is(err, larder.ErrProfileNotFound) {
		t.Errorf("LoadSnapshot after delete error = %v, want ErrProfileNotFound", err)
	}
}

func TestPingUnreachableIsRetryable(t *testing.T) {
	s := New(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: time.Second}))
	t.Cleanup(func() { _ = s.Close() })

	err := s.Ping(context.Background())
	if !errors.Is(err, larder.ErrStoreNotReady) {
		t.Fatalf("Ping error = %v, want ErrStoreNotReady", err)
	}
	if !larder.IsRetryable(err) {
		t.Error("an unreachable server should be retryable")
	}
}

func TestSaveRefusedWhileLocked(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	lock, err := s.locker.Obtain(ctx, s.lockKey("bakery"), time.Second, nil)
	if err != nil {
		t.Fatalf("Obtain: %v", err)
	}
	defer func() { _ = lock.Release(ctx) }()

	err = s.SaveSnapshot(ctx, &snapshot.Snapshot{Profile: "bakery"})
	if !errors.Is(err, larder.ErrProfileLocked) {
		t.Errorf("SaveSnapshot error = %v, want ErrProfileLocked", err)
	}
	if !larder.IsRetryable(err) {
		t.Error("a locked profile should be retryable")
	}
}
