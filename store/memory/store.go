// Package memory is an in-process snapshot store, used for tests and for
// hosts that persist nothing.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xraph/larder"
	"github.com/xraph/larder/snapshot"
	"github.com/xraph/larder/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps encoded snapshots in a map, so a loaded snapshot never
// shares memory with the ledger that saved it.
type Store struct {
	mu sync.RWMutex

	snapshots map[string][]byte
	closed    bool
}

// New returns an empty store.
func New() *Store {
	return &Store{
		snapshots: make(map[string][]byte),
	}
}

// LoadSnapshot decodes the snapshot saved for profile.
func (s *Store) LoadSnapshot(_ context.Context, profile string) (*snapshot.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, larder.ErrStoreClosed
	}

	data, ok := s.snapshots[profile]
	if !ok {
		return nil, fmt.Errorf("%w: %s", larder.ErrProfileNotFound, profile)
	}

	return snapshot.Decode(data)
}

// SaveSnapshot replaces the snapshot stored under s.Profile.
func (s *Store) SaveSnapshot(_ context.Context, snap *snapshot.Snapshot) error {
	data, err := snapshot.Encode(snap)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return larder.ErrStoreClosed
	}
	s.snapshots[snap.Profile] = data

	return nil
}

// Put stores raw snapshot bytes, which may be of an older version.
func (s *Store) Put(profile string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[profile] = append([]byte(nil), data...)
}

// DeleteSnapshot removes the profile's snapshot.
func (s *Store) DeleteSnapshot(_ context.Context, profile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return larder.ErrStoreClosed
	}
	if _, ok := s.snapshots[profile]; !ok {
		return fmt.Errorf("%w: %s", larder.ErrProfileNotFound, profile)
	}
	delete(s.snapshots, profile)

	return nil
}

// ListProfiles returns the stored profiles, sorted.
func (s *Store) ListProfiles(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, larder.ErrStoreClosed
	}

	out := make([]string, 0, len(s.snapshots))
	for p := range s.snapshots {
		out = append(out, p)
	}
	sort.Strings(out)

	return out, nil
}

// Migrate is a no-op.
func (s *Store) Migrate(_ context.Context) error {
	return nil
}

// Ping reports whether the store is open.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return larder.ErrStoreClosed
	}

	return nil
}

// Close marks the store closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true

	return nil
}
