// Package redis stores ledger snapshots in Redis. Each profile is a hash
// holding the encoded snapshot; saves are serialized across processes by
// a per-profile lock.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/xraph/larder"
	"github.com/xraph/larder/snapshot"
	larderstore "github.com/xraph/larder/store"
)

// Defaults for key layout and locking.
const (
	DefaultPrefix  = "larder"
	DefaultLockTTL = 30 * time.Second
)

// compile-time interface check
var _ larderstore.Store = (*Store)(nil)

// Store implements store.Store on a Redis client.
type Store struct {
	rdb     *redis.Client
	locker  *redislock.Client
	prefix  string
	lockTTL time.Duration
}

// Option configures the store.
type Option func(*Store)

// WithPrefix sets the key prefix (default "larder").
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithLockTTL sets how long a save may hold the profile lock.
func WithLockTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockTTL = d
		}
	}
}

// New creates a store on an existing client.
func New(rdb *redis.Client, opts ...Option) *Store {
	s := &Store{
		rdb:     rdb,
		locker:  redislock.New(rdb),
		prefix:  DefaultPrefix,
		lockTTL: DefaultLockTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects to the Redis server at addr.
func Open(ctx context.Context, addr string, opts ...Option) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("larder/redis: connect %s: %w", addr, err)
	}
	return New(rdb, opts...), nil
}

// Client returns the underlying client.
func (s *Store) Client() *redis.Client { return s.rdb }

func (s *Store) snapshotKey(profile string) string {
	return s.prefix + ":snapshot:" + profile
}

func (s *Store) profilesKey() string {
	return s.prefix + ":profiles"
}

func (s *Store) lockKey(profile string) string {
	return s.prefix + ":lock:" + profile
}

// LoadSnapshot reads and decodes the profile's snapshot.
func (s *Store) LoadSnapshot(ctx context.Context, profile string) (*snapshot.Snapshot, error) {
	data, err := s.rdb.HGet(ctx, s.snapshotKey(profile), "payload").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", larder.ErrProfileNotFound, profile)
		}
		return nil, fmt.Errorf("larder/redis: load %s: %w", profile, err)
	}
	return snapshot.Decode(data)
}

// SaveSnapshot writes the snapshot under the profile lock in one MULTI
// block. A save that cannot take the lock fails with ErrProfileLocked.
func (s *Store) SaveSnapshot(ctx context.Context, snap *snapshot.Snapshot) error {
	data, err := snapshot.Encode(snap)
	if err != nil {
		return err
	}

	lock, err := s.locker.Obtain(ctx, s.lockKey(snap.Profile), s.lockTTL, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return fmt.Errorf("%w: %s", larder.ErrProfileLocked, snap.Profile)
	} else if err != nil {
		return fmt.Errorf("larder/redis: lock %s: %w", snap.Profile, err)
	}
	defer func() {
		_ = lock.Release(ctx)
	}()

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.snapshotKey(snap.Profile),
			"payload", data,
			"version", strconv.Itoa(snap.Version),
			"saved_at", snap.SavedAt.UTC().Format(time.RFC3339Nano),
		)
		pipe.SAdd(ctx, s.profilesKey(), snap.Profile)
		return nil
	})
	if err != nil {
		return fmt.Errorf("larder/redis: save %s: %w", snap.Profile, err)
	}
	return nil
}

// DeleteSnapshot removes the profile's snapshot.
func (s *Store) DeleteSnapshot(ctx context.Context, profile string) error {
	var del *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.snapshotKey(profile))
		pipe.SRem(ctx, s.profilesKey(), profile)
		return nil
	})
	if err != nil {
		return fmt.Errorf("larder/redis: delete %s: %w", profile, err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("%w: %s", larder.ErrProfileNotFound, profile)
	}
	return nil
}

// ListProfiles returns every stored profile, sorted.
func (s *Store) ListProfiles(ctx context.Context) ([]string, error) {
	out, err := s.rdb.SMembers(ctx, s.profilesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("larder/redis: list profiles: %w", err)
	}
	sort.Strings(out)
	return out, nil
}

// Migrate is a no-op; Redis needs no schema.
func (s *Store) Migrate(_ context.Context) error {
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: larder/redis: %w", larder.ErrStoreNotReady, err)
	}
	return nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.rdb.Close()
}
