// Package snapshot defines the persisted form of a ledger and the
// migrations that bring older shapes up to the current version.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/larder/finished"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/movement"
	"github.com/xraph/larder/production"
)

// Version is the current snapshot schema version.
const Version = 4

// ErrUnsupportedSnapshot is returned for a snapshot written by a newer
// schema, or one that cannot be decoded at all.
var ErrUnsupportedSnapshot = errors.New("larder: unsupported snapshot")

// Snapshot is the full state of one profile's ledger.
type Snapshot struct {
	Version     int                      `json:"version"`
	Profile     string                   `json:"profile"`
	SavedAt     time.Time                `json:"saved_at"`
	Ingredients []*ingredient.Ingredient `json:"ingredients"`
	Movements   []*movement.Movement     `json:"movements"`
	Batches     []*production.Batch      `json:"batches"`
	Finished    finished.Pool            `json:"finished"`
}

// Encode serializes s at the current version.
func Encode(s *Snapshot) ([]byte, error) {
	s.Version = Version

	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode: %w", err)
	}

	return data, nil
}

// Decode parses a snapshot of any known version, migrating it to the
// current version first.
func Decode(data []byte) (*Snapshot, error) {
	var head struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedSnapshot, err)
	}

	if head.Version > Version {
		return nil, fmt.Errorf("%w: version %d is newer than %d", ErrUnsupportedSnapshot, head.Version, Version)
	}

	data, err := migrate(data, head.Version)
	if err != nil {
		return nil, err
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}

	return &s, nil
}
