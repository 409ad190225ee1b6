package postgres

import (
	"encoding/json"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/larder/snapshot"
)

type snapshotModel struct {
	grove.BaseModel `grove:"table:larder_snapshots"`

	Profile string          `grove:"profile,pk"`
	Version int             `grove:"version"`
	Payload json.RawMessage `grove:"payload,type:jsonb"`
	SavedAt time.Time       `grove:"saved_at"`
}

func toSnapshotModel(s *snapshot.Snapshot) (*snapshotModel, error) {
	data, err := snapshot.Encode(s)
	if err != nil {
		return nil, err
	}

	savedAt := s.SavedAt.UTC()
	if savedAt.IsZero() {
		savedAt = now()
	}

	return &snapshotModel{
		Profile: s.Profile,
		Version: s.Version,
		Payload: data,
		SavedAt: savedAt,
	}, nil
}

func fromSnapshotModel(m *snapshotModel) (*snapshot.Snapshot, error) {
	return snapshot.Decode(m.Payload)
}
