package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/larder/snapshot"
)

// snapshotModel keeps the encoded snapshot as a string so the document
// stays byte-identical to what the other backends store.
type snapshotModel struct {
	grove.BaseModel `grove:"table:larder_snapshots"`

	Profile string    `grove:"profile,pk" bson:"_id"`
	Version int       `grove:"version"    bson:"version"`
	Payload string    `grove:"payload"    bson:"payload"`
	SavedAt time.Time `grove:"saved_at"   bson:"saved_at"`
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
		Payload: string(data),
		SavedAt: savedAt,
	}, nil
}

func fromSnapshotModel(m *snapshotModel) (*snapshot.Snapshot, error) {
	return snapshot.Decode([]byte(m.Payload))
}
