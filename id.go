package larder

import "github.com/xraph/larder/id"

// ID is the primary identifier type for all Larder entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
