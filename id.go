package syncengine

import "github.com/xraph/syncengine/id"

// ID is the primary identifier type for all syncengine entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
