package storage

import (
	"context"

	"ammcore/internal/model"
)

// Storage defines a sink for engine snapshots. The engine itself is
// in-memory only; durability is entirely the sink's concern.
type Storage interface {
	SaveSnapshot(ctx context.Context, snap model.EngineSnapshot) error
}
