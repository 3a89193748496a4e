package contract

import (
	"context"

	"notesync/internal/entity"

	"github.com/google/uuid"
)

type SyncStateRepository interface {
	// Get returns the user's sync state, or nil if the user never synced.
	Get(ctx context.Context, userId uuid.UUID) (*entity.SyncState, error)
	Save(ctx context.Context, state *entity.SyncState) error
}
