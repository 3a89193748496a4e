package contract

import (
	"context"

	"notesync/internal/entity"

	"github.com/google/uuid"
)

type SyncConflictRepository interface {
	Create(ctx context.Context, conflict *entity.SyncConflict) error
	ListRecent(ctx context.Context, userId uuid.UUID, limit int) ([]*entity.SyncConflict, error)
}
