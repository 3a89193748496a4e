package contract

import (
	"context"

	"github.com/google/uuid"
)

// HardDeleteRepository is the durable tombstone queue. Enqueue and Remove
// are idempotent: re-adding a queued id or removing an absent one is a
// no-op, so a retried round cannot corrupt the queue.
type HardDeleteRepository interface {
	Enqueue(ctx context.Context, userId uuid.UUID, entityType string, ids []uuid.UUID) error
	List(ctx context.Context, userId uuid.UUID, entityType string) ([]uuid.UUID, error)
	Remove(ctx context.Context, userId uuid.UUID, entityType string, ids []uuid.UUID) error
}
