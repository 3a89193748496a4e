package search

import (
	"context"

	"github.com/google/uuid"
)

// Index is the local full-text index the sync layer keeps consistent.
// Implementations receive note ids, not content; they load whatever they
// need themselves.
type Index interface {
	Reindex(ctx context.Context, noteIds []uuid.UUID) error
	Remove(ctx context.Context, noteIds []uuid.UUID) error
}

// NoopIndex is used when no index backend is configured.
type NoopIndex struct{}

func (NoopIndex) Reindex(ctx context.Context, noteIds []uuid.UUID) error { return nil }
func (NoopIndex) Remove(ctx context.Context, noteIds []uuid.UUID) error  { return nil }
