package contract

import (
	"context"

	"notesync/internal/entity"
	"notesync/internal/repository/specification"

	"github.com/google/uuid"
)

type NoteRepository interface {
	Create(ctx context.Context, note *entity.Note) error
	Update(ctx context.Context, note *entity.Note) error
	// Upsert writes the note idempotently by primary key. The apply engine
	// uses this so re-running the same response is safe.
	Upsert(ctx context.Context, note *entity.Note) error
	// HardDelete removes the row outright, trashed or not.
	HardDelete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Note, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// ReplaceTags rewrites the note's tag membership to exactly tagIds.
	ReplaceTags(ctx context.Context, noteId uuid.UUID, tagIds []uuid.UUID) error
	// TagIds returns the tag membership for each given note.
	TagIds(ctx context.Context, noteIds []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error)
	// ActiveTagReferenceCounts counts, per tag, the active (non-trashed)
	// notes of the user that reference it. Tags absent from the map have
	// zero active references.
	ActiveTagReferenceCounts(ctx context.Context, userId uuid.UUID) (map[uuid.UUID]int64, error)
}
