package service

import (
	"context"
	"fmt"
	"time"

	"notesync/internal/dto"
	"notesync/internal/entity"
	"notesync/internal/mapper"
	"notesync/internal/repository/specification"
	"notesync/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// IPayloadService builds the outbound sync request from local state.
// Side-effect free: nothing in the store changes until the round applies.
type IPayloadService interface {
	Build(ctx context.Context, userId uuid.UUID, deviceId string, since *time.Time, cursor string) (*dto.SyncRequest, error)
}

type payloadService struct {
	uowFactory unitofwork.RepositoryFactory
	syncMapper *mapper.SyncMapper
}

func NewPayloadService(uowFactory unitofwork.RepositoryFactory) IPayloadService {
	return &payloadService{
		uowFactory: uowFactory,
		syncMapper: mapper.NewSyncMapper(),
	}
}

// Build selects every entity of the user when since is nil (forced full
// upload), otherwise only those changed or trashed at/after the anchor.
// A user with nothing local still gets a well-formed empty payload so
// the server can start issuing cursors.
func (s *payloadService) Build(ctx context.Context, userId uuid.UUID, deviceId string, since *time.Time, cursor string) (*dto.SyncRequest, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	noteSpecs := []specification.Specification{
		specification.OwnedByUser{UserID: userId},
		specification.IncludeTrashed{},
	}
	tagSpecs := []specification.Specification{
		specification.OwnedByUser{UserID: userId},
		specification.IncludeTrashed{},
	}
	if since != nil {
		noteSpecs = append(noteSpecs, specification.ChangedSince{Since: *since})
		tagSpecs = append(tagSpecs, specification.ChangedSince{Since: *since})
	}

	notes, err := uow.NoteRepository().FindAll(ctx, noteSpecs...)
	if err != nil {
		return nil, fmt.Errorf("selecting changed notes: %w", err)
	}
	tags, err := uow.TagRepository().FindAll(ctx, tagSpecs...)
	if err != nil {
		return nil, fmt.Errorf("selecting changed tags: %w", err)
	}

	// Attach tag membership so the server can mirror relationships.
	noteIds := make([]uuid.UUID, len(notes))
	for i, n := range notes {
		noteIds[i] = n.Id
	}
	tagIdsByNote, err := uow.NoteRepository().TagIds(ctx, noteIds)
	if err != nil {
		return nil, fmt.Errorf("loading note tag membership: %w", err)
	}
	for _, n := range notes {
		n.TagIds = tagIdsByNote[n.Id]
	}

	hardDeletedNotes, err := uow.HardDeleteRepository().List(ctx, userId, entity.EntityTypeNote)
	if err != nil {
		return nil, fmt.Errorf("loading note tombstone queue: %w", err)
	}
	hardDeletedTags, err := uow.HardDeleteRepository().List(ctx, userId, entity.EntityTypeTag)
	if err != nil {
		return nil, fmt.Errorf("loading tag tombstone queue: %w", err)
	}

	var cursorPtr *string
	if cursor != "" {
		cursorPtr = &cursor
	}

	req := &dto.SyncRequest{
		Cursor:             cursorPtr,
		DeviceId:           deviceId,
		Notes:              s.syncMapper.NotesToDTOs(notes),
		Tags:               s.syncMapper.TagsToDTOs(tags),
		HardDeletedNoteIds: hardDeletedNotes,
		HardDeletedTagIds:  hardDeletedTags,
	}
	if req.HardDeletedNoteIds == nil {
		req.HardDeletedNoteIds = []uuid.UUID{}
	}
	if req.HardDeletedTagIds == nil {
		req.HardDeletedTagIds = []uuid.UUID{}
	}
	return req, nil
}
