package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"notesync/internal/constant"
	"notesync/internal/dto"
	"notesync/internal/entity"
	"notesync/internal/pkg/logger"
	"notesync/internal/repository/specification"
	"notesync/internal/repository/unitofwork"

	"github.com/google/uuid"
)

const welcomeNoteContent = "Welcome to your notes!\n\n" +
	"This note was created for you so the app never starts empty. " +
	"Edit it, tag it, or move it to trash; it syncs like any other note."

type INoteService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateNoteRequest) (*dto.CreateNoteResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ShowNoteResponse, error)
	Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateNoteRequest) error
	SetPinned(ctx context.Context, userId uuid.UUID, id uuid.UUID, pinned bool) error
	// SetTags rewrites the note's membership. Unknown and trashed tags are
	// dropped silently; tags left without any active note move to trash.
	SetTags(ctx context.Context, userId uuid.UUID, id uuid.UUID, tagIds []uuid.UUID) error
	MoveToTrash(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
	Restore(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
	// Delete hard-deletes immediately and enqueues a tombstone so other
	// devices drop the note on their next sync.
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
	// EnsureWelcomeNote seeds the starter note when the user has no notes
	// at all, trashed included. Returns whether it seeded.
	EnsureWelcomeNote(ctx context.Context, userId uuid.UUID, deviceId string) (bool, error)
}

type noteService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	logger           logger.ILogger
	now              func() time.Time
}

func NewNoteService(uowFactory unitofwork.RepositoryFactory, publisherService IPublisherService, log logger.ILogger) INoteService {
	return &noteService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		logger:           log,
		now:              time.Now,
	}
}

func (c *noteService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateNoteRequest) (*dto.CreateNoteResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	deviceId := c.deviceId(ctx, uow, userId)

	now := c.now()
	note := entity.Note{
		Id:        uuid.New(),
		Content:   req.Content,
		UserId:    userId,
		CreatedAt: now,
		Version:   1,
	}
	note.LastModifiedByDeviceId = deviceId

	if err := uow.NoteRepository().Create(ctx, &note); err != nil {
		return nil, err
	}

	if len(req.TagIds) > 0 {
		if err := c.applyTags(ctx, uow, userId, &note, req.TagIds, now); err != nil {
			return nil, err
		}
	}

	c.publishReindex(ctx, []uuid.UUID{note.Id})

	return &dto.CreateNoteResponse{Id: note.Id}, nil
}

func (c *noteService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ShowNoteResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	note, err := uow.NoteRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.OwnedByUser{UserID: userId},
		specification.IncludeTrashed{},
	)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, nil
	}

	tagIds, err := uow.NoteRepository().TagIds(ctx, []uuid.UUID{note.Id})
	if err != nil {
		return nil, err
	}

	return &dto.ShowNoteResponse{
		Id:        note.Id,
		Content:   note.Content,
		TagIds:    tagIds[note.Id],
		PinnedAt:  note.PinnedAt,
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
		DeletedAt: note.DeletedAt,
	}, nil
}

func (c *noteService) Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateNoteRequest) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	note, err := c.findOwned(ctx, uow, userId, req.Id)
	if err != nil {
		return err
	}

	note.Content = req.Content
	note.Touch(c.deviceId(ctx, uow, userId), c.now())
	if err := uow.NoteRepository().Update(ctx, note); err != nil {
		return err
	}

	c.publishReindex(ctx, []uuid.UUID{note.Id})
	return nil
}

func (c *noteService) SetPinned(ctx context.Context, userId uuid.UUID, id uuid.UUID, pinned bool) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	note, err := c.findOwned(ctx, uow, userId, id)
	if err != nil {
		return err
	}

	now := c.now()
	if pinned {
		note.PinnedAt = &now
	} else {
		note.PinnedAt = nil
	}
	note.Touch(c.deviceId(ctx, uow, userId), now)
	return uow.NoteRepository().Update(ctx, note)
}

func (c *noteService) SetTags(ctx context.Context, userId uuid.UUID, id uuid.UUID, tagIds []uuid.UUID) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			uow.Rollback()
		}
	}()

	note, err := c.findOwned(ctx, uow, userId, id)
	if err != nil {
		return err
	}

	now := c.now()
	if err := c.applyTags(ctx, uow, userId, note, tagIds, now); err != nil {
		return err
	}
	note.Touch(c.deviceId(ctx, uow, userId), now)
	if err := uow.NoteRepository().Update(ctx, note); err != nil {
		return err
	}

	if err := c.trashOrphanedTags(ctx, uow, userId, now); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}
	committed = true

	c.publishReindex(ctx, []uuid.UUID{note.Id})
	return nil
}

func (c *noteService) MoveToTrash(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	note, err := c.findOwned(ctx, uow, userId, id)
	if err != nil {
		return err
	}
	if note.State() == entity.StateTrashed {
		return nil
	}

	now := c.now()
	note.MoveToTrash(c.deviceId(ctx, uow, userId), now)
	if err := uow.NoteRepository().Update(ctx, note); err != nil {
		return err
	}

	// Trashing a note excludes it from tag reference counts; tags it was
	// holding alive may now be orphans.
	if err := c.trashOrphanedTags(ctx, uow, userId, now); err != nil {
		return err
	}

	c.publishRemove(ctx, []uuid.UUID{note.Id})
	return nil
}

func (c *noteService) Restore(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	note, err := c.findOwned(ctx, uow, userId, id)
	if err != nil {
		return err
	}
	if note.State() == entity.StateActive {
		return nil
	}

	note.Restore(c.deviceId(ctx, uow, userId), c.now())
	if err := uow.NoteRepository().Update(ctx, note); err != nil {
		return err
	}

	c.publishReindex(ctx, []uuid.UUID{note.Id})
	return nil
}

func (c *noteService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			uow.Rollback()
		}
	}()

	note, err := c.findOwned(ctx, uow, userId, id)
	if err != nil {
		return err
	}

	if err := uow.NoteRepository().HardDelete(ctx, note.Id); err != nil {
		return err
	}
	if err := uow.HardDeleteRepository().Enqueue(ctx, userId, entity.EntityTypeNote, []uuid.UUID{note.Id}); err != nil {
		return err
	}
	if err := c.trashOrphanedTags(ctx, uow, userId, c.now()); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}
	committed = true

	c.publishRemove(ctx, []uuid.UUID{note.Id})
	return nil
}

func (c *noteService) EnsureWelcomeNote(ctx context.Context, userId uuid.UUID, deviceId string) (bool, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	count, err := uow.NoteRepository().Count(ctx,
		specification.OwnedByUser{UserID: userId},
		specification.IncludeTrashed{},
	)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	note := entity.Note{
		Id:                     uuid.New(),
		Content:                welcomeNoteContent,
		UserId:                 userId,
		CreatedAt:              c.now(),
		Version:                1,
		LastModifiedByDeviceId: deviceId,
	}
	if err := uow.NoteRepository().Create(ctx, &note); err != nil {
		return false, err
	}

	c.logger.Info("note", "seeded welcome note", map[string]interface{}{"note_id": note.Id})
	c.publishReindex(ctx, []uuid.UUID{note.Id})
	return true, nil
}

// applyTags replaces the note's membership with the subset of tagIds that
// exist and are active, and refreshes lastUsedAt on each of those tags.
func (c *noteService) applyTags(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, note *entity.Note, tagIds []uuid.UUID, now time.Time) error {
	resolved := make([]uuid.UUID, 0, len(tagIds))
	if len(tagIds) > 0 {
		tags, err := uow.TagRepository().FindAll(ctx,
			specification.ByIDs{IDs: tagIds},
			specification.OwnedByUser{UserID: userId},
		)
		if err != nil {
			return err
		}
		for _, tag := range tags {
			tag.MarkUsed(now)
			if err := uow.TagRepository().Update(ctx, tag); err != nil {
				return err
			}
			resolved = append(resolved, tag.Id)
		}
	}
	return uow.NoteRepository().ReplaceTags(ctx, note.Id, resolved)
}

// trashOrphanedTags soft-deletes active tags no active note references
// anymore. Their children are re-parented by the next sync round's
// hierarchy pass if they outlive the parent.
func (c *noteService) trashOrphanedTags(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, now time.Time) error {
	refs, err := uow.NoteRepository().ActiveTagReferenceCounts(ctx, userId)
	if err != nil {
		return err
	}
	tags, err := uow.TagRepository().FindAll(ctx, specification.OwnedByUser{UserID: userId})
	if err != nil {
		return err
	}
	deviceId := c.deviceId(ctx, uow, userId)
	for _, tag := range tags {
		if refs[tag.Id] > 0 || tag.LastUsedAt == nil {
			continue
		}
		tag.MoveToTrash(deviceId, now)
		if err := uow.TagRepository().Upsert(ctx, tag); err != nil {
			return err
		}
	}
	return nil
}

func (c *noteService) findOwned(ctx context.Context, uow unitofwork.UnitOfWork, userId, id uuid.UUID) (*entity.Note, error) {
	note, err := uow.NoteRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.OwnedByUser{UserID: userId},
		specification.IncludeTrashed{},
	)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, fmt.Errorf("note %s not found", id)
	}
	return note, nil
}

// deviceId resolves the device identity recorded by the sync layer; a
// never-synced install edits as "local" until the first round mints one.
func (c *noteService) deviceId(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) string {
	state, err := uow.SyncStateRepository().Get(ctx, userId)
	if err != nil || state == nil || state.DeviceId == "" {
		return "local"
	}
	return state.DeviceId
}

func (c *noteService) publishReindex(ctx context.Context, noteIds []uuid.UUID) {
	if c.publisherService == nil {
		return
	}
	payload, _ := json.Marshal(dto.ReindexNotesMessage{NoteIds: noteIds})
	if err := c.publisherService.Publish(ctx, constant.TopicReindexNotes, payload); err != nil {
		c.logger.Warn("note", "failed to publish reindex event", map[string]interface{}{"error": err.Error()})
	}
}

func (c *noteService) publishRemove(ctx context.Context, noteIds []uuid.UUID) {
	if c.publisherService == nil {
		return
	}
	payload, _ := json.Marshal(dto.RemoveNotesFromIndexMessage{NoteIds: noteIds})
	if err := c.publisherService.Publish(ctx, constant.TopicRemoveNotesFromIndex, payload); err != nil {
		c.logger.Warn("note", "failed to publish index removal event", map[string]interface{}{"error": err.Error()})
	}
}
