package service

import (
	"context"
	"testing"
	"time"

	"notesync/internal/dto"
	"notesync/internal/entity"
	"notesync/internal/pkg/logger"
	"notesync/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNoteFixture(t *testing.T) (*memory.Store, INoteService, uuid.UUID) {
	t.Helper()
	store := memory.NewStore()
	svc := NewNoteService(store.Factory(), nil, logger.NewNopLogger())
	return store, svc, uuid.New()
}

func TestNoteCreateAndShow(t *testing.T) {
	store, svc, userId := newNoteFixture(t)

	created, err := svc.Create(context.Background(), userId, &dto.CreateNoteRequest{Content: "first note"})
	require.NoError(t, err)

	shown, err := svc.Show(context.Background(), userId, created.Id)
	require.NoError(t, err)
	require.NotNil(t, shown)
	assert.Equal(t, "first note", shown.Content)
	assert.Nil(t, shown.DeletedAt)

	stored := store.Note(created.Id)
	require.NotNil(t, stored)
	assert.Equal(t, int64(1), stored.Version)
}

func TestNoteUpdateBumpsVersionAndTimestamp(t *testing.T) {
	store, svc, userId := newNoteFixture(t)

	created, err := svc.Create(context.Background(), userId, &dto.CreateNoteRequest{Content: "v1"})
	require.NoError(t, err)

	require.NoError(t, svc.Update(context.Background(), userId, &dto.UpdateNoteRequest{Id: created.Id, Content: "v2"}))

	stored := store.Note(created.Id)
	assert.Equal(t, "v2", stored.Content)
	assert.Equal(t, int64(2), stored.Version)
	require.NotNil(t, stored.UpdatedAt)
	assert.False(t, stored.UpdatedAt.Before(stored.CreatedAt))
}

func TestNoteTrashAndRestore(t *testing.T) {
	store, svc, userId := newNoteFixture(t)

	created, err := svc.Create(context.Background(), userId, &dto.CreateNoteRequest{Content: "note"})
	require.NoError(t, err)

	require.NoError(t, svc.MoveToTrash(context.Background(), userId, created.Id))
	trashed := store.Note(created.Id)
	assert.Equal(t, entity.StateTrashed, trashed.State())
	require.NotNil(t, trashed.DeletedAt)
	assert.False(t, trashed.DeletedAt.Before(trashed.LastChangedAt()))

	// Trashing twice is a no-op, the original trash time sticks.
	firstTrashedAt := *trashed.DeletedAt
	require.NoError(t, svc.MoveToTrash(context.Background(), userId, created.Id))
	assert.True(t, store.Note(created.Id).DeletedAt.Equal(firstTrashedAt))

	require.NoError(t, svc.Restore(context.Background(), userId, created.Id))
	restored := store.Note(created.Id)
	assert.Equal(t, entity.StateActive, restored.State())
	assert.Nil(t, restored.DeletedAt)
}

func TestNoteDeleteEnqueuesTombstone(t *testing.T) {
	store, svc, userId := newNoteFixture(t)

	created, err := svc.Create(context.Background(), userId, &dto.CreateNoteRequest{Content: "to be purged"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), userId, created.Id))

	assert.Nil(t, store.Note(created.Id))
	uow := store.Factory().NewUnitOfWork(context.Background())
	queued, err := uow.HardDeleteRepository().List(context.Background(), userId, entity.EntityTypeNote)
	require.NoError(t, err)
	assert.Contains(t, queued, created.Id)
}

func TestNoteSetTagsMarksUsageAndTrashesOrphans(t *testing.T) {
	store, svc, userId := newNoteFixture(t)
	tagSvc := NewTagService(store.Factory(), logger.NewNopLogger())

	keepTag, err := tagSvc.Create(context.Background(), userId, &dto.CreateTagRequest{Name: "keep"})
	require.NoError(t, err)
	dropTag, err := tagSvc.Create(context.Background(), userId, &dto.CreateTagRequest{Name: "drop"})
	require.NoError(t, err)

	created, err := svc.Create(context.Background(), userId, &dto.CreateNoteRequest{Content: "tagged"})
	require.NoError(t, err)

	require.NoError(t, svc.SetTags(context.Background(), userId, created.Id,
		[]uuid.UUID{keepTag.Id, dropTag.Id}))
	assert.ElementsMatch(t, []uuid.UUID{keepTag.Id, dropTag.Id}, store.NoteTagIds(created.Id))
	require.NotNil(t, store.Tag(keepTag.Id).LastUsedAt)

	// Dropping the second tag leaves it with no active references.
	require.NoError(t, svc.SetTags(context.Background(), userId, created.Id, []uuid.UUID{keepTag.Id}))
	assert.Equal(t, []uuid.UUID{keepTag.Id}, store.NoteTagIds(created.Id))
	assert.Equal(t, entity.StateTrashed, store.Tag(dropTag.Id).State())
	assert.Equal(t, entity.StateActive, store.Tag(keepTag.Id).State())
}

func TestNoteSetTagsIgnoresUnknownTags(t *testing.T) {
	store, svc, userId := newNoteFixture(t)

	created, err := svc.Create(context.Background(), userId, &dto.CreateNoteRequest{Content: "note"})
	require.NoError(t, err)

	require.NoError(t, svc.SetTags(context.Background(), userId, created.Id, []uuid.UUID{uuid.New()}))
	assert.Empty(t, store.NoteTagIds(created.Id))
}

func TestNoteSetPinned(t *testing.T) {
	store, svc, userId := newNoteFixture(t)

	created, err := svc.Create(context.Background(), userId, &dto.CreateNoteRequest{Content: "note"})
	require.NoError(t, err)

	require.NoError(t, svc.SetPinned(context.Background(), userId, created.Id, true))
	assert.NotNil(t, store.Note(created.Id).PinnedAt)

	require.NoError(t, svc.SetPinned(context.Background(), userId, created.Id, false))
	assert.Nil(t, store.Note(created.Id).PinnedAt)
}

func TestNoteOperationsRejectOtherUsers(t *testing.T) {
	_, svc, userId := newNoteFixture(t)

	created, err := svc.Create(context.Background(), userId, &dto.CreateNoteRequest{Content: "mine"})
	require.NoError(t, err)

	stranger := uuid.New()
	assert.Error(t, svc.Update(context.Background(), stranger, &dto.UpdateNoteRequest{Id: created.Id, Content: "hijack"}))
	assert.Error(t, svc.MoveToTrash(context.Background(), stranger, created.Id))
	assert.Error(t, svc.Delete(context.Background(), stranger, created.Id))

	shown, err := svc.Show(context.Background(), stranger, created.Id)
	require.NoError(t, err)
	assert.Nil(t, shown)
}

func TestEnsureWelcomeNote(t *testing.T) {
	_, svc, userId := newNoteFixture(t)

	seeded, err := svc.EnsureWelcomeNote(context.Background(), userId, "device-1")
	require.NoError(t, err)
	assert.True(t, seeded)

	// A second call sees the existing note and does nothing.
	seeded, err = svc.EnsureWelcomeNote(context.Background(), userId, "device-1")
	require.NoError(t, err)
	assert.False(t, seeded)
}

func TestEnsureWelcomeNoteCountsTrashedNotes(t *testing.T) {
	_, svc, userId := newNoteFixture(t)

	created, err := svc.Create(context.Background(), userId, &dto.CreateNoteRequest{Content: "only note"})
	require.NoError(t, err)
	require.NoError(t, svc.MoveToTrash(context.Background(), userId, created.Id))

	seeded, err := svc.EnsureWelcomeNote(context.Background(), userId, "device-1")
	require.NoError(t, err)
	assert.False(t, seeded, "a trashed note still counts as content")
}

func TestTrashServicePurgesOnlyExpired(t *testing.T) {
	store := memory.NewStore()
	userId := uuid.New()
	now := time.Now()

	expiredId := uuid.New()
	expiredAt := now.Add(-31 * 24 * time.Hour)
	seedNote(t, store, &entity.Note{
		Id:        expiredId,
		Content:   "expired",
		UserId:    userId,
		CreatedAt: now.Add(-60 * 24 * time.Hour),
		DeletedAt: &expiredAt,
		IsDeleted: true,
	})
	recentId := uuid.New()
	recentAt := now.Add(-2 * 24 * time.Hour)
	seedNote(t, store, &entity.Note{
		Id:        recentId,
		Content:   "recent",
		UserId:    userId,
		CreatedAt: now.Add(-60 * 24 * time.Hour),
		DeletedAt: &recentAt,
		IsDeleted: true,
	})

	svc := NewTrashService(store.Factory(), logger.NewNopLogger(), 30*24*time.Hour)
	purged, err := svc.PurgeExpired(context.Background(), userId)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	assert.Nil(t, store.Note(expiredId))
	assert.NotNil(t, store.Note(recentId))

	uow := store.Factory().NewUnitOfWork(context.Background())
	queued, err := uow.HardDeleteRepository().List(context.Background(), userId, entity.EntityTypeNote)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{expiredId}, queued)
}
