package service

import (
	"context"
	"testing"

	"notesync/internal/dto"
	"notesync/internal/entity"
	"notesync/internal/pkg/logger"
	"notesync/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTagFixture(t *testing.T) (*memory.Store, ITagService, uuid.UUID) {
	t.Helper()
	store := memory.NewStore()
	svc := NewTagService(store.Factory(), logger.NewNopLogger())
	return store, svc, uuid.New()
}

func TestTagCreateWithParent(t *testing.T) {
	store, svc, userId := newTagFixture(t)

	parent, err := svc.Create(context.Background(), userId, &dto.CreateTagRequest{Name: "work"})
	require.NoError(t, err)

	child, err := svc.Create(context.Background(), userId, &dto.CreateTagRequest{
		Name:     "meetings",
		ColorHex: "#ff8800",
		ParentId: &parent.Id,
	})
	require.NoError(t, err)

	stored := store.Tag(child.Id)
	require.NotNil(t, stored)
	require.NotNil(t, stored.ParentId)
	assert.Equal(t, parent.Id, *stored.ParentId)
	assert.Equal(t, "#ff8800", stored.ColorHex)
}

func TestTagCreateIgnoresMissingParent(t *testing.T) {
	store, svc, userId := newTagFixture(t)
	missing := uuid.New()

	created, err := svc.Create(context.Background(), userId, &dto.CreateTagRequest{
		Name:     "floating",
		ParentId: &missing,
	})
	require.NoError(t, err)
	assert.Nil(t, store.Tag(created.Id).ParentId)
}

func TestTagRename(t *testing.T) {
	store, svc, userId := newTagFixture(t)

	created, err := svc.Create(context.Background(), userId, &dto.CreateTagRequest{Name: "old name"})
	require.NoError(t, err)

	require.NoError(t, svc.Rename(context.Background(), userId, &dto.RenameTagRequest{Id: created.Id, Name: "new name"}))

	stored := store.Tag(created.Id)
	assert.Equal(t, "new name", stored.Name)
	assert.Equal(t, int64(2), stored.Version)
}

func TestTagSetParentRejectsSelfAndTrashed(t *testing.T) {
	store, svc, userId := newTagFixture(t)

	tag, err := svc.Create(context.Background(), userId, &dto.CreateTagRequest{Name: "a"})
	require.NoError(t, err)
	trashedParent, err := svc.Create(context.Background(), userId, &dto.CreateTagRequest{Name: "b"})
	require.NoError(t, err)
	require.NoError(t, svc.MoveToTrash(context.Background(), userId, trashedParent.Id))

	require.NoError(t, svc.SetParent(context.Background(), userId, tag.Id, &tag.Id))
	assert.Nil(t, store.Tag(tag.Id).ParentId)

	require.NoError(t, svc.SetParent(context.Background(), userId, tag.Id, &trashedParent.Id))
	assert.Nil(t, store.Tag(tag.Id).ParentId)
}

func TestTagTrashReparentsChildren(t *testing.T) {
	store, svc, userId := newTagFixture(t)

	parent, err := svc.Create(context.Background(), userId, &dto.CreateTagRequest{Name: "parent"})
	require.NoError(t, err)
	child, err := svc.Create(context.Background(), userId, &dto.CreateTagRequest{Name: "child", ParentId: &parent.Id})
	require.NoError(t, err)

	require.NoError(t, svc.MoveToTrash(context.Background(), userId, parent.Id))

	assert.Equal(t, entity.StateTrashed, store.Tag(parent.Id).State())
	stored := store.Tag(child.Id)
	assert.Equal(t, entity.StateActive, stored.State())
	assert.Nil(t, stored.ParentId, "children of a trashed tag become roots")
}

func TestTagDeleteEnqueuesTombstoneAndDropsMembership(t *testing.T) {
	store, svc, userId := newTagFixture(t)
	noteSvc := NewNoteService(store.Factory(), nil, logger.NewNopLogger())

	tag, err := svc.Create(context.Background(), userId, &dto.CreateTagRequest{Name: "doomed"})
	require.NoError(t, err)
	note, err := noteSvc.Create(context.Background(), userId, &dto.CreateNoteRequest{Content: "tagged"})
	require.NoError(t, err)
	require.NoError(t, noteSvc.SetTags(context.Background(), userId, note.Id, []uuid.UUID{tag.Id}))

	require.NoError(t, svc.Delete(context.Background(), userId, tag.Id))

	assert.Nil(t, store.Tag(tag.Id))
	assert.Empty(t, store.NoteTagIds(note.Id))

	uow := store.Factory().NewUnitOfWork(context.Background())
	queued, err := uow.HardDeleteRepository().List(context.Background(), userId, entity.EntityTypeTag)
	require.NoError(t, err)
	assert.Contains(t, queued, tag.Id)
}

func TestTagRestore(t *testing.T) {
	store, svc, userId := newTagFixture(t)

	tag, err := svc.Create(context.Background(), userId, &dto.CreateTagRequest{Name: "back again"})
	require.NoError(t, err)
	require.NoError(t, svc.MoveToTrash(context.Background(), userId, tag.Id))
	require.NoError(t, svc.Restore(context.Background(), userId, tag.Id))

	stored := store.Tag(tag.Id)
	assert.Equal(t, entity.StateActive, stored.State())
	assert.Nil(t, stored.DeletedAt)
}

func TestTagListExcludesTrashed(t *testing.T) {
	_, svc, userId := newTagFixture(t)

	first, err := svc.Create(context.Background(), userId, &dto.CreateTagRequest{Name: "visible"})
	require.NoError(t, err)
	hidden, err := svc.Create(context.Background(), userId, &dto.CreateTagRequest{Name: "hidden"})
	require.NoError(t, err)
	require.NoError(t, svc.MoveToTrash(context.Background(), userId, hidden.Id))

	tags, err := svc.List(context.Background(), userId)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, first.Id, tags[0].Id)
}
