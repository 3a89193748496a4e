package mapper

import (
	"testing"
	"time"

	"notesync/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteToDTO(t *testing.T) {
	m := NewSyncMapper()
	createdAt := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	updatedAt := createdAt.Add(time.Hour)
	tagId := uuid.New()

	n := &entity.Note{
		Id:                     uuid.New(),
		Content:                "hello",
		UserId:                 uuid.New(),
		CreatedAt:              createdAt,
		UpdatedAt:              &updatedAt,
		Version:                4,
		LastModifiedByDeviceId: "device-1",
		TagIds:                 []uuid.UUID{tagId},
	}

	d := m.NoteToDTO(n)
	assert.Equal(t, n.Id, d.Id)
	assert.Equal(t, "hello", d.Content)
	assert.True(t, d.ClientUpdatedAt.Equal(updatedAt))
	require.NotNil(t, d.BaseVersion)
	assert.Equal(t, int64(4), *d.BaseVersion)
	assert.Equal(t, []uuid.UUID{tagId}, d.TagIds)
	assert.Nil(t, d.DeletedAt)
}

func TestNoteToDTONeverEdited(t *testing.T) {
	m := NewSyncMapper()
	createdAt := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	d := m.NoteToDTO(&entity.Note{
		Id:        uuid.New(),
		CreatedAt: createdAt,
	})
	// With no edits the creation time doubles as the change time.
	assert.True(t, d.ClientUpdatedAt.Equal(createdAt))
	assert.Nil(t, d.BaseVersion)
}

func TestNoteRoundTripKeepsIdentity(t *testing.T) {
	m := NewSyncMapper()
	userId := uuid.New()
	createdAt := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	updatedAt := createdAt.Add(time.Hour)
	deletedAt := createdAt.Add(2 * time.Hour)

	original := &entity.Note{
		Id:                     uuid.New(),
		Content:                "trashed note",
		UserId:                 userId,
		CreatedAt:              createdAt,
		UpdatedAt:              &updatedAt,
		DeletedAt:              &deletedAt,
		IsDeleted:              true,
		Version:                2,
		LastModifiedByDeviceId: "device-9",
	}

	d := m.NoteToDTO(original)
	back := m.NoteFromDTO(&d, userId)

	assert.Equal(t, original.Id, back.Id)
	assert.Equal(t, original.Content, back.Content)
	assert.Equal(t, userId, back.UserId)
	assert.True(t, back.CreatedAt.Equal(createdAt))
	require.NotNil(t, back.DeletedAt)
	assert.True(t, back.DeletedAt.Equal(deletedAt))
	assert.True(t, back.IsDeleted)
	assert.Equal(t, int64(2), back.Version)
	assert.Equal(t, "device-9", back.LastModifiedByDeviceId)
}

func TestTagDTOCarriesHierarchy(t *testing.T) {
	m := NewSyncMapper()
	parentId := uuid.New()
	createdAt := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	lastUsed := createdAt.Add(time.Hour)

	tag := &entity.Tag{
		Id:         uuid.New(),
		Name:       "meetings",
		ColorHex:   "#00ff00",
		ParentId:   &parentId,
		UserId:     uuid.New(),
		SortOrder:  3,
		CreatedAt:  createdAt,
		LastUsedAt: &lastUsed,
		Version:    1,
	}

	d := m.TagToDTO(tag)
	require.NotNil(t, d.ParentId)
	assert.Equal(t, parentId, *d.ParentId)
	assert.Equal(t, 3, d.SortOrder)
	require.NotNil(t, d.LastUsedAt)
	assert.True(t, d.LastUsedAt.Equal(lastUsed))

	back := m.TagFromDTO(&d, tag.UserId)
	require.NotNil(t, back.ParentId)
	assert.Equal(t, parentId, *back.ParentId)
	assert.Equal(t, "meetings", back.Name)
	assert.False(t, back.IsDeleted)
}
