package mapper

import (
	"time"

	"notesync/internal/dto"
	"notesync/internal/entity"

	"github.com/google/uuid"
)

// SyncMapper converts between domain entities and the sync wire format.
// Pure and stateless: the apply engine and payload builder own all
// decisions, this only reshapes data.
type SyncMapper struct{}

func NewSyncMapper() *SyncMapper {
	return &SyncMapper{}
}

func (m *SyncMapper) NoteToDTO(n *entity.Note) dto.NoteSyncDTO {
	var baseVersion *int64
	if n.Version > 0 {
		v := n.Version
		baseVersion = &v
	}

	return dto.NoteSyncDTO{
		Id:                     n.Id,
		Content:                n.Content,
		CreatedAt:              n.CreatedAt,
		DeletedAt:              n.DeletedAt,
		PinnedAt:               n.PinnedAt,
		TagIds:                 n.TagIds,
		BaseVersion:            baseVersion,
		ClientUpdatedAt:        n.LastChangedAt(),
		LastModifiedByDeviceId: n.LastModifiedByDeviceId,
	}
}

func (m *SyncMapper) NoteFromDTO(d *dto.NoteSyncDTO, userId uuid.UUID) *entity.Note {
	var version int64
	if d.BaseVersion != nil {
		version = *d.BaseVersion
	}

	updatedAt := d.ClientUpdatedAt
	var updated *time.Time
	if !updatedAt.IsZero() {
		updated = &updatedAt
	}

	return &entity.Note{
		Id:                     d.Id,
		Content:                d.Content,
		UserId:                 userId,
		CreatedAt:              d.CreatedAt,
		UpdatedAt:              updated,
		DeletedAt:              d.DeletedAt,
		PinnedAt:               d.PinnedAt,
		Version:                version,
		LastModifiedByDeviceId: d.LastModifiedByDeviceId,
		TagIds:                 d.TagIds,
		IsDeleted:              d.DeletedAt != nil,
	}
}

func (m *SyncMapper) TagToDTO(t *entity.Tag) dto.TagSyncDTO {
	var baseVersion *int64
	if t.Version > 0 {
		v := t.Version
		baseVersion = &v
	}

	return dto.TagSyncDTO{
		Id:                     t.Id,
		Name:                   t.Name,
		ColorHex:               t.ColorHex,
		CreatedAt:              t.CreatedAt,
		LastUsedAt:             t.LastUsedAt,
		SortOrder:              t.SortOrder,
		ParentId:               t.ParentId,
		DeletedAt:              t.DeletedAt,
		BaseVersion:            baseVersion,
		ClientUpdatedAt:        t.LastChangedAt(),
		LastModifiedByDeviceId: t.LastModifiedByDeviceId,
	}
}

func (m *SyncMapper) TagFromDTO(d *dto.TagSyncDTO, userId uuid.UUID) *entity.Tag {
	var version int64
	if d.BaseVersion != nil {
		version = *d.BaseVersion
	}

	updatedAt := d.ClientUpdatedAt
	var updated *time.Time
	if !updatedAt.IsZero() {
		updated = &updatedAt
	}

	return &entity.Tag{
		Id:                     d.Id,
		Name:                   d.Name,
		ColorHex:               d.ColorHex,
		ParentId:               d.ParentId,
		UserId:                 userId,
		SortOrder:              d.SortOrder,
		CreatedAt:              d.CreatedAt,
		UpdatedAt:              updated,
		LastUsedAt:             d.LastUsedAt,
		DeletedAt:              d.DeletedAt,
		Version:                version,
		LastModifiedByDeviceId: d.LastModifiedByDeviceId,
		IsDeleted:              d.DeletedAt != nil,
	}
}

func (m *SyncMapper) NotesToDTOs(notes []*entity.Note) []dto.NoteSyncDTO {
	out := make([]dto.NoteSyncDTO, len(notes))
	for i, n := range notes {
		out[i] = m.NoteToDTO(n)
	}
	return out
}

func (m *SyncMapper) TagsToDTOs(tags []*entity.Tag) []dto.TagSyncDTO {
	out := make([]dto.TagSyncDTO, len(tags))
	for i, t := range tags {
		out[i] = m.TagToDTO(t)
	}
	return out
}
