package mapper

import (
	"time"

	"notesync/internal/entity"
	"notesync/internal/model"

	"gorm.io/gorm"
)

type TagMapper struct{}

func NewTagMapper() *TagMapper {
	return &TagMapper{}
}

func (m *TagMapper) ToEntity(t *model.Tag) *entity.Tag {
	if t == nil {
		return nil
	}

	var deletedAt *time.Time
	if t.DeletedAt.Valid {
		ts := t.DeletedAt.Time
		deletedAt = &ts
	}

	var updatedAt *time.Time
	if !t.UpdatedAt.IsZero() {
		ts := t.UpdatedAt
		updatedAt = &ts
	}

	return &entity.Tag{
		Id:                     t.Id,
		Name:                   t.Name,
		ColorHex:               t.ColorHex,
		ParentId:               t.ParentId,
		UserId:                 t.UserId,
		SortOrder:              t.SortOrder,
		CreatedAt:              t.CreatedAt,
		UpdatedAt:              updatedAt,
		LastUsedAt:             t.LastUsedAt,
		DeletedAt:              deletedAt,
		Version:                t.Version,
		LastModifiedByDeviceId: t.LastModifiedByDeviceId,
		IsDeleted:              t.DeletedAt.Valid,
	}
}

func (m *TagMapper) ToModel(t *entity.Tag) *model.Tag {
	if t == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if t.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *t.DeletedAt, Valid: true}
	} else if t.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if t.UpdatedAt != nil {
		updatedAt = *t.UpdatedAt
	}

	return &model.Tag{
		Id:                     t.Id,
		Name:                   t.Name,
		ColorHex:               t.ColorHex,
		ParentId:               t.ParentId,
		UserId:                 t.UserId,
		SortOrder:              t.SortOrder,
		CreatedAt:              t.CreatedAt,
		UpdatedAt:              updatedAt,
		LastUsedAt:             t.LastUsedAt,
		DeletedAt:              deletedAt,
		Version:                t.Version,
		LastModifiedByDeviceId: t.LastModifiedByDeviceId,
	}
}

func (m *TagMapper) ToEntities(tags []*model.Tag) []*entity.Tag {
	entities := make([]*entity.Tag, len(tags))
	for i, t := range tags {
		entities[i] = m.ToEntity(t)
	}
	return entities
}

func (m *TagMapper) ToModels(tags []*entity.Tag) []*model.Tag {
	models := make([]*model.Tag, len(tags))
	for i, t := range tags {
		models[i] = m.ToModel(t)
	}
	return models
}
