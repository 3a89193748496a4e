package implementation

import (
	"context"
	"errors"

	"notesync/internal/entity"
	"notesync/internal/mapper"
	"notesync/internal/model"
	"notesync/internal/repository/contract"
	"notesync/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NoteRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.NoteMapper
}

func NewNoteRepository(db *gorm.DB) contract.NoteRepository {
	return &NoteRepositoryImpl{
		db:     db,
		mapper: mapper.NewNoteMapper(),
	}
}

func (r *NoteRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *NoteRepositoryImpl) Create(ctx context.Context, note *entity.Note) error {
	m := r.mapper.ToModel(note)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*note = *r.mapper.ToEntity(m)
	return nil
}

func (r *NoteRepositoryImpl) Update(ctx context.Context, note *entity.Note) error {
	m := r.mapper.ToModel(note)
	if err := r.db.WithContext(ctx).Unscoped().Save(m).Error; err != nil {
		return err
	}
	tagIds := note.TagIds
	*note = *r.mapper.ToEntity(m)
	note.TagIds = tagIds
	return nil
}

func (r *NoteRepositoryImpl) Upsert(ctx context.Context, note *entity.Note) error {
	m := r.mapper.ToModel(note)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(m).Error
}

func (r *NoteRepositoryImpl) HardDelete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("note_id = ?", id).Delete(&model.NoteTag{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Unscoped().Delete(&model.Note{}, id).Error
}

func (r *NoteRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Note, error) {
	var m model.Note
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *NoteRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error) {
	var models []*model.Note
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *NoteRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Note{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *NoteRepositoryImpl) ReplaceTags(ctx context.Context, noteId uuid.UUID, tagIds []uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("note_id = ?", noteId).Delete(&model.NoteTag{}).Error; err != nil {
		return err
	}
	if len(tagIds) == 0 {
		return nil
	}
	rows := make([]model.NoteTag, len(tagIds))
	for i, tagId := range tagIds {
		rows[i] = model.NoteTag{NoteId: noteId, TagId: tagId}
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

func (r *NoteRepositoryImpl) TagIds(ctx context.Context, noteIds []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	result := make(map[uuid.UUID][]uuid.UUID, len(noteIds))
	if len(noteIds) == 0 {
		return result, nil
	}
	var rows []model.NoteTag
	if err := r.db.WithContext(ctx).Where("note_id IN ?", noteIds).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.NoteId] = append(result[row.NoteId], row.TagId)
	}
	return result, nil
}

func (r *NoteRepositoryImpl) ActiveTagReferenceCounts(ctx context.Context, userId uuid.UUID) (map[uuid.UUID]int64, error) {
	type refCount struct {
		TagId uuid.UUID
		Cnt   int64
	}
	var rows []refCount
	err := r.db.WithContext(ctx).
		Table("note_tags").
		Select("note_tags.tag_id as tag_id, count(*) as cnt").
		Joins("JOIN notes ON notes.id = note_tags.note_id").
		Where("notes.user_id = ? AND notes.deleted_at IS NULL", userId).
		Group("note_tags.tag_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		result[row.TagId] = row.Cnt
	}
	return result, nil
}
