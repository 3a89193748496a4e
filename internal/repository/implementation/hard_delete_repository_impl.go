package implementation

import (
	"context"
	"time"

	"notesync/internal/model"
	"notesync/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type HardDeleteRepositoryImpl struct {
	db *gorm.DB
}

func NewHardDeleteRepository(db *gorm.DB) contract.HardDeleteRepository {
	return &HardDeleteRepositoryImpl{db: db}
}

func (r *HardDeleteRepositoryImpl) Enqueue(ctx context.Context, userId uuid.UUID, entityType string, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	rows := make([]model.HardDelete, len(ids))
	now := time.Now()
	for i, id := range ids {
		rows[i] = model.HardDelete{
			Id:         uuid.New(),
			UserId:     userId,
			EntityType: entityType,
			EntityId:   id,
			CreatedAt:  now,
		}
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

func (r *HardDeleteRepositoryImpl) List(ctx context.Context, userId uuid.UUID, entityType string) ([]uuid.UUID, error) {
	var rows []model.HardDelete
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND entity_type = ?", userId, entityType).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		ids[i] = row.EntityId
	}
	return ids, nil
}

func (r *HardDeleteRepositoryImpl) Remove(ctx context.Context, userId uuid.UUID, entityType string, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("user_id = ? AND entity_type = ? AND entity_id IN ?", userId, entityType, ids).
		Delete(&model.HardDelete{}).Error
}
