package implementation

import (
	"context"
	"encoding/json"
	"time"

	"notesync/internal/entity"
	"notesync/internal/model"
	"notesync/internal/repository/contract"
	"notesync/internal/repository/scope"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SyncConflictRepositoryImpl struct {
	db *gorm.DB
}

func NewSyncConflictRepository(db *gorm.DB) contract.SyncConflictRepository {
	return &SyncConflictRepositoryImpl{db: db}
}

func (r *SyncConflictRepositoryImpl) Create(ctx context.Context, conflict *entity.SyncConflict) error {
	if conflict.Id == uuid.Nil {
		conflict.Id = uuid.New()
	}
	if conflict.CreatedAt.IsZero() {
		conflict.CreatedAt = time.Now()
	}

	var payload datatypes.JSON
	if conflict.Payload != nil {
		raw, err := json.Marshal(conflict.Payload)
		if err != nil {
			return err
		}
		payload = datatypes.JSON(raw)
	}

	m := &model.SyncConflict{
		Id:            conflict.Id,
		UserId:        conflict.UserId,
		EntityType:    conflict.EntityType,
		EntityId:      conflict.EntityId,
		ServerVersion: conflict.ServerVersion,
		Payload:       payload,
		Message:       conflict.Message,
		CreatedAt:     conflict.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *SyncConflictRepositoryImpl) ListRecent(ctx context.Context, userId uuid.UUID, limit int) ([]*entity.SyncConflict, error) {
	var models []*model.SyncConflict
	err := r.db.WithContext(ctx).
		Scopes(scope.OrderByCreatedDesc).
		Where("user_id = ?", userId).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	result := make([]*entity.SyncConflict, len(models))
	for i, m := range models {
		var payload map[string]interface{}
		if len(m.Payload) > 0 {
			// Malformed rows surface as a nil payload, not a failed list.
			_ = json.Unmarshal(m.Payload, &payload)
		}
		result[i] = &entity.SyncConflict{
			Id:            m.Id,
			UserId:        m.UserId,
			EntityType:    m.EntityType,
			EntityId:      m.EntityId,
			ServerVersion: m.ServerVersion,
			Payload:       payload,
			Message:       m.Message,
			CreatedAt:     m.CreatedAt,
		}
	}
	return result, nil
}
