package implementation

import (
	"context"
	"errors"
	"time"

	"notesync/internal/entity"
	"notesync/internal/model"
	"notesync/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SyncStateRepositoryImpl struct {
	db *gorm.DB
}

func NewSyncStateRepository(db *gorm.DB) contract.SyncStateRepository {
	return &SyncStateRepositoryImpl{db: db}
}

func (r *SyncStateRepositoryImpl) Get(ctx context.Context, userId uuid.UUID) (*entity.SyncState, error) {
	var m model.SyncState
	err := r.db.WithContext(ctx).Where("user_id = ?", userId).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toSyncStateEntity(&m), nil
}

func (r *SyncStateRepositoryImpl) Save(ctx context.Context, state *entity.SyncState) error {
	if state.Id == uuid.Nil {
		state.Id = uuid.New()
	}
	now := time.Now()
	state.UpdatedAt = &now
	m := toSyncStateModel(state)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(m).Error
}

func toSyncStateEntity(m *model.SyncState) *entity.SyncState {
	var updatedAt *time.Time
	if !m.UpdatedAt.IsZero() {
		t := m.UpdatedAt
		updatedAt = &t
	}
	return &entity.SyncState{
		Id:               m.Id,
		UserId:           m.UserId,
		DeviceId:         m.DeviceId,
		LastSyncAt:       m.LastSyncAt,
		Cursor:           m.Cursor,
		HasUploadedLocal: m.HasUploadedLocal,
		LastError:        m.LastError,
		UpdatedAt:        updatedAt,
	}
}

func toSyncStateModel(e *entity.SyncState) *model.SyncState {
	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}
	return &model.SyncState{
		Id:               e.Id,
		UserId:           e.UserId,
		DeviceId:         e.DeviceId,
		LastSyncAt:       e.LastSyncAt,
		Cursor:           e.Cursor,
		HasUploadedLocal: e.HasUploadedLocal,
		LastError:        e.LastError,
		UpdatedAt:        updatedAt,
	}
}
