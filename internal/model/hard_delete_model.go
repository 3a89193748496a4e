package model

import (
	"time"

	"github.com/google/uuid"
)

// HardDelete rows survive until the server acknowledges the removal.
// The (user, type, entity) key makes enqueueing idempotent.
type HardDelete struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_hard_delete_entity"`
	EntityType string    `gorm:"type:varchar(16);not null;uniqueIndex:idx_hard_delete_entity"`
	EntityId   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_hard_delete_entity"`
	CreatedAt  time.Time
}

func (HardDelete) TableName() string {
	return "hard_deletes"
}
