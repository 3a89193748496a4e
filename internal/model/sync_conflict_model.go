package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SyncConflict struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId        uuid.UUID `gorm:"type:uuid;not null;index"`
	EntityType    string    `gorm:"type:varchar(16);not null"`
	EntityId      uuid.UUID `gorm:"type:uuid;not null"`
	ServerVersion int64
	Payload       datatypes.JSON `gorm:"type:json"`
	Message       string         `gorm:"type:text"`
	CreatedAt     time.Time
}

func (SyncConflict) TableName() string {
	return "sync_conflicts"
}
