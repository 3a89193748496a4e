package model

import (
	"time"

	"github.com/google/uuid"
)

type SyncState struct {
	Id               uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	DeviceId         string    `gorm:"type:varchar(64);not null"`
	LastSyncAt       *time.Time
	Cursor           string `gorm:"type:text"`
	HasUploadedLocal bool   `gorm:"not null;default:false"`
	LastError        string `gorm:"type:text"`
	UpdatedAt        time.Time
}

func (SyncState) TableName() string {
	return "sync_state"
}
