package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Tag struct {
	Id                     uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name                   string     `gorm:"type:varchar(255);not null"`
	ColorHex               string     `gorm:"type:varchar(16)"`
	ParentId               *uuid.UUID `gorm:"type:uuid;index"`
	UserId                 uuid.UUID  `gorm:"type:uuid;not null;index"`
	SortOrder              int        `gorm:"not null;default:0"`
	CreatedAt              time.Time  `gorm:"autoCreateTime:false"`
	UpdatedAt              time.Time  `gorm:"autoUpdateTime:false;index"`
	LastUsedAt             *time.Time
	DeletedAt              gorm.DeletedAt `gorm:"index"`
	Version                int64          `gorm:"not null;default:0"`
	LastModifiedByDeviceId string         `gorm:"type:varchar(64)"`
}

func (Tag) TableName() string {
	return "tags"
}
