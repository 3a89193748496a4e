package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Note timestamps are sync-controlled: autoUpdateTime is disabled so the
// apply engine and the edit paths decide updated_at, not gorm.
type Note struct {
	Id                     uuid.UUID `gorm:"type:uuid;primaryKey"`
	Content                string    `gorm:"type:text"`
	UserId                 uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt              time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt              time.Time `gorm:"autoUpdateTime:false;index"`
	DeletedAt              gorm.DeletedAt `gorm:"index"`
	PinnedAt               *time.Time
	Version                int64  `gorm:"not null;default:0"`
	LastModifiedByDeviceId string `gorm:"type:varchar(64)"`
}

func (Note) TableName() string {
	return "notes"
}

// NoteTag is the explicit note/tag join row. Managed directly instead of
// through a gorm many2many association so the apply engine controls
// exactly which links exist after a merge.
type NoteTag struct {
	NoteId uuid.UUID `gorm:"type:uuid;primaryKey"`
	TagId  uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

func (NoteTag) TableName() string {
	return "note_tags"
}
