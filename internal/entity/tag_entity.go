package entity

import (
	"time"

	"github.com/google/uuid"
)

type Tag struct {
	Id                     uuid.UUID
	Name                   string
	ColorHex               string
	ParentId               *uuid.UUID
	UserId                 uuid.UUID
	SortOrder              int
	CreatedAt              time.Time
	UpdatedAt              *time.Time
	LastUsedAt             *time.Time
	DeletedAt              *time.Time
	Version                int64
	LastModifiedByDeviceId string
	IsDeleted              bool
}

func (t *Tag) LastChangedAt() time.Time {
	if t.UpdatedAt != nil {
		return *t.UpdatedAt
	}
	return t.CreatedAt
}

func (t *Tag) State() LifecycleState {
	if t.DeletedAt != nil || t.IsDeleted {
		return StateTrashed
	}
	return StateActive
}

func (t *Tag) Touch(deviceId string, at time.Time) {
	ts := at
	t.UpdatedAt = &ts
	t.Version++
	t.LastModifiedByDeviceId = deviceId
}

func (t *Tag) MoveToTrash(deviceId string, at time.Time) {
	if at.Before(t.LastChangedAt()) {
		at = t.LastChangedAt()
	}
	t.Touch(deviceId, at)
	ts := at
	t.DeletedAt = &ts
	t.IsDeleted = true
}

func (t *Tag) Restore(deviceId string, at time.Time) {
	t.DeletedAt = nil
	t.IsDeleted = false
	t.Touch(deviceId, at)
}

// MarkUsed refreshes lastUsedAt without counting as a content edit.
func (t *Tag) MarkUsed(at time.Time) {
	ts := at
	t.LastUsedAt = &ts
}
