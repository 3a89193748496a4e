package entity

import (
	"time"

	"github.com/google/uuid"
)

type Note struct {
	Id                     uuid.UUID
	Content                string
	UserId                 uuid.UUID
	CreatedAt              time.Time
	UpdatedAt              *time.Time
	DeletedAt              *time.Time
	PinnedAt               *time.Time
	Version                int64
	LastModifiedByDeviceId string
	TagIds                 []uuid.UUID
	IsDeleted              bool
}

// LastChangedAt is the timestamp used for last-writer-wins comparison.
// A note that was never edited after creation competes with its CreatedAt.
func (n *Note) LastChangedAt() time.Time {
	if n.UpdatedAt != nil {
		return *n.UpdatedAt
	}
	return n.CreatedAt
}

func (n *Note) State() LifecycleState {
	if n.DeletedAt != nil || n.IsDeleted {
		return StateTrashed
	}
	return StateActive
}

// Touch stamps a local mutation: updatedAt, version bump, device attribution.
func (n *Note) Touch(deviceId string, at time.Time) {
	t := at
	n.UpdatedAt = &t
	n.Version++
	n.LastModifiedByDeviceId = deviceId
}

// MoveToTrash soft-deletes the note. deletedAt never precedes the note's
// last update.
func (n *Note) MoveToTrash(deviceId string, at time.Time) {
	if at.Before(n.LastChangedAt()) {
		at = n.LastChangedAt()
	}
	n.Touch(deviceId, at)
	t := at
	n.DeletedAt = &t
	n.IsDeleted = true
}

func (n *Note) Restore(deviceId string, at time.Time) {
	n.DeletedAt = nil
	n.IsDeleted = false
	n.Touch(deviceId, at)
}
