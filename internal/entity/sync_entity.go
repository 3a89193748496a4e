package entity

import (
	"time"

	"github.com/google/uuid"
)

// SyncState is the per-user sync anchor: one row per signed-in user,
// created on first use.
type SyncState struct {
	Id               uuid.UUID
	UserId           uuid.UUID
	DeviceId         string
	LastSyncAt       *time.Time
	Cursor           string
	HasUploadedLocal bool
	LastError        string
	UpdatedAt        *time.Time
}

// Entity kinds used by the hard-delete queue and the conflict log.
const (
	EntityTypeNote = "note"
	EntityTypeTag  = "tag"
)

// HardDeleteRecord is a pending tombstone: an entity permanently removed
// locally, kept until the server acknowledges the removal.
type HardDeleteRecord struct {
	Id         uuid.UUID
	UserId     uuid.UUID
	EntityType string
	EntityId   uuid.UUID
	CreatedAt  time.Time
}

// SyncConflict is the informational record of a server-reported conflict.
// The LWW merge already resolved stored state; this exists so a UI can
// surface what happened.
type SyncConflict struct {
	Id            uuid.UUID
	UserId        uuid.UUID
	EntityType    string
	EntityId      uuid.UUID
	ServerVersion int64
	Payload       map[string]interface{}
	Message       string
	CreatedAt     time.Time
}
