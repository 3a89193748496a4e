package dto

import (
	"time"

	"github.com/google/uuid"
)

// Wire format for POST /sync. Timestamps serialize as RFC 3339 with
// fractional seconds; ids as canonical UUID strings.

type NoteSyncDTO struct {
	Id                     uuid.UUID   `json:"id"`
	Content                string      `json:"content"`
	CreatedAt              time.Time   `json:"createdAt"`
	DeletedAt              *time.Time  `json:"deletedAt,omitempty"`
	PinnedAt               *time.Time  `json:"pinnedAt,omitempty"`
	TagIds                 []uuid.UUID `json:"tagIds,omitempty"`
	BaseVersion            *int64      `json:"baseVersion,omitempty"`
	ClientUpdatedAt        time.Time   `json:"clientUpdatedAt"`
	LastModifiedByDeviceId string      `json:"lastModifiedByDeviceId"`
}

type TagSyncDTO struct {
	Id                     uuid.UUID  `json:"id"`
	Name                   string     `json:"name"`
	ColorHex               string     `json:"colorHex"`
	CreatedAt              time.Time  `json:"createdAt"`
	LastUsedAt             *time.Time `json:"lastUsedAt,omitempty"`
	SortOrder              int        `json:"sortOrder"`
	ParentId               *uuid.UUID `json:"parentId,omitempty"`
	DeletedAt              *time.Time `json:"deletedAt,omitempty"`
	BaseVersion            *int64     `json:"baseVersion,omitempty"`
	ClientUpdatedAt        time.Time  `json:"clientUpdatedAt"`
	LastModifiedByDeviceId string     `json:"lastModifiedByDeviceId"`
}

type SyncRequest struct {
	Cursor             *string       `json:"cursor"`
	DeviceId           string        `json:"deviceId"`
	Notes              []NoteSyncDTO `json:"notes"`
	Tags               []TagSyncDTO  `json:"tags"`
	HardDeletedNoteIds []uuid.UUID   `json:"hardDeletedNoteIds"`
	HardDeletedTagIds  []uuid.UUID   `json:"hardDeletedTagIds"`
}

// SyncChanges carries the remote delta. Tags and the hard-delete lists may
// be null when the server has nothing for them.
type SyncChanges struct {
	Notes              []NoteSyncDTO `json:"notes"`
	Tags               []TagSyncDTO  `json:"tags"`
	HardDeletedNoteIds []uuid.UUID   `json:"hardDeletedNoteIds"`
	HardDeletedTagIds  []uuid.UUID   `json:"hardDeletedTagIds"`
}

type SyncConflictDTO struct {
	EntityType    string    `json:"entityType"`
	Id            uuid.UUID `json:"id"`
	ServerVersion int64     `json:"serverVersion"`
	ServerContent *string   `json:"serverContent,omitempty"`
	ClientContent *string   `json:"clientContent,omitempty"`
	Message       string    `json:"message"`
}

type SyncResponse struct {
	Cursor     string            `json:"cursor"`
	ServerTime time.Time         `json:"serverTime"`
	Changes    SyncChanges       `json:"changes"`
	Conflicts  []SyncConflictDTO `json:"conflicts,omitempty"`
}
