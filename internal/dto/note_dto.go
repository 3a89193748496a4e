package dto

import (
	"time"

	"github.com/google/uuid"
)

// Local edit surface requests/responses. These never cross the network;
// the sync DTOs in sync_dto.go are the wire format.

type CreateNoteRequest struct {
	Content string      `json:"content"`
	TagIds  []uuid.UUID `json:"tag_ids"`
}

type CreateNoteResponse struct {
	Id uuid.UUID `json:"id"`
}

type UpdateNoteRequest struct {
	Id      uuid.UUID
	Content string `json:"content"`
}

type ShowNoteResponse struct {
	Id        uuid.UUID   `json:"id"`
	Content   string      `json:"content"`
	TagIds    []uuid.UUID `json:"tag_ids"`
	PinnedAt  *time.Time  `json:"pinned_at,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt *time.Time  `json:"updated_at,omitempty"`
	DeletedAt *time.Time  `json:"deleted_at,omitempty"`
}
