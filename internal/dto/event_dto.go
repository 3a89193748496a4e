package dto

import "github.com/google/uuid"

// Messages published on the in-process bus after a successful sync apply.

type ReindexNotesMessage struct {
	NoteIds []uuid.UUID `json:"note_ids"`
}

type RemoveNotesFromIndexMessage struct {
	NoteIds []uuid.UUID `json:"note_ids"`
}
