package dto

import "github.com/google/uuid"

type CreateTagRequest struct {
	Name     string     `json:"name"`
	ColorHex string     `json:"color_hex"`
	ParentId *uuid.UUID `json:"parent_id"`
}

type CreateTagResponse struct {
	Id uuid.UUID `json:"id"`
}

type RenameTagRequest struct {
	Id   uuid.UUID
	Name string `json:"name"`
}
