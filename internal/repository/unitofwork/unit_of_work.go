package unitofwork

import (
	"context"

	"notesync/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	NoteRepository() contract.NoteRepository
	TagRepository() contract.TagRepository
	HardDeleteRepository() contract.HardDeleteRepository
	SyncStateRepository() contract.SyncStateRepository
	SyncConflictRepository() contract.SyncConflictRepository
}
