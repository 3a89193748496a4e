package memory

import (
	"context"

	"notesync/internal/repository/contract"
	"notesync/internal/repository/unitofwork"
)

// Factory returns a unitofwork.RepositoryFactory over the store. The
// memory store has no transactions; Begin/Commit/Rollback are accepted
// and ignored so service code runs unchanged.
func (s *Store) Factory() unitofwork.RepositoryFactory {
	return &factory{store: s}
}

type factory struct {
	store *Store
}

func (f *factory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &unitOfWork{store: f.store}
}

type unitOfWork struct {
	store *Store
}

func (u *unitOfWork) Begin(ctx context.Context) error { return nil }
func (u *unitOfWork) Commit() error                   { return nil }
func (u *unitOfWork) Rollback() error                 { return nil }

func (u *unitOfWork) NoteRepository() contract.NoteRepository {
	return &noteRepository{store: u.store}
}

func (u *unitOfWork) TagRepository() contract.TagRepository {
	return &tagRepository{store: u.store}
}

func (u *unitOfWork) HardDeleteRepository() contract.HardDeleteRepository {
	return &hardDeleteRepository{store: u.store}
}

func (u *unitOfWork) SyncStateRepository() contract.SyncStateRepository {
	return &syncStateRepository{store: u.store}
}

func (u *unitOfWork) SyncConflictRepository() contract.SyncConflictRepository {
	return &syncConflictRepository{store: u.store}
}
