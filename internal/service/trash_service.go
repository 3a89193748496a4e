package service

import (
	"context"
	"fmt"
	"time"

	"notesync/internal/pkg/logger"
	"notesync/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// ITrashService runs the standalone retention pass. Sync rounds already
// purge inline; this exists for local-only installs where no round ever
// runs, driven by a periodic tick in the daemon.
type ITrashService interface {
	// PurgeExpired hard-deletes notes and tags trashed longer than the
	// retention window and enqueues their tombstones. Returns how many
	// entities were purged.
	PurgeExpired(ctx context.Context, userId uuid.UUID) (int, error)
}

type trashService struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
	retention  time.Duration
	now        func() time.Time
}

func NewTrashService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger, retention time.Duration) ITrashService {
	return &trashService{
		uowFactory: uowFactory,
		logger:     log,
		retention:  retention,
		now:        time.Now,
	}
}

func (s *trashService) PurgeExpired(ctx context.Context, userId uuid.UUID) (int, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("starting purge transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			uow.Rollback()
		}
	}()

	cutoff := s.now().Add(-s.retention)
	purgedNotes, purgedTags, err := purgeExpiredTrash(ctx, uow, userId, cutoff)
	if err != nil {
		return 0, err
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("committing purge: %w", err)
	}
	committed = true

	total := len(purgedNotes) + len(purgedTags)
	if total > 0 {
		s.logger.Info("trash", "purged expired trash", map[string]interface{}{
			"notes": len(purgedNotes),
			"tags":  len(purgedTags),
		})
	}
	return total, nil
}
