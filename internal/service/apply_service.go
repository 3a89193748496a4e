package service

import (
	"context"
	"fmt"
	"time"

	"notesync/internal/dto"
	"notesync/internal/entity"
	"notesync/internal/mapper"
	"notesync/internal/pkg/logger"
	"notesync/internal/repository/contract"
	"notesync/internal/repository/specification"
	"notesync/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// ApplyResult reports what a merge round did, so the manager can drive
// search reindexing and follow-up scheduling.
type ApplyResult struct {
	ChangedNoteIds []uuid.UUID
	RemovedNoteIds []uuid.UUID
	PurgedNoteIds  []uuid.UUID
	PurgedTagIds   []uuid.UUID
	TrashedTagIds  []uuid.UUID
}

type IApplyService interface {
	Apply(ctx context.Context, userId uuid.UUID, deviceId string, resp *dto.SyncResponse) (*ApplyResult, error)
}

type applyService struct {
	uowFactory unitofwork.RepositoryFactory
	syncMapper *mapper.SyncMapper
	logger     logger.ILogger
	retention  time.Duration
	now        func() time.Time
}

func NewApplyService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger, retentionDays int) IApplyService {
	return &applyService{
		uowFactory: uowFactory,
		syncMapper: mapper.NewSyncMapper(),
		logger:     log,
		retention:  time.Duration(retentionDays) * 24 * time.Hour,
		now:        time.Now,
	}
}

// Apply merges a decoded server response into the local store. Every
// write is an idempotent upsert or delete, so re-running the same
// response after a crash converges to the same state. Individual entity
// conflicts never fail the round; only store failures do.
func (s *applyService) Apply(ctx context.Context, userId uuid.UUID, deviceId string, resp *dto.SyncResponse) (*ApplyResult, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("starting apply transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = uow.Rollback()
		}
	}()

	result := &ApplyResult{}

	// Phase 1: upsert every tag in the batch, remembering the merged rows
	// so phase 2 can resolve forward references inside the same batch.
	tagIndex, err := s.mergeTags(ctx, uow, userId, resp.Changes.Tags)
	if err != nil {
		return nil, err
	}

	if err := s.resolveTagParents(ctx, uow, tagIndex); err != nil {
		return nil, err
	}

	if err := s.mergeNotes(ctx, uow, userId, resp.Changes.Notes, tagIndex, result); err != nil {
		return nil, err
	}

	if err := s.applyTombstones(ctx, uow, resp.Changes, result); err != nil {
		return nil, err
	}

	// Orphan collection runs after the full note merge so a tag whose
	// only referencing note arrives later in the same batch survives.
	if err := s.collectOrphanTags(ctx, uow, userId, deviceId, result); err != nil {
		return nil, err
	}

	cutoff := s.now().Add(-s.retention)
	purgedNotes, purgedTags, err := purgeExpiredTrash(ctx, uow, userId, cutoff)
	if err != nil {
		return nil, err
	}
	result.PurgedNoteIds = purgedNotes
	result.PurgedTagIds = purgedTags
	result.RemovedNoteIds = append(result.RemovedNoteIds, purgedNotes...)

	if err := s.recordConflicts(ctx, uow, userId, resp.Conflicts); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("committing apply transaction: %w", err)
	}
	committed = true

	s.logger.Info("apply", "merged server changes", map[string]interface{}{
		"notes":        len(resp.Changes.Notes),
		"tags":         len(resp.Changes.Tags),
		"purged_notes": len(result.PurgedNoteIds),
		"purged_tags":  len(result.PurgedTagIds),
	})
	return result, nil
}

func (s *applyService) mergeTags(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, changes []dto.TagSyncDTO) (map[uuid.UUID]*entity.Tag, error) {
	tagRepo := uow.TagRepository()
	index := make(map[uuid.UUID]*entity.Tag, len(changes))

	for i := range changes {
		d := &changes[i]
		local, err := tagRepo.FindOne(ctx, specification.ByID{ID: d.Id}, specification.IncludeTrashed{})
		if err != nil {
			return nil, fmt.Errorf("loading tag %s: %w", d.Id, err)
		}
		remote := s.syncMapper.TagFromDTO(d, userId)

		merged := s.mergeTag(local, remote)
		if merged == nil {
			// Local copy stays; it is still part of the batch index so
			// children in this batch can resolve against it.
			index[local.Id] = local
			continue
		}
		if err := tagRepo.Upsert(ctx, merged); err != nil {
			return nil, fmt.Errorf("upserting tag %s: %w", merged.Id, err)
		}
		index[merged.Id] = merged
	}
	return index, nil
}

// mergeTag returns the row to store, or nil when the local copy wins.
func (s *applyService) mergeTag(local, remote *entity.Tag) *entity.Tag {
	var decision mergeDecision
	if local == nil {
		decision = decisionCreateRemote
	} else {
		decision = decideMerge(true, local.LastChangedAt(), local.DeletedAt, remote.LastChangedAt(), remote.DeletedAt)
	}

	switch decision {
	case decisionCreateRemote:
		return remote
	case decisionRemoteDeletion:
		merged := *local
		merged.DeletedAt = remote.DeletedAt
		merged.IsDeleted = true
		merged.Version = maxVersion(local.Version, remote.Version)
		merged.LastModifiedByDeviceId = remote.LastModifiedByDeviceId
		return &merged
	case decisionTakeRemote:
		merged := *remote
		merged.CreatedAt = local.CreatedAt
		merged.Version = maxVersion(local.Version, remote.Version)
		return &merged
	default:
		return nil
	}
}

// resolveTagParents is the second pass: parent links are resolved only
// after every tag of the batch is materialized, so child-before-parent
// list order works. A missing or trashed parent resolves to no parent.
func (s *applyService) resolveTagParents(ctx context.Context, uow unitofwork.UnitOfWork, tagIndex map[uuid.UUID]*entity.Tag) error {
	tagRepo := uow.TagRepository()

	for _, t := range tagIndex {
		if t.ParentId == nil {
			continue
		}
		parent, ok := tagIndex[*t.ParentId]
		if !ok {
			local, err := tagRepo.FindOne(ctx, specification.ByID{ID: *t.ParentId}, specification.IncludeTrashed{})
			if err != nil {
				return fmt.Errorf("resolving parent of tag %s: %w", t.Id, err)
			}
			parent = local
		}
		if parent != nil && parent.State() == entity.StateActive && parent.Id != t.Id {
			continue
		}
		t.ParentId = nil
		if err := tagRepo.Upsert(ctx, t); err != nil {
			return fmt.Errorf("clearing parent of tag %s: %w", t.Id, err)
		}
	}
	return nil
}

func (s *applyService) mergeNotes(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, changes []dto.NoteSyncDTO, tagIndex map[uuid.UUID]*entity.Tag, result *ApplyResult) error {
	noteRepo := uow.NoteRepository()
	tagRepo := uow.TagRepository()

	for i := range changes {
		d := &changes[i]
		local, err := noteRepo.FindOne(ctx, specification.ByID{ID: d.Id}, specification.IncludeTrashed{})
		if err != nil {
			return fmt.Errorf("loading note %s: %w", d.Id, err)
		}
		remote := s.syncMapper.NoteFromDTO(d, userId)

		var decision mergeDecision
		if local == nil {
			decision = decisionCreateRemote
		} else {
			decision = decideMerge(true, local.LastChangedAt(), local.DeletedAt, remote.LastChangedAt(), remote.DeletedAt)
		}

		switch decision {
		case decisionKeepLocal:
			continue

		case decisionRemoteDeletion:
			merged := *local
			merged.DeletedAt = remote.DeletedAt
			merged.IsDeleted = true
			merged.Version = maxVersion(local.Version, remote.Version)
			merged.LastModifiedByDeviceId = remote.LastModifiedByDeviceId
			if err := noteRepo.Upsert(ctx, &merged); err != nil {
				return fmt.Errorf("trashing note %s: %w", merged.Id, err)
			}
			result.RemovedNoteIds = append(result.RemovedNoteIds, merged.Id)

		case decisionCreateRemote, decisionTakeRemote:
			merged := *remote
			if local != nil {
				merged.CreatedAt = local.CreatedAt
				merged.Version = maxVersion(local.Version, remote.Version)
			}
			if err := noteRepo.Upsert(ctx, &merged); err != nil {
				return fmt.Errorf("upserting note %s: %w", merged.Id, err)
			}

			active, err := s.resolveActiveTagIds(ctx, tagRepo, tagIndex, d.TagIds)
			if err != nil {
				return fmt.Errorf("resolving tags of note %s: %w", merged.Id, err)
			}
			if err := noteRepo.ReplaceTags(ctx, merged.Id, active); err != nil {
				return fmt.Errorf("replacing tags of note %s: %w", merged.Id, err)
			}

			if merged.State() == entity.StateActive {
				result.ChangedNoteIds = append(result.ChangedNoteIds, merged.Id)
			} else {
				result.RemovedNoteIds = append(result.RemovedNoteIds, merged.Id)
			}
		}
	}
	return nil
}

// resolveActiveTagIds maps a note's claimed tag list onto tags that
// actually exist and are not trashed. A note never displays a trashed
// tag as active.
func (s *applyService) resolveActiveTagIds(ctx context.Context, tagRepo contract.TagRepository, tagIndex map[uuid.UUID]*entity.Tag, tagIds []uuid.UUID) ([]uuid.UUID, error) {
	var active []uuid.UUID
	for _, id := range tagIds {
		tag, ok := tagIndex[id]
		if !ok {
			local, err := tagRepo.FindOne(ctx, specification.ByID{ID: id}, specification.IncludeTrashed{})
			if err != nil {
				return nil, err
			}
			tag = local
		}
		if tag != nil && tag.State() == entity.StateActive {
			active = append(active, id)
		}
	}
	return active, nil
}

// applyTombstones removes entities another device deleted permanently.
// Hard deletes skip the trash entirely.
func (s *applyService) applyTombstones(ctx context.Context, uow unitofwork.UnitOfWork, changes dto.SyncChanges, result *ApplyResult) error {
	noteRepo := uow.NoteRepository()
	tagRepo := uow.TagRepository()

	for _, id := range changes.HardDeletedNoteIds {
		if err := noteRepo.HardDelete(ctx, id); err != nil {
			return fmt.Errorf("hard-deleting note %s: %w", id, err)
		}
		result.RemovedNoteIds = append(result.RemovedNoteIds, id)
	}
	for _, id := range changes.HardDeletedTagIds {
		if err := tagRepo.HardDelete(ctx, id); err != nil {
			return fmt.Errorf("hard-deleting tag %s: %w", id, err)
		}
	}
	return nil
}

func (s *applyService) collectOrphanTags(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, deviceId string, result *ApplyResult) error {
	counts, err := uow.NoteRepository().ActiveTagReferenceCounts(ctx, userId)
	if err != nil {
		return fmt.Errorf("counting tag references: %w", err)
	}
	tags, err := uow.TagRepository().FindAll(ctx, specification.OwnedByUser{UserID: userId})
	if err != nil {
		return fmt.Errorf("listing active tags: %w", err)
	}

	now := s.now()
	for _, t := range tags {
		if counts[t.Id] > 0 {
			continue
		}
		// A tag that was never attached to anything is not an orphan,
		// just new.
		if t.LastUsedAt == nil {
			continue
		}
		t.MoveToTrash(deviceId, now)
		if err := uow.TagRepository().Upsert(ctx, t); err != nil {
			return fmt.Errorf("collecting orphan tag %s: %w", t.Id, err)
		}
		result.TrashedTagIds = append(result.TrashedTagIds, t.Id)
	}
	return nil
}

func (s *applyService) recordConflicts(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, conflicts []dto.SyncConflictDTO) error {
	repo := uow.SyncConflictRepository()
	for _, c := range conflicts {
		payload := map[string]interface{}{}
		if c.ServerContent != nil {
			payload["server_content"] = *c.ServerContent
		}
		if c.ClientContent != nil {
			payload["client_content"] = *c.ClientContent
		}
		err := repo.Create(ctx, &entity.SyncConflict{
			UserId:        userId,
			EntityType:    c.EntityType,
			EntityId:      c.Id,
			ServerVersion: c.ServerVersion,
			Payload:       payload,
			Message:       c.Message,
		})
		if err != nil {
			return fmt.Errorf("recording conflict for %s %s: %w", c.EntityType, c.Id, err)
		}
	}
	return nil
}

// purgeExpiredTrash hard-deletes entities whose trash timestamp is older
// than the cutoff and queues their tombstones for the next outbound sync.
// Shared by the apply engine and the standalone trash policy.
func purgeExpiredTrash(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, cutoff time.Time) (purgedNotes, purgedTags []uuid.UUID, err error) {
	noteRepo := uow.NoteRepository()
	tagRepo := uow.TagRepository()
	queue := uow.HardDeleteRepository()

	expiredNotes, err := noteRepo.FindAll(ctx,
		specification.OwnedByUser{UserID: userId},
		specification.IncludeTrashed{},
		specification.TrashedBefore{Cutoff: cutoff},
	)
	if err != nil {
		return nil, nil, fmt.Errorf("listing expired notes: %w", err)
	}
	for _, n := range expiredNotes {
		if err := noteRepo.HardDelete(ctx, n.Id); err != nil {
			return nil, nil, fmt.Errorf("purging note %s: %w", n.Id, err)
		}
		purgedNotes = append(purgedNotes, n.Id)
	}
	if err := queue.Enqueue(ctx, userId, entity.EntityTypeNote, purgedNotes); err != nil {
		return nil, nil, fmt.Errorf("queueing note tombstones: %w", err)
	}

	expiredTags, err := tagRepo.FindAll(ctx,
		specification.OwnedByUser{UserID: userId},
		specification.IncludeTrashed{},
		specification.TrashedBefore{Cutoff: cutoff},
	)
	if err != nil {
		return nil, nil, fmt.Errorf("listing expired tags: %w", err)
	}
	for _, t := range expiredTags {
		if err := tagRepo.HardDelete(ctx, t.Id); err != nil {
			return nil, nil, fmt.Errorf("purging tag %s: %w", t.Id, err)
		}
		purgedTags = append(purgedTags, t.Id)
	}
	if err := queue.Enqueue(ctx, userId, entity.EntityTypeTag, purgedTags); err != nil {
		return nil, nil, fmt.Errorf("queueing tag tombstones: %w", err)
	}

	return purgedNotes, purgedTags, nil
}
