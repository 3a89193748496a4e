package service

import (
	"context"
	"fmt"
	"time"

	"notesync/internal/dto"
	"notesync/internal/entity"
	"notesync/internal/pkg/logger"
	"notesync/internal/repository/specification"
	"notesync/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type ITagService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateTagRequest) (*dto.CreateTagResponse, error)
	Rename(ctx context.Context, userId uuid.UUID, req *dto.RenameTagRequest) error
	// SetParent re-parents the tag. A missing, trashed or self parent
	// makes it a root.
	SetParent(ctx context.Context, userId uuid.UUID, id uuid.UUID, parentId *uuid.UUID) error
	SetSortOrder(ctx context.Context, userId uuid.UUID, id uuid.UUID, sortOrder int) error
	MoveToTrash(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
	Restore(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
	// Delete hard-deletes the tag, drops its memberships and enqueues a
	// tombstone for other devices.
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
	List(ctx context.Context, userId uuid.UUID) ([]*entity.Tag, error)
}

type tagService struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
	now        func() time.Time
}

func NewTagService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) ITagService {
	return &tagService{
		uowFactory: uowFactory,
		logger:     log,
		now:        time.Now,
	}
}

func (c *tagService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateTagRequest) (*dto.CreateTagResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	tag := entity.Tag{
		Id:        uuid.New(),
		Name:      req.Name,
		ColorHex:  req.ColorHex,
		UserId:    userId,
		CreatedAt: c.now(),
		Version:   1,
	}
	tag.LastModifiedByDeviceId = c.deviceId(ctx, uow, userId)

	if req.ParentId != nil {
		parent, err := c.findOwned(ctx, uow, userId, *req.ParentId)
		if err == nil && parent.State() == entity.StateActive {
			tag.ParentId = req.ParentId
		}
	}

	if err := uow.TagRepository().Create(ctx, &tag); err != nil {
		return nil, err
	}
	return &dto.CreateTagResponse{Id: tag.Id}, nil
}

func (c *tagService) Rename(ctx context.Context, userId uuid.UUID, req *dto.RenameTagRequest) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	tag, err := c.findOwned(ctx, uow, userId, req.Id)
	if err != nil {
		return err
	}

	tag.Name = req.Name
	tag.Touch(c.deviceId(ctx, uow, userId), c.now())
	return uow.TagRepository().Update(ctx, tag)
}

func (c *tagService) SetParent(ctx context.Context, userId uuid.UUID, id uuid.UUID, parentId *uuid.UUID) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	tag, err := c.findOwned(ctx, uow, userId, id)
	if err != nil {
		return err
	}

	resolved := parentId
	if resolved != nil {
		if *resolved == tag.Id {
			resolved = nil
		} else if parent, err := c.findOwned(ctx, uow, userId, *resolved); err != nil || parent.State() == entity.StateTrashed {
			resolved = nil
		}
	}

	tag.ParentId = resolved
	tag.Touch(c.deviceId(ctx, uow, userId), c.now())
	return uow.TagRepository().Update(ctx, tag)
}

func (c *tagService) SetSortOrder(ctx context.Context, userId uuid.UUID, id uuid.UUID, sortOrder int) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	tag, err := c.findOwned(ctx, uow, userId, id)
	if err != nil {
		return err
	}

	tag.SortOrder = sortOrder
	tag.Touch(c.deviceId(ctx, uow, userId), c.now())
	return uow.TagRepository().Update(ctx, tag)
}

func (c *tagService) MoveToTrash(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	tag, err := c.findOwned(ctx, uow, userId, id)
	if err != nil {
		return err
	}
	if tag.State() == entity.StateTrashed {
		return nil
	}

	now := c.now()
	deviceId := c.deviceId(ctx, uow, userId)
	tag.MoveToTrash(deviceId, now)
	if err := uow.TagRepository().Upsert(ctx, tag); err != nil {
		return err
	}

	// Children of a trashed tag become roots rather than disappearing
	// from the hierarchy.
	return c.reparentChildren(ctx, uow, userId, tag.Id, deviceId, now)
}

func (c *tagService) Restore(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	tag, err := c.findOwned(ctx, uow, userId, id)
	if err != nil {
		return err
	}
	if tag.State() == entity.StateActive {
		return nil
	}

	tag.Restore(c.deviceId(ctx, uow, userId), c.now())
	return uow.TagRepository().Upsert(ctx, tag)
}

func (c *tagService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			uow.Rollback()
		}
	}()

	tag, err := c.findOwned(ctx, uow, userId, id)
	if err != nil {
		return err
	}

	now := c.now()
	deviceId := c.deviceId(ctx, uow, userId)
	if err := c.reparentChildren(ctx, uow, userId, tag.Id, deviceId, now); err != nil {
		return err
	}
	if err := uow.TagRepository().HardDelete(ctx, tag.Id); err != nil {
		return err
	}
	if err := uow.HardDeleteRepository().Enqueue(ctx, userId, entity.EntityTypeTag, []uuid.UUID{tag.Id}); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (c *tagService) List(ctx context.Context, userId uuid.UUID) ([]*entity.Tag, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	return uow.TagRepository().FindAll(ctx,
		specification.OwnedByUser{UserID: userId},
		specification.OrderBy{Field: "sort_order"},
	)
}

func (c *tagService) reparentChildren(ctx context.Context, uow unitofwork.UnitOfWork, userId, parentId uuid.UUID, deviceId string, now time.Time) error {
	children, err := uow.TagRepository().FindAll(ctx,
		specification.OwnedByUser{UserID: userId},
		specification.IncludeTrashed{},
	)
	if err != nil {
		return err
	}
	for _, child := range children {
		if child.ParentId == nil || *child.ParentId != parentId {
			continue
		}
		child.ParentId = nil
		child.Touch(deviceId, now)
		if err := uow.TagRepository().Upsert(ctx, child); err != nil {
			return err
		}
	}
	return nil
}

func (c *tagService) findOwned(ctx context.Context, uow unitofwork.UnitOfWork, userId, id uuid.UUID) (*entity.Tag, error) {
	tag, err := uow.TagRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.OwnedByUser{UserID: userId},
		specification.IncludeTrashed{},
	)
	if err != nil {
		return nil, err
	}
	if tag == nil {
		return nil, fmt.Errorf("tag %s not found", id)
	}
	return tag, nil
}

func (c *tagService) deviceId(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) string {
	state, err := uow.SyncStateRepository().Get(ctx, userId)
	if err != nil || state == nil || state.DeviceId == "" {
		return "local"
	}
	return state.DeviceId
}
