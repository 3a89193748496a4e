package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"notesync/internal/config"
	"notesync/internal/constant"
	"notesync/internal/dto"
	"notesync/internal/entity"
	"notesync/internal/pkg/logger"
	"notesync/internal/repository/specification"
	"notesync/internal/repository/unitofwork"
	"notesync/internal/syncerr"
	"notesync/internal/transport"

	"github.com/google/uuid"
)

type SyncStatus string

const (
	StatusIdle    SyncStatus = "idle"
	StatusSyncing SyncStatus = "syncing"
)

// ISyncManager owns all sync scheduling policy: when a round may start,
// single-flight enforcement, the coalesced follow-up, anchor persistence
// and failure bookkeeping. Everything below it is policy-free.
type ISyncManager interface {
	// SyncNow runs a round and blocks until it completes (or is absorbed
	// into a round already in flight, in which case it returns nil after
	// marking the follow-up).
	SyncNow(ctx context.Context) error
	// RequestSync is the opportunistic path: identical to SyncNow except
	// that it also honors the minimum interval since the last success.
	RequestSync(ctx context.Context) error
	Status() SyncStatus
	LastError() string
}

type syncManager struct {
	cfg        config.SyncConfig
	uowFactory unitofwork.RepositoryFactory
	payloadSvc IPayloadService
	applySvc   IApplyService
	noteSvc    INoteService
	client     transport.Client
	auth       AuthProvider
	publisher  IPublisherService
	logger     logger.ILogger
	now        func() time.Time

	mu      sync.Mutex
	syncing bool
	pending bool
	lastErr string
}

func NewSyncManager(
	cfg config.SyncConfig,
	uowFactory unitofwork.RepositoryFactory,
	payloadSvc IPayloadService,
	applySvc IApplyService,
	noteSvc INoteService,
	client transport.Client,
	auth AuthProvider,
	publisher IPublisherService,
	log logger.ILogger,
) ISyncManager {
	return &syncManager{
		cfg:        cfg,
		uowFactory: uowFactory,
		payloadSvc: payloadSvc,
		applySvc:   applySvc,
		noteSvc:    noteSvc,
		client:     client,
		auth:       auth,
		publisher:  publisher,
		logger:     log,
		now:        time.Now,
	}
}

func (m *syncManager) Status() SyncStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.syncing {
		return StatusSyncing
	}
	return StatusIdle
}

func (m *syncManager) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *syncManager) SyncNow(ctx context.Context) error {
	return m.run(ctx, true)
}

func (m *syncManager) RequestSync(ctx context.Context) error {
	return m.run(ctx, false)
}

func (m *syncManager) run(ctx context.Context, force bool) error {
	if !m.cfg.Enabled {
		return syncerr.ErrDisabled
	}
	if m.cfg.ServerURL == "" {
		return fmt.Errorf("%w: no server URL", syncerr.ErrInvalidConfiguration)
	}
	userId, signedIn := m.auth.UserId()
	if !signedIn {
		return fmt.Errorf("%w: no signed-in user", syncerr.ErrInvalidConfiguration)
	}
	token, err := m.auth.Token(ctx)
	if err != nil || token == "" {
		return fmt.Errorf("%w: no auth token", syncerr.ErrInvalidConfiguration)
	}

	// Single flight: a request landing mid-round owes exactly one
	// follow-up, never a queue.
	m.mu.Lock()
	if m.syncing {
		m.pending = true
		m.mu.Unlock()
		return nil
	}
	m.syncing = true
	m.mu.Unlock()

	roundErr := m.runRound(ctx, userId, token, force)

	m.mu.Lock()
	m.syncing = false
	followUp := m.pending
	m.pending = false
	if roundErr != nil {
		m.lastErr = roundErr.Error()
	} else {
		m.lastErr = ""
	}
	m.mu.Unlock()

	if followUp {
		go func() {
			if err := m.run(context.Background(), true); err != nil {
				m.logger.Warn("sync", "follow-up round failed", map[string]interface{}{"error": err.Error()})
			}
		}()
	}
	return roundErr
}

func (m *syncManager) runRound(ctx context.Context, userId uuid.UUID, token string, force bool) error {
	uow := m.uowFactory.NewUnitOfWork(ctx)
	stateRepo := uow.SyncStateRepository()

	state, err := stateRepo.Get(ctx, userId)
	if err != nil {
		return fmt.Errorf("loading sync state: %w", err)
	}
	if state == nil {
		// First contact for this user: mint the device identity once and
		// persist it before anything can fail.
		state = &entity.SyncState{
			UserId:   userId,
			DeviceId: uuid.NewString(),
		}
		if err := stateRepo.Save(ctx, state); err != nil {
			return fmt.Errorf("creating sync state: %w", err)
		}
	}

	if !force && state.LastSyncAt != nil && m.now().Sub(*state.LastSyncAt) < m.cfg.MinInterval {
		m.logger.Debug("sync", "skipping round, minimum interval not reached", nil)
		return nil
	}

	startedAt := m.now()

	// Bootstrap: local-only usage may have seeded content (welcome note)
	// the server has never seen; that round must upload everything.
	seeded := false
	if !state.HasUploadedLocal {
		seeded, err = m.noteSvc.EnsureWelcomeNote(ctx, userId, state.DeviceId)
		if err != nil {
			return m.failRound(ctx, state, fmt.Errorf("seeding welcome note: %w", err))
		}
	}

	var since *time.Time
	if state.HasUploadedLocal && state.LastSyncAt != nil {
		since = state.LastSyncAt
	}

	req, err := m.payloadSvc.Build(ctx, userId, state.DeviceId, since, state.Cursor)
	if err != nil {
		return m.failRound(ctx, state, fmt.Errorf("building sync payload: %w", err))
	}

	resp, err := m.client.Exchange(ctx, token, req)
	if err != nil {
		if errors.Is(err, syncerr.ErrUnauthorized) {
			return m.handleUnauthorized(ctx, state, err)
		}
		return m.failRound(ctx, state, err)
	}

	result, err := m.applySvc.Apply(ctx, userId, state.DeviceId, resp)
	if err != nil {
		return m.failRound(ctx, state, err)
	}

	if err := m.finishRound(ctx, userId, state, req, resp, startedAt, seeded); err != nil {
		return err
	}

	m.publishIndexEvents(ctx, result)

	m.logger.Info("sync", "round completed", map[string]interface{}{
		"uploaded_notes":   len(req.Notes),
		"uploaded_tags":    len(req.Tags),
		"downloaded_notes": len(resp.Changes.Notes),
		"downloaded_tags":  len(resp.Changes.Tags),
		"seeded":           seeded,
	})
	return nil
}

// finishRound persists success state: acknowledged tombstones leave the
// queue, the cursor advances (only when the server sent one), and the
// anchor moves to the round's start time. Using round-start rather than
// server time means edits made during a slow round are re-selected next
// round instead of being skipped under clock skew.
func (m *syncManager) finishRound(ctx context.Context, userId uuid.UUID, state *entity.SyncState, req *dto.SyncRequest, resp *dto.SyncResponse, startedAt time.Time, seeded bool) error {
	uow := m.uowFactory.NewUnitOfWork(ctx)

	queue := uow.HardDeleteRepository()
	if err := queue.Remove(ctx, userId, entity.EntityTypeNote, req.HardDeletedNoteIds); err != nil {
		return fmt.Errorf("dequeueing note tombstones: %w", err)
	}
	if err := queue.Remove(ctx, userId, entity.EntityTypeTag, req.HardDeletedTagIds); err != nil {
		return fmt.Errorf("dequeueing tag tombstones: %w", err)
	}

	noteCount, err := uow.NoteRepository().Count(ctx,
		specification.OwnedByUser{UserID: userId}, specification.IncludeTrashed{})
	if err != nil {
		return fmt.Errorf("counting local notes: %w", err)
	}
	tagCount, err := uow.TagRepository().Count(ctx,
		specification.OwnedByUser{UserID: userId}, specification.IncludeTrashed{})
	if err != nil {
		return fmt.Errorf("counting local tags: %w", err)
	}

	if resp.Cursor != "" {
		state.Cursor = resp.Cursor
	}
	anchor := startedAt
	state.LastSyncAt = &anchor
	state.HasUploadedLocal = noteCount+tagCount > 0
	state.LastError = ""

	if seeded {
		// Freshly seeded content must reconcile against whatever the
		// server already holds; reset the window and owe a follow-up.
		state.Cursor = ""
		state.LastSyncAt = nil
		m.mu.Lock()
		m.pending = true
		m.mu.Unlock()
	}

	if err := uow.SyncStateRepository().Save(ctx, state); err != nil {
		return fmt.Errorf("saving sync state: %w", err)
	}
	return nil
}

func (m *syncManager) handleUnauthorized(ctx context.Context, state *entity.SyncState, cause error) error {
	stillSignedIn, checkErr := m.auth.CheckSession(ctx)
	if checkErr == nil && !stillSignedIn {
		m.auth.SignOut()
		return m.failRound(ctx, state, fmt.Errorf("%w: session expired, sign in again", syncerr.ErrUnauthorized))
	}
	// The session layer says we are still signed in; treat the rejection
	// as transient and leave re-auth out of it.
	return m.failRound(ctx, state, fmt.Errorf("transient authorization failure: %v", cause))
}

// failRound records the user-facing error without touching any anchor:
// cursor, lastSyncAt and the tombstone queue stay as they were, so the
// next attempt retries the same window.
func (m *syncManager) failRound(ctx context.Context, state *entity.SyncState, cause error) error {
	state.LastError = cause.Error()
	uow := m.uowFactory.NewUnitOfWork(ctx)
	if saveErr := uow.SyncStateRepository().Save(ctx, state); saveErr != nil {
		m.logger.Error("sync", "failed to record sync error", map[string]interface{}{
			"error": saveErr.Error(),
		})
	}
	m.logger.Error("sync", "round failed", map[string]interface{}{"error": cause.Error()})
	return cause
}

func (m *syncManager) publishIndexEvents(ctx context.Context, result *ApplyResult) {
	if m.publisher == nil {
		return
	}
	if len(result.ChangedNoteIds) > 0 {
		payload, _ := json.Marshal(dto.ReindexNotesMessage{NoteIds: result.ChangedNoteIds})
		if err := m.publisher.Publish(ctx, constant.TopicReindexNotes, payload); err != nil {
			m.logger.Warn("sync", "failed to publish reindex event", map[string]interface{}{"error": err.Error()})
		}
	}
	if len(result.RemovedNoteIds) > 0 {
		payload, _ := json.Marshal(dto.RemoveNotesFromIndexMessage{NoteIds: result.RemovedNoteIds})
		if err := m.publisher.Publish(ctx, constant.TopicRemoveNotesFromIndex, payload); err != nil {
			m.logger.Warn("sync", "failed to publish index removal event", map[string]interface{}{"error": err.Error()})
		}
	}
}
