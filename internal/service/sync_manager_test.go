package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"notesync/internal/config"
	"notesync/internal/dto"
	"notesync/internal/entity"
	"notesync/internal/pkg/logger"
	"notesync/internal/repository/memory"
	"notesync/internal/syncerr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu       sync.Mutex
	requests []*dto.SyncRequest
	respond  func(req *dto.SyncRequest) (*dto.SyncResponse, error)
}

func (f *fakeClient) Exchange(ctx context.Context, token string, req *dto.SyncRequest) (*dto.SyncResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return f.respond(req)
}

func (f *fakeClient) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeClient) request(i int) *dto.SyncRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[i]
}

type fakeAuth struct {
	mu           sync.Mutex
	userId       uuid.UUID
	sessionValid bool
	signedOut    bool
}

func (f *fakeAuth) UserId() (uuid.UUID, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signedOut {
		return uuid.Nil, false
	}
	return f.userId, true
}

func (f *fakeAuth) Token(ctx context.Context) (string, error) { return "test-token", nil }

func (f *fakeAuth) CheckSession(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessionValid, nil
}

func (f *fakeAuth) SignOut() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signedOut = true
}

func (f *fakeAuth) isSignedOut() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signedOut
}

func okResponse(cursor string) func(req *dto.SyncRequest) (*dto.SyncResponse, error) {
	return func(req *dto.SyncRequest) (*dto.SyncResponse, error) {
		return &dto.SyncResponse{
			Cursor:     cursor,
			ServerTime: time.Now().UTC(),
			Changes: dto.SyncChanges{
				Notes:              []dto.NoteSyncDTO{},
				Tags:               []dto.TagSyncDTO{},
				HardDeletedNoteIds: []uuid.UUID{},
				HardDeletedTagIds:  []uuid.UUID{},
			},
		}, nil
	}
}

type managerFixture struct {
	store   *memory.Store
	client  *fakeClient
	auth    *fakeAuth
	manager ISyncManager
	userId  uuid.UUID
}

func newManagerFixture(t *testing.T, cfg config.SyncConfig, client *fakeClient) *managerFixture {
	t.Helper()
	store := memory.NewStore()
	log := logger.NewNopLogger()
	factory := store.Factory()
	auth := &fakeAuth{userId: uuid.New(), sessionValid: true}
	noteSvc := NewNoteService(factory, nil, log)

	manager := NewSyncManager(
		cfg,
		factory,
		NewPayloadService(factory),
		NewApplyService(factory, log, cfg.RetentionDays),
		noteSvc,
		client,
		auth,
		nil,
		log,
	)
	return &managerFixture{
		store:   store,
		client:  client,
		auth:    auth,
		manager: manager,
		userId:  auth.userId,
	}
}

func defaultSyncConfig() config.SyncConfig {
	return config.SyncConfig{
		Enabled:       true,
		ServerURL:     "http://localhost:8787",
		MinInterval:   30 * time.Second,
		RetentionDays: 30,
	}
}

func (f *managerFixture) syncState(t *testing.T) *entity.SyncState {
	t.Helper()
	uow := f.store.Factory().NewUnitOfWork(context.Background())
	state, err := uow.SyncStateRepository().Get(context.Background(), f.userId)
	require.NoError(t, err)
	return state
}

func (f *managerFixture) saveSyncState(t *testing.T, state *entity.SyncState) {
	t.Helper()
	uow := f.store.Factory().NewUnitOfWork(context.Background())
	require.NoError(t, uow.SyncStateRepository().Save(context.Background(), state))
}

func TestSyncNowDisabled(t *testing.T) {
	cfg := defaultSyncConfig()
	cfg.Enabled = false
	fx := newManagerFixture(t, cfg, &fakeClient{respond: okResponse("1")})

	err := fx.manager.SyncNow(context.Background())
	assert.ErrorIs(t, err, syncerr.ErrDisabled)
	assert.Zero(t, fx.client.count())
}

func TestSyncNowWithoutServerURL(t *testing.T) {
	cfg := defaultSyncConfig()
	cfg.ServerURL = ""
	fx := newManagerFixture(t, cfg, &fakeClient{respond: okResponse("1")})

	err := fx.manager.SyncNow(context.Background())
	assert.ErrorIs(t, err, syncerr.ErrInvalidConfiguration)
	assert.Zero(t, fx.client.count())
}

func TestFirstSyncSeedsWelcomeNoteAndSchedulesFollowUp(t *testing.T) {
	fx := newManagerFixture(t, defaultSyncConfig(), &fakeClient{respond: okResponse("5")})

	require.NoError(t, fx.manager.SyncNow(context.Background()))

	first := fx.client.request(0)
	assert.Nil(t, first.Cursor)
	require.Len(t, first.Notes, 1, "the seeded welcome note uploads in the first round")

	// The seeding round owes a full follow-up round.
	require.Eventually(t, func() bool { return fx.client.count() >= 2 },
		2*time.Second, 10*time.Millisecond)
	second := fx.client.request(1)
	assert.Nil(t, second.Cursor, "follow-up after seeding re-reads from scratch")

	require.Eventually(t, func() bool {
		state := fx.syncState(t)
		return state != nil && state.HasUploadedLocal && state.LastSyncAt != nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSuccessfulRoundAdvancesAnchorAndCursor(t *testing.T) {
	fx := newManagerFixture(t, defaultSyncConfig(), &fakeClient{respond: okResponse("7")})

	old := time.Now().Add(-time.Hour)
	fx.saveSyncState(t, &entity.SyncState{
		UserId:           fx.userId,
		DeviceId:         "device-1",
		LastSyncAt:       &old,
		Cursor:           "3",
		HasUploadedLocal: true,
		LastError:        "previous failure",
	})
	seedNote(t, fx.store, &entity.Note{
		Id:        uuid.New(),
		Content:   "changed since anchor",
		UserId:    fx.userId,
		CreatedAt: time.Now().Add(-time.Minute),
	})

	before := time.Now()
	require.NoError(t, fx.manager.SyncNow(context.Background()))

	state := fx.syncState(t)
	require.NotNil(t, state)
	assert.Equal(t, "7", state.Cursor)
	assert.Empty(t, state.LastError)
	require.NotNil(t, state.LastSyncAt)
	assert.False(t, state.LastSyncAt.Before(before), "anchor moves to the round's start time")

	req := fx.client.request(0)
	require.NotNil(t, req.Cursor)
	assert.Equal(t, "3", *req.Cursor)
	assert.Equal(t, "device-1", req.DeviceId)
}

func TestEmptyResponseCursorKeepsPrevious(t *testing.T) {
	fx := newManagerFixture(t, defaultSyncConfig(), &fakeClient{respond: okResponse("")})

	old := time.Now().Add(-time.Hour)
	fx.saveSyncState(t, &entity.SyncState{
		UserId:           fx.userId,
		DeviceId:         "device-1",
		LastSyncAt:       &old,
		Cursor:           "3",
		HasUploadedLocal: true,
	})
	seedNote(t, fx.store, &entity.Note{
		Id:        uuid.New(),
		Content:   "anything",
		UserId:    fx.userId,
		CreatedAt: time.Now(),
	})

	require.NoError(t, fx.manager.SyncNow(context.Background()))
	assert.Equal(t, "3", fx.syncState(t).Cursor)
}

func TestAcknowledgedTombstonesLeaveQueue(t *testing.T) {
	lateId := uuid.New()
	var fx *managerFixture
	client := &fakeClient{}
	client.respond = func(req *dto.SyncRequest) (*dto.SyncResponse, error) {
		// A deletion that happens while the round is in flight must not
		// be acknowledged by this round.
		uow := fx.store.Factory().NewUnitOfWork(context.Background())
		_ = uow.HardDeleteRepository().Enqueue(
			context.Background(), fx.userId, entity.EntityTypeNote, []uuid.UUID{lateId})
		return okResponse("9")(req)
	}
	fx = newManagerFixture(t, defaultSyncConfig(), client)

	queuedId := uuid.New()
	old := time.Now().Add(-time.Hour)
	fx.saveSyncState(t, &entity.SyncState{
		UserId:           fx.userId,
		DeviceId:         "device-1",
		LastSyncAt:       &old,
		Cursor:           "3",
		HasUploadedLocal: true,
	})
	seedNote(t, fx.store, &entity.Note{
		Id:        uuid.New(),
		Content:   "keeps hasUploadedLocal true",
		UserId:    fx.userId,
		CreatedAt: time.Now(),
	})
	uow := fx.store.Factory().NewUnitOfWork(context.Background())
	require.NoError(t, uow.HardDeleteRepository().Enqueue(
		context.Background(), fx.userId, entity.EntityTypeNote, []uuid.UUID{queuedId}))

	require.NoError(t, fx.manager.SyncNow(context.Background()))

	remaining, err := uow.HardDeleteRepository().List(context.Background(), fx.userId, entity.EntityTypeNote)
	require.NoError(t, err)
	assert.NotContains(t, remaining, queuedId, "uploaded tombstones are acknowledged")
	assert.Contains(t, remaining, lateId, "tombstones enqueued mid-round wait for the next one")
}

func TestFailedRoundLeavesAnchorsUntouched(t *testing.T) {
	client := &fakeClient{respond: func(req *dto.SyncRequest) (*dto.SyncResponse, error) {
		return nil, syncerr.ErrServerError
	}}
	fx := newManagerFixture(t, defaultSyncConfig(), client)

	old := time.Now().Add(-time.Hour)
	fx.saveSyncState(t, &entity.SyncState{
		UserId:           fx.userId,
		DeviceId:         "device-1",
		LastSyncAt:       &old,
		Cursor:           "3",
		HasUploadedLocal: true,
	})
	queuedId := uuid.New()
	uow := fx.store.Factory().NewUnitOfWork(context.Background())
	require.NoError(t, uow.HardDeleteRepository().Enqueue(
		context.Background(), fx.userId, entity.EntityTypeNote, []uuid.UUID{queuedId}))

	err := fx.manager.SyncNow(context.Background())
	assert.ErrorIs(t, err, syncerr.ErrServerError)

	state := fx.syncState(t)
	assert.Equal(t, "3", state.Cursor)
	require.NotNil(t, state.LastSyncAt)
	assert.True(t, state.LastSyncAt.Equal(old))
	assert.NotEmpty(t, state.LastError)
	assert.NotEmpty(t, fx.manager.LastError())

	remaining, err := uow.HardDeleteRepository().List(context.Background(), fx.userId, entity.EntityTypeNote)
	require.NoError(t, err)
	assert.Contains(t, remaining, queuedId)
}

func TestUnauthorizedWithDeadSessionSignsOut(t *testing.T) {
	client := &fakeClient{respond: func(req *dto.SyncRequest) (*dto.SyncResponse, error) {
		return nil, syncerr.ErrUnauthorized
	}}
	fx := newManagerFixture(t, defaultSyncConfig(), client)
	fx.auth.mu.Lock()
	fx.auth.sessionValid = false
	fx.auth.mu.Unlock()

	err := fx.manager.SyncNow(context.Background())
	assert.ErrorIs(t, err, syncerr.ErrUnauthorized)
	assert.True(t, fx.auth.isSignedOut())
}

func TestUnauthorizedWithLiveSessionIsTransient(t *testing.T) {
	client := &fakeClient{respond: func(req *dto.SyncRequest) (*dto.SyncResponse, error) {
		return nil, syncerr.ErrUnauthorized
	}}
	fx := newManagerFixture(t, defaultSyncConfig(), client)

	err := fx.manager.SyncNow(context.Background())
	require.Error(t, err)
	assert.False(t, fx.auth.isSignedOut())
}

func TestRequestSyncHonorsMinimumInterval(t *testing.T) {
	fx := newManagerFixture(t, defaultSyncConfig(), &fakeClient{respond: okResponse("1")})

	recent := time.Now().Add(-time.Second)
	fx.saveSyncState(t, &entity.SyncState{
		UserId:           fx.userId,
		DeviceId:         "device-1",
		LastSyncAt:       &recent,
		HasUploadedLocal: true,
	})

	require.NoError(t, fx.manager.RequestSync(context.Background()))
	assert.Zero(t, fx.client.count(), "opportunistic sync waits out the interval")

	require.NoError(t, fx.manager.SyncNow(context.Background()))
	assert.Equal(t, 1, fx.client.count(), "forced sync ignores the interval")
}

func TestConcurrentRequestsCoalesce(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	var once sync.Once
	client := &fakeClient{}
	client.respond = func(req *dto.SyncRequest) (*dto.SyncResponse, error) {
		once.Do(func() {
			close(entered)
			<-release
		})
		return okResponse("1")(req)
	}
	fx := newManagerFixture(t, defaultSyncConfig(), client)

	old := time.Now().Add(-time.Hour)
	fx.saveSyncState(t, &entity.SyncState{
		UserId:           fx.userId,
		DeviceId:         "device-1",
		LastSyncAt:       &old,
		HasUploadedLocal: true,
	})
	seedNote(t, fx.store, &entity.Note{
		Id:        uuid.New(),
		Content:   "local content",
		UserId:    fx.userId,
		CreatedAt: time.Now(),
	})

	done := make(chan error, 1)
	go func() { done <- fx.manager.SyncNow(context.Background()) }()
	<-entered
	assert.Equal(t, StatusSyncing, fx.manager.Status())

	// Several requests during one round coalesce into a single follow-up.
	require.NoError(t, fx.manager.SyncNow(context.Background()))
	require.NoError(t, fx.manager.RequestSync(context.Background()))
	require.NoError(t, fx.manager.RequestSync(context.Background()))

	close(release)
	require.NoError(t, <-done)

	require.Eventually(t, func() bool { return fx.client.count() == 2 },
		2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, fx.client.count(), "exactly one follow-up round runs")
	assert.Equal(t, StatusIdle, fx.manager.Status())
}
