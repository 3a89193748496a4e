package integration

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"notesync/internal/entity"
	"notesync/internal/repository/specification"
	"notesync/internal/repository/unitofwork"
	"notesync/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSqliteWiring(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	if os.Getenv("RUN_SQLITE_INTEGRATION") == "" {
		t.Skip("Skipping integration test: RUN_SQLITE_INTEGRATION not set")
	}

	dbPath := filepath.Join(t.TempDir(), "notesync-test.db")
	gormDB, err := database.NewSqliteDB(dbPath)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(gormDB))

	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.NoteRepository())
	assert.NotNil(t, uow.TagRepository())
	assert.NotNil(t, uow.HardDeleteRepository())
	assert.NotNil(t, uow.SyncStateRepository())
	assert.NotNil(t, uow.SyncConflictRepository())
}

func TestSqliteNoteLifecycle(t *testing.T) {
	if os.Getenv("RUN_SQLITE_INTEGRATION") == "" {
		t.Skip("Skipping integration test: RUN_SQLITE_INTEGRATION not set")
	}

	dbPath := filepath.Join(t.TempDir(), "notesync-test.db")
	gormDB, err := database.NewSqliteDB(dbPath)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(gormDB))

	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(gormDB).NewUnitOfWork(ctx)
	userId := uuid.New()

	note := &entity.Note{
		Id:        uuid.New(),
		Content:   "persisted",
		UserId:    userId,
		CreatedAt: time.Now().UTC(),
		Version:   1,
	}
	require.NoError(t, uow.NoteRepository().Create(ctx, note))

	loaded, err := uow.NoteRepository().FindOne(ctx,
		specification.ByID{ID: note.Id},
		specification.OwnedByUser{UserID: userId},
	)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "persisted", loaded.Content)

	// Soft delete hides the row from scoped queries but not from the
	// trash-aware ones.
	deletedAt := time.Now().UTC()
	loaded.DeletedAt = &deletedAt
	loaded.IsDeleted = true
	require.NoError(t, uow.NoteRepository().Upsert(ctx, loaded))

	hidden, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: note.Id})
	require.NoError(t, err)
	assert.Nil(t, hidden)

	visible, err := uow.NoteRepository().FindOne(ctx,
		specification.ByID{ID: note.Id},
		specification.IncludeTrashed{},
	)
	require.NoError(t, err)
	require.NotNil(t, visible)
	assert.NotNil(t, visible.DeletedAt)

	require.NoError(t, uow.NoteRepository().HardDelete(ctx, note.Id))
	gone, err := uow.NoteRepository().FindOne(ctx,
		specification.ByID{ID: note.Id},
		specification.IncludeTrashed{},
	)
	require.NoError(t, err)
	assert.Nil(t, gone)
}
