package bootstrap

import (
	"fmt"
	"net/http"
	"time"

	"notesync/internal/config"
	"notesync/internal/pkg/logger"
	"notesync/internal/repository/unitofwork"
	"notesync/internal/search"
	"notesync/internal/service"
	"notesync/internal/transport"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Container struct {
	Logger logger.ILogger

	NoteService  service.INoteService
	TagService   service.ITagService
	TrashService service.ITrashService
	SyncManager  service.ISyncManager
	Auth         service.AuthProvider

	// Background consumers, run by main.
	IndexConsumer *search.IndexConsumer
}

func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermillLogger)
	publisherService := service.NewPublisherService(pubSub)

	// 3. Auth
	userId, err := uuid.Parse(cfg.Sync.UserId)
	if err != nil && cfg.Sync.Enabled {
		return nil, fmt.Errorf("invalid SYNC_USER_ID: %w", err)
	}
	auth := service.NewStaticTokenAuth(userId, cfg.Sync.AuthToken)

	// 4. Services
	noteService := service.NewNoteService(uowFactory, publisherService, sysLogger)
	tagService := service.NewTagService(uowFactory, sysLogger)
	trashService := service.NewTrashService(uowFactory, sysLogger,
		time.Duration(cfg.Sync.RetentionDays)*24*time.Hour)
	payloadService := service.NewPayloadService(uowFactory)
	applyService := service.NewApplyService(uowFactory, sysLogger, cfg.Sync.RetentionDays)

	// 5. Transport
	httpClient := &http.Client{Timeout: cfg.Sync.HTTPTimeout}
	syncClient := transport.NewHTTPClient(cfg.Sync.ServerURL, httpClient, sysLogger)

	// 6. Orchestration
	syncManager := service.NewSyncManager(
		cfg.Sync,
		uowFactory,
		payloadService,
		applyService,
		noteService,
		syncClient,
		auth,
		publisherService,
		sysLogger,
	)

	// 7. Background consumers
	indexConsumer := search.NewIndexConsumer(pubSub, search.NoopIndex{}, sysLogger)

	return &Container{
		Logger:        sysLogger,
		NoteService:   noteService,
		TagService:    tagService,
		TrashService:  trashService,
		SyncManager:   syncManager,
		Auth:          auth,
		IndexConsumer: indexConsumer,
	}, nil
}
