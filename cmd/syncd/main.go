package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notesync/internal/bootstrap"
	"notesync/internal/config"
	"notesync/internal/syncerr"
	"notesync/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewSqliteDB(cfg.App.DBPath)
	if err != nil {
		log.Panicf("Unable to open local database: %v", err)
	}
	if err := database.Migrate(gormDB); err != nil {
		log.Panicf("Unable to migrate local database: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(gormDB, cfg)
	if err != nil {
		log.Panicf("Unable to bootstrap: %v", err)
	}
	defer container.Logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Start Background Services
	go func() {
		log.Println("Background: Starting Index Consumer...")
		if err := container.IndexConsumer.Consume(ctx); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	// 5. Sync loop. The manager enforces its own minimum interval; the
	// ticker just gives it regular chances.
	if err := runLoop(ctx, container); err != nil {
		log.Printf("sync daemon stopped: %v", err)
	}
}

func runLoop(ctx context.Context, container *bootstrap.Container) error {
	userId, signedIn := container.Auth.UserId()

	// One eager round at startup, then opportunistic ticks.
	if err := container.SyncManager.SyncNow(ctx); err != nil {
		if !syncerr.Retryable(err) {
			log.Printf("sync unavailable: %v; running local-only", err)
		} else {
			log.Printf("initial sync failed: %v", err)
		}
	}

	syncTicker := time.NewTicker(30 * time.Second)
	defer syncTicker.Stop()
	purgeTicker := time.NewTicker(6 * time.Hour)
	defer purgeTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-syncTicker.C:
			if err := container.SyncManager.RequestSync(ctx); err != nil && syncerr.Retryable(err) {
				log.Printf("sync round failed: %v", err)
			}
		case <-purgeTicker.C:
			if !signedIn {
				continue
			}
			if _, err := container.TrashService.PurgeExpired(ctx, userId); err != nil {
				log.Printf("trash purge failed: %v", err)
			}
		}
	}
}
