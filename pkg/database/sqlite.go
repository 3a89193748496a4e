package database

import (
	"log"
	"os"
	"time"

	"notesync/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func getLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  true,
		},
	)
}

// NewSqliteDB opens (or creates) the local store. A single open
// connection enforces sqlite's single-writer discipline; UI reads and a
// background apply serialize through it.
func NewSqliteDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: getLogger(),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// Migrate creates or updates the local schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Note{},
		&model.NoteTag{},
		&model.Tag{},
		&model.SyncState{},
		&model.HardDelete{},
		&model.SyncConflict{},
	)
}
