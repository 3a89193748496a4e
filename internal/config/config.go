package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App  AppConfig
	Sync SyncConfig
}

type AppConfig struct {
	Environment string
	LogFilePath string
	DBPath      string
}

type SyncConfig struct {
	Enabled       bool
	ServerURL     string
	AuthToken     string
	UserId        string
	MinInterval   time.Duration
	RetentionDays int
	HTTPTimeout   time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "notesync.log"),
			DBPath:      getEnv("DB_PATH", "notesync.db"),
		},
		Sync: SyncConfig{
			Enabled:       getEnvAsBool("SYNC_ENABLED", true),
			ServerURL:     getEnv("SYNC_SERVER_URL", ""),
			AuthToken:     getEnv("SYNC_AUTH_TOKEN", ""),
			UserId:        getEnv("SYNC_USER_ID", ""),
			MinInterval:   time.Duration(getEnvAsInt("SYNC_MIN_INTERVAL_SECONDS", 30)) * time.Second,
			RetentionDays: getEnvAsInt("TRASH_RETENTION_DAYS", 30),
			HTTPTimeout:   time.Duration(getEnvAsInt("SYNC_HTTP_TIMEOUT_SECONDS", 30)) * time.Second,
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
