package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends selectable by Backend.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendGCS      = "gcs"
)

var postgresURL = regexp.MustCompile(`(?i)^postgres(ql)?://`)

type EnvConfig struct {
	// http config
	APP_PORT string
	// storage selection
	STORAGE_BACKEND string
	DATABASE_URL    string
	SQLITE_PATH     string
	// object storage config
	GCS_BUCKET          string
	GCS_PREFIX          string
	OBJECT_SCAN_WORKERS int
	// database pool config
	DB_CONN_MAX_LIFETIME time.Duration
	DB_MAX_IDLE_CONNS    int
	DB_MAX_OPEN_CONNS    int
	// logger config
	LOG_FILE_PATH string
	LOG_LEVEL     string
}

// LoadEnvConfig reads the process environment, seeded from a .env file when one exists.
func LoadEnvConfig() (*EnvConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	return &EnvConfig{
		APP_PORT:             getEnvString("APP_PORT", getEnvString("PORT", "8080")),
		STORAGE_BACKEND:      strings.ToLower(strings.TrimSpace(os.Getenv("STORAGE_BACKEND"))),
		DATABASE_URL:         getEnvString("DATABASE_URL", ""),
		SQLITE_PATH:          getEnvString("SQLITE_PATH", "data/dev.db"),
		GCS_BUCKET:           getEnvString("GCS_BUCKET", ""),
		GCS_PREFIX:           strings.TrimRight(getEnvString("GCS_PREFIX", "feeltime"), "/"),
		OBJECT_SCAN_WORKERS:  getEnvInt("OBJECT_SCAN_WORKERS", 0),
		DB_CONN_MAX_LIFETIME: getEnvDuration("DB_CONN_MAX_LIFETIME", 20*time.Minute),
		DB_MAX_IDLE_CONNS:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		DB_MAX_OPEN_CONNS:    getEnvInt("DB_MAX_OPEN_CONNS", 5),
		LOG_FILE_PATH:        getEnvString("LOG_FILE_PATH", ""),
		LOG_LEVEL:            getEnvString("LOG_LEVEL", "info"),
	}, nil
}

// Backend resolves the storage backend: an explicit STORAGE_BACKEND wins, then a postgres
// DATABASE_URL, then the embedded database.
func (c *EnvConfig) Backend() (string, error) {
	switch c.STORAGE_BACKEND {
	case "gcs", "object-storage":
		if c.GCS_BUCKET == "" {
			return "", fmt.Errorf("STORAGE_BACKEND=%s requires GCS_BUCKET", c.STORAGE_BACKEND)
		}
		return BackendGCS, nil
	case "postgres", "networked":
		if !postgresURL.MatchString(c.DATABASE_URL) {
			return "", fmt.Errorf("STORAGE_BACKEND=%s requires a postgres:// DATABASE_URL", c.STORAGE_BACKEND)
		}
		return BackendPostgres, nil
	case "sqlite", "embedded":
		return BackendSQLite, nil
	case "":
	default:
		return "", fmt.Errorf("unknown STORAGE_BACKEND %q", c.STORAGE_BACKEND)
	}

	if postgresURL.MatchString(c.DATABASE_URL) {
		return BackendPostgres, nil
	}
	return BackendSQLite, nil
}

func getEnvString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if i, err := strconv.Atoi(val); err == nil {
			return time.Duration(i) * time.Second
		}
	}
	return fallback
}
