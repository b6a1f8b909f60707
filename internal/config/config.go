package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	defaultAddr          = ":8080"
	defaultDatabaseDSN   = "farmnex.db"
	defaultStorageDir    = "./data/objects"
	defaultPublicBase    = "http://localhost:8080/files"
	defaultStorageFolder = "training-materials"
	defaultSignedSecret  = "change-me-signed-url-secret"
	defaultSignedTTL     = "1h"
)

// Config is the process-wide runtime configuration, loaded from environment
// variables with development defaults.
type Config struct {
	AppEnv        string
	Addr          string
	DatabaseDSN   string
	StorageDir    string
	PublicBaseURL string
	StorageFolder string
	SignedSecret  string
	SignedTTL     time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{}

	appEnv := strings.TrimSpace(getEnv("APP_ENV", ""))
	if appEnv == "" {
		appEnv = strings.TrimSpace(getEnv("ENV", "dev"))
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.Addr = strings.TrimSpace(getEnv("ADDR", defaultAddr))
	cfg.DatabaseDSN = strings.TrimSpace(getEnv("DATABASE_DSN", defaultDatabaseDSN))
	cfg.StorageDir = strings.TrimSpace(getEnv("STORAGE_DIR", defaultStorageDir))
	cfg.PublicBaseURL = strings.TrimRight(strings.TrimSpace(getEnv("PUBLIC_BASE_URL", defaultPublicBase)), "/")
	cfg.StorageFolder = strings.Trim(strings.TrimSpace(getEnv("STORAGE_FOLDER", defaultStorageFolder)), "/")
	cfg.SignedSecret = strings.TrimSpace(getEnv("SIGNED_URL_SECRET", defaultSignedSecret))

	var err error
	cfg.SignedTTL, err = parseDurationEnv("SIGNED_URL_TTL", defaultSignedTTL)
	if err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Addr == "" {
		return fmt.Errorf("ADDR must not be empty")
	}
	if cfg.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN must not be empty")
	}
	if cfg.StorageDir == "" {
		return fmt.Errorf("STORAGE_DIR must not be empty")
	}
	if cfg.StorageFolder == "" {
		return fmt.Errorf("STORAGE_FOLDER must not be empty")
	}
	if cfg.SignedTTL <= 0 {
		return fmt.Errorf("SIGNED_URL_TTL must be > 0")
	}
	if isProdLike(cfg.AppEnv) && isEmptyOrDefault(cfg.SignedSecret, defaultSignedSecret) {
		return fmt.Errorf("in prod/release SIGNED_URL_SECRET must be set and not default")
	}
	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
