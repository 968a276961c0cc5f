// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/frontier/internal/reliability"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Price sources for optimisation runs
const (
	PriceSourceHistory = "history"
	PriceSourceYahoo   = "yahoo"
)

// Config holds application configuration
type Config struct {
	DataDir     string // Base directory for all databases (always absolute)
	LogLevel    string
	Port        int
	DevMode     bool
	PriceSource string // history reads the local database, yahoo queries the provider per request
	Workers     int    // Frontier solver goroutines, 0 = one per CPU
	CacheTTL    time.Duration

	SyncSchedule        string
	SyncLookbackDays    int
	BackupSchedule      string
	BackupRetentionDays int

	S3 *S3Config
}

// S3Config holds object storage credentials for database backups
type S3Config struct {
	Endpoint        string // Empty for AWS, account endpoint for R2
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Enabled reports whether backups can be uploaded
func (c *S3Config) Enabled() bool {
	return c != nil && c.Bucket != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// ToS3Config converts config.S3Config to reliability.S3Config
func (c *S3Config) ToS3Config() reliability.S3Config {
	return reliability.S3Config{
		Endpoint:        c.Endpoint,
		Bucket:          c.Bucket,
		Region:          c.Region,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
	}
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("FRONTIER_DATA_DIR", "./data")

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:             absDataDir,
		Port:                getEnvAsInt("GO_PORT", 8001),
		DevMode:             getEnvAsBool("DEV_MODE", false),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		PriceSource:         strings.ToLower(getEnv("PRICE_SOURCE", PriceSourceHistory)),
		Workers:             getEnvAsInt("FRONTIER_WORKERS", 0),
		CacheTTL:            time.Duration(getEnvAsInt("CACHE_TTL_HOURS", 24)) * time.Hour,
		SyncSchedule:        getEnv("SYNC_SCHEDULE", "0 30 22 * * MON-FRI"),
		SyncLookbackDays:    getEnvAsInt("SYNC_LOOKBACK_DAYS", 5*365),
		BackupSchedule:      getEnv("BACKUP_SCHEDULE", "0 0 3 * * *"),
		BackupRetentionDays: getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
		S3: &S3Config{
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			Bucket:          getEnv("S3_BUCKET", ""),
			Region:          getEnv("S3_REGION", "auto"),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configured values
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid GO_PORT %d", c.Port)
	}
	switch c.PriceSource {
	case PriceSourceHistory, PriceSourceYahoo:
	default:
		return fmt.Errorf("invalid PRICE_SOURCE %q, expected %q or %q", c.PriceSource, PriceSourceHistory, PriceSourceYahoo)
	}
	if c.Workers < 0 {
		return fmt.Errorf("FRONTIER_WORKERS must not be negative, got %d", c.Workers)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL_HOURS must be positive")
	}
	if c.SyncLookbackDays <= 0 {
		return fmt.Errorf("SYNC_LOOKBACK_DAYS must be positive, got %d", c.SyncLookbackDays)
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for name, schedule := range map[string]string{"SYNC_SCHEDULE": c.SyncSchedule, "BACKUP_SCHEDULE": c.BackupSchedule} {
		if schedule == "" {
			continue
		}
		if _, err := parser.Parse(schedule); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, schedule, err)
		}
	}

	// Partial credentials are almost always a typo in .env
	if c.S3 != nil && !c.S3.Enabled() && (c.S3.Bucket != "" || c.S3.AccessKeyID != "" || c.S3.SecretAccessKey != "") {
		return fmt.Errorf("incomplete S3 configuration: S3_BUCKET, S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY are all required")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
