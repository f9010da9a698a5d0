package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Storage   StorageConfig
	MongoDB   MongoDBConfig
	Auth      AuthConfig
	Seed      SeedConfig
	Sheets    SheetsConfig
	Scheduler SchedulerConfig
	Reporting ReportingConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port               string
	CORSAllowedOrigins []string
}

// LogConfig selects the zap configuration.
type LogConfig struct {
	Env   string
	Level string
}

// StorageConfig picks the repository backend.
type StorageConfig struct {
	Driver string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// AuthConfig holds session token settings.
type AuthConfig struct {
	JWTSecret     string
	JWTIssuer     string
	JWTExpiration time.Duration
}

// SeedConfig holds the bootstrap accounts. Empty passwords skip seeding.
type SeedConfig struct {
	AdminPassword     string
	RootPassword      string
	SuperRootUsername string
	SuperRootPassword string
}

// SheetsConfig contains configuration required to mirror bills into Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	BillsRange      string
}

// Enabled reports whether the bill sink is configured.
func (s SheetsConfig) Enabled() bool {
	return s.CredentialsPath != "" && s.SpreadsheetID != ""
}

// SchedulerConfig holds maintenance job schedules. An empty schedule disables the job.
type SchedulerConfig struct {
	Timezone          string
	SharePurgeCron    string
	ActivityPruneCron string
	ActivityRetention time.Duration
}

// ReportingConfig holds export options.
type ReportingConfig struct {
	PDFFontPath string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	expirationHours, err := getenvInt("JWT_EXPIRATION_HOURS", 24)
	if err != nil {
		return nil, err
	}
	retentionDays, err := getenvInt("ACTIVITY_RETENTION_DAYS", 3)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               getenvWithDefault("APP_PORT", "5001"),
			CORSAllowedOrigins: splitList(getenvWithDefault("CORS_ALLOWED_ORIGINS", "*")),
		},
		Log: LogConfig{
			Env:   getenvWithDefault("APP_ENV", "production"),
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(getenvWithDefault("STORAGE_DRIVER", StorageMongo)),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "sugarcane"),
		},
		Auth: AuthConfig{
			JWTSecret:     os.Getenv("JWT_SECRET"),
			JWTIssuer:     getenvWithDefault("JWT_ISSUER", "canebill"),
			JWTExpiration: time.Duration(expirationHours) * time.Hour,
		},
		Seed: SeedConfig{
			AdminPassword:     os.Getenv("SEED_ADMIN_PASSWORD"),
			RootPassword:      os.Getenv("SEED_ROOT_PASSWORD"),
			SuperRootUsername: getenvWithDefault("SUPER_ROOT_USERNAME", "Phat"),
			SuperRootPassword: os.Getenv("SUPER_ROOT_PASSWORD"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			BillsRange:      getenvWithDefault("GOOGLE_SHEET_BILLS_RANGE", "Bills!A:K"),
		},
		Scheduler: SchedulerConfig{
			Timezone:          getenvWithDefault("TIMEZONE", "Asia/Bangkok"),
			SharePurgeCron:    getenvWithDefault("SHARE_PURGE_CRON", "@hourly"),
			ActivityPruneCron: os.Getenv("ACTIVITY_PRUNE_CRON"),
			ActivityRetention: time.Duration(retentionDays) * 24 * time.Hour,
		},
		Reporting: ReportingConfig{
			PDFFontPath: os.Getenv("PDF_FONT_PATH"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Storage.Driver {
	case StorageMongo:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided")
		}
		if c.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must be provided")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageMongo, StorageMemory, c.Storage.Driver)
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET must be provided")
	}
	if c.Auth.JWTExpiration <= 0 {
		return errors.New("JWT_EXPIRATION_HOURS must be positive")
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be set together")
	}

	if c.Scheduler.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Scheduler.Timezone, err)
	}
	if c.Scheduler.ActivityRetention <= 0 {
		return errors.New("ACTIVITY_RETENTION_DAYS must be positive")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
