package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Store drivers selectable with STORE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// devJWTSecret is only accepted when GIN_MODE is debug.
const devJWTSecret = "kredit_dev_secret_change_me"

type Config struct {
	// Server
	Port        string
	GinMode     string
	LogLevel    slog.Level
	CORSOrigins string
	AppEnv      string

	// Session tokens
	JWTSecret  string
	JWTExpiry  time.Duration
	BcryptCost int

	// Store
	StoreDriver   string
	SQLitePath    string
	DatabaseURL   string
	MongoURL      string
	MongoDatabase string

	// Workflow policy
	WorkflowStrict          bool
	WorkflowStampBackoffice bool

	SentryDSN string
}

// Load reads the configuration from the environment, after loading an
// optional .env file.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using process environment")
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		LogLevel:    parseLevel(getEnv("LOG_LEVEL", "info")),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		AppEnv:      getEnv("APP_ENV", "development"),

		JWTSecret:  getEnv("JWT_SECRET", ""),
		JWTExpiry:  parseDuration(getEnv("JWT_EXPIRY", "168h"), 7*24*time.Hour),
		BcryptCost: parseInt(getEnv("BCRYPT_COST", ""), bcrypt.DefaultCost),

		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", DriverSQLite)),
		SQLitePath:    getEnv("SQLITE_PATH", "kredit.db"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		MongoURL:      getEnv("MONGO_URL", ""),
		MongoDatabase: getEnv("MONGO_DATABASE", "jkl_kredit"),

		WorkflowStrict:          parseBool(getEnv("WORKFLOW_STRICT", ""), false),
		WorkflowStampBackoffice: parseBool(getEnv("WORKFLOW_STAMP_BACKOFFICE", ""), false),

		SentryDSN: getEnv("SENTRY_DSN", ""),
	}
}

// Validate fills the development secret in debug mode and rejects
// configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		if c.GinMode != "debug" {
			return errors.New("JWT_SECRET environment variable is required")
		}
		slog.Warn("JWT_SECRET not set, using development secret")
		c.JWTSecret = devJWTSecret
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return errors.New("BCRYPT_COST out of range")
	}
	switch c.StoreDriver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	case DriverMongo:
		if c.MongoURL == "" {
			return errors.New("MONGO_URL is required for the mongo store")
		}
	default:
		return errors.New("STORE_DRIVER must be one of sqlite, postgres, mongo")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseBool(s string, fallback bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fallback
	}
	return b
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
