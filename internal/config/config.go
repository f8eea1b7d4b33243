package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Insecure fallbacks used when secrets are not configured.
const (
	DevSessionSecret = "default-secret-key-change-me"
	DevJWTSecret     = "dev-secret-key"
)

type Config struct {
	// AppEnv is "development", "production" or empty. Development behaviour is opt-in.
	AppEnv  string
	Port    string
	GinMode string

	// Database
	DBDriver   string
	DBDSN      string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Record tables
	UsersTable           string
	TasksTable           string
	TaskAssignmentsTable string
	CommentsTable        string
	TaskStore            string // "db" or "memory"

	// Sessions
	RedisHost     string
	RedisPort     string
	SessionSecret string

	// Tokens
	JWTSecret string

	// Object storage
	AWSRegion       string
	S3Bucket        string
	AWSAccessKey    string
	AWSSecretKey    string
	S3Endpoint      string
	StorageTimeout  time.Duration
	DevAllowPresign bool

	// Remote task API
	RemoteAPIURL  string
	RemoteTimeout time.Duration

	SentryDSN string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		AppEnv:  getEnv("APP_ENV", ""),
		Port:    getEnv("PORT", "3000"),
		GinMode: getEnv("GIN_MODE", "debug"),

		DBDriver:   getEnv("DB_DRIVER", "sqlite"),
		DBDSN:      getEnv("DB_DSN", ""),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "taskuser"),
		DBPassword: getEnv("DB_PASSWORD", "taskpassword"),
		DBName:     getEnv("DB_NAME", "task_management"),

		UsersTable:           getEnv("USERS_TABLE", "users"),
		TasksTable:           getEnv("TASKS_TABLE", "tasks"),
		TaskAssignmentsTable: getEnv("TASK_ASSIGNMENTS_TABLE", "task_assignments"),
		CommentsTable:        getEnv("COMMENTS_TABLE", "comments"),
		TaskStore:            getEnv("TASK_STORE", "db"),

		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		SessionSecret: getEnv("SESSION_SECRET", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),

		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
		S3Bucket:        getEnv("AWS_S3_BUCKET", getEnv("S3_BUCKET", "")),
		AWSAccessKey:    getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:    getEnv("AWS_SECRET_ACCESS_KEY", ""),
		S3Endpoint:      getEnv("S3_ENDPOINT", ""),
		StorageTimeout:  getDuration("STORAGE_TIMEOUT", 10*time.Second),
		DevAllowPresign: getBool("DEV_ALLOW_PRESIGN", false),

		RemoteAPIURL:  getEnv("AWS_API_URL", ""),
		RemoteTimeout: getDuration("REMOTE_TIMEOUT", 10*time.Second),

		SentryDSN: getEnv("SENTRY_DSN", ""),
	}

	if cfg.SessionSecret == "" {
		slog.Warn("SESSION_SECRET not set, using insecure development default")
		cfg.SessionSecret = DevSessionSecret
	}
	if cfg.JWTSecret == "" {
		slog.Warn("JWT_SECRET not set, using insecure development default")
		cfg.JWTSecret = DevJWTSecret
	}

	return cfg
}

// Validate rejects development fallbacks outside development.
func (c *Config) Validate() error {
	if !c.IsProduction() {
		return nil
	}
	if c.SessionSecret == DevSessionSecret {
		return fmt.Errorf("SESSION_SECRET must be set in production")
	}
	if c.JWTSecret == DevJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// PresignBypass reports whether presign endpoints may be called without a session.
// Both switches must be set explicitly.
func (c *Config) PresignBypass() bool {
	return c.IsDevelopment() || c.DevAllowPresign
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getBool(key string, defaultValue bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", defaultValue)
		return defaultValue
	}
	return b
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", defaultValue)
		return defaultValue
	}
	return d
}
