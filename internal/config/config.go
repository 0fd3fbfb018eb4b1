package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
	Notify   NotifyConfig
	Email    EmailConfig
	Storage  StorageConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

type AuthConfig struct {
	JWTSecret       string
	TokenExpiry     time.Duration
	MaxLoginRetries int           // consecutive failures before lockout
	LockoutDuration time.Duration // how long a locked account stays locked
}

// NotifyConfig drives the daily upcoming-release notification run
type NotifyConfig struct {
	Hour          int    // local wall-clock hour of the daily run
	Minute        int
	Timezone      string // IANA zone name, e.g. "America/Sao_Paulo"
	LookaheadDays int    // notify about movies releasing within this many days
	MaxRetries    int    // delivery attempts per (user, movie) before giving up
	RetryCooldown time.Duration
}

type EmailConfig struct {
	AWSRegion   string
	FromAddress string
}

type StorageConfig struct {
	AWSRegion     string
	Bucket        string
	MaxUploadSize int64 // bytes
	PresignExpiry time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "marquee"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
		},
		Auth: AuthConfig{
			JWTSecret:       jwtSecret,
			TokenExpiry:     getEnvAsDuration("TOKEN_EXPIRY", 24*time.Hour),
			MaxLoginRetries: getEnvAsInt("MAX_LOGIN_RETRIES", 3),
			LockoutDuration: getEnvAsDuration("LOGIN_LOCKOUT_DURATION", 15*time.Minute),
		},
		Notify: NotifyConfig{
			Hour:          getEnvAsInt("NOTIFY_HOUR", 9),
			Minute:        getEnvAsInt("NOTIFY_MINUTE", 0),
			Timezone:      getEnv("NOTIFY_TIMEZONE", "America/Sao_Paulo"),
			LookaheadDays: getEnvAsInt("NOTIFY_LOOKAHEAD_DAYS", 1),
			MaxRetries:    getEnvAsInt("NOTIFY_MAX_RETRIES", 3),
			RetryCooldown: getEnvAsDuration("NOTIFY_RETRY_COOLDOWN", 5*time.Minute),
		},
		Email: EmailConfig{
			AWSRegion:   getEnv("AWS_REGION", "us-east-1"),
			FromAddress: getEnv("EMAIL_FROM_ADDRESS", "no-reply@marquee.dev"),
		},
		Storage: StorageConfig{
			AWSRegion:     getEnv("AWS_REGION", "us-east-1"),
			Bucket:        getEnv("AWS_S3_BUCKET", ""),
			MaxUploadSize: int64(getEnvAsInt("MAX_UPLOAD_SIZE_MB", 10)) << 20,
			PresignExpiry: getEnvAsDuration("PRESIGN_EXPIRY", 1*time.Hour),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if cfg.Notify.Hour < 0 || cfg.Notify.Hour > 23 {
		return nil, fmt.Errorf("NOTIFY_HOUR must be between 0 and 23 (got %d)", cfg.Notify.Hour)
	}
	if cfg.Notify.Minute < 0 || cfg.Notify.Minute > 59 {
		return nil, fmt.Errorf("NOTIFY_MINUTE must be between 0 and 59 (got %d)", cfg.Notify.Minute)
	}
	if _, err := time.LoadLocation(cfg.Notify.Timezone); err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_TIMEZONE %q: %w", cfg.Notify.Timezone, err)
	}

	// Validate JWT secret strength
	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Location resolves the configured notification time zone
func (c *NotifyConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		originsStr := getEnv("ALLOWED_ORIGINS", "")
		if originsStr == "" {
			return []string{}
		}
		origins := strings.Split(originsStr, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		return origins
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
		"http://127.0.0.1:5173",
	}
}
