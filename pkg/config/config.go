package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the root configuration for the identity broker.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Notif    NotifConfig
}

// AppConfig configures the HTTP server.
type AppConfig struct {
	Name        string
	Port        string
	CORSOrigins string
	Debug       bool
}

// DatabaseConfig configures the Postgres connection.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// RedisConfig configures the Redis connection.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Address returns the host:port address of the Redis server.
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// AuthConfig configures authentication policy shared across projects.
// Per-project token policy (secret, algorithm, access lifetime) lives on the
// project record itself.
type AuthConfig struct {
	RefreshTokenTTL      time.Duration
	InvitationTTL        time.Duration
	BcryptCost           int
	MinPasswordLength    int
	DefaultAccessMinutes int

	// AdminToken authorizes project provisioning. Empty disables the
	// provisioning endpoints.
	AdminToken string
}

// NotifConfig configures invitation email delivery.
type NotifConfig struct {
	Provider    string // "console" or "ses"
	FromAddress string
	AWSRegion   string
}

// Load reads configuration from the environment, with .env support.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "identity-broker"),
			Port:        getEnv("PORT", "8080"),
			CORSOrigins: getEnv("CORS_ORIGINS", "*"),
			Debug:       getEnvBool("DEBUG", false),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "identity"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			RefreshTokenTTL:      getEnvDuration("AUTH_REFRESH_TOKEN_TTL", 7*24*time.Hour),
			InvitationTTL:        getEnvDuration("AUTH_INVITATION_TTL", 7*24*time.Hour),
			BcryptCost:           getEnvInt("AUTH_BCRYPT_COST", 10),
			MinPasswordLength:    getEnvInt("AUTH_MIN_PASSWORD_LENGTH", 8),
			DefaultAccessMinutes: getEnvInt("AUTH_DEFAULT_ACCESS_MINUTES", 30),
			AdminToken:           getEnv("AUTH_ADMIN_TOKEN", ""),
		},
		Notif: NotifConfig{
			Provider:    getEnv("NOTIF_PROVIDER", "console"),
			FromAddress: getEnv("NOTIF_FROM_ADDRESS", "noreply@gestion-saas.com"),
			AWSRegion:   getEnv("NOTIF_AWS_REGION", getEnv("AWS_REGION", "us-east-1")),
		},
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
