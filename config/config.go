package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	S3       S3Config
	Mail     MailConfig
	Session  SessionConfig
	Catalog  CatalogConfig
	Shop     ShopConfig
	CORS     CORSConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// StorageConfig selects where cart snapshots live
type StorageConfig struct {
	Backend    string // memory, redis, postgres, sqlite, s3
	KeyPrefix  string
	SQLitePath string
	Timeout    time.Duration
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

type MailConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
	OwnerEmail     string
}

type SessionConfig struct {
	Secret        string
	TokenExpiry   time.Duration
	IdleTTL       time.Duration
	SweepSchedule string
	CookieName    string
}

type CatalogConfig struct {
	XLSXPath string
}

type ShopConfig struct {
	Name        string
	Tagline     string
	OrderPrefix string
}

type CORSConfig struct {
	AllowedOrigins []string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "1234"),
			DBName:   getEnv("DB_NAME", "coinstore"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MaxIdleConns:    parseInt(getEnv("DB_MAX_IDLE_CONNS", "5"), 5),
			MaxOpenConns:    parseInt(getEnv("DB_MAX_OPEN_CONNS", "20"), 20),
			ConnMaxLifetime: parseDuration(getEnv("DB_CONN_MAX_LIFETIME", "30m"), 30*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		Storage: StorageConfig{
			Backend:    strings.ToLower(getEnv("CART_STORAGE", "sqlite")),
			KeyPrefix:  getEnv("CART_STORAGE_KEY", "indianCoinCart"),
			SQLitePath: getEnv("CART_SQLITE_PATH", "data/cart.db"),
			Timeout:    parseDuration(getEnv("CART_STORAGE_TIMEOUT", "3s"), 3*time.Second),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "ap-south-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", "coinstore-carts"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Prefix:          getEnv("AWS_S3_PREFIX", "carts"),
		},
		Mail: MailConfig{
			SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
			FromEmail:      getEnv("MAIL_FROM_EMAIL", "orders@indiancoinstore.in"),
			FromName:       getEnv("MAIL_FROM_NAME", "Indian Coin Store"),
			OwnerEmail:     getEnv("MAIL_OWNER_EMAIL", ""),
		},
		Session: SessionConfig{
			Secret:        getEnv("SESSION_SECRET", "change-me-session-secret"),
			TokenExpiry:   parseDuration(getEnv("SESSION_TOKEN_EXPIRY", "8760h"), 8760*time.Hour),
			IdleTTL:       parseDuration(getEnv("SESSION_IDLE_TTL", "30m"), 30*time.Minute),
			SweepSchedule: getEnv("SESSION_SWEEP_SCHEDULE", "@every 5m"),
			CookieName:    getEnv("SESSION_COOKIE", "coin_session"),
		},
		Catalog: CatalogConfig{
			XLSXPath: getEnv("CATALOG_XLSX_PATH", ""),
		},
		Shop: ShopConfig{
			Name:        getEnv("SHOP_NAME", "Indian Coin Store"),
			Tagline:     getEnv("SHOP_TAGLINE", "Preserving History"),
			OrderPrefix: getEnv("ORDER_PREFIX", "ICS"),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory", "redis", "postgres", "sqlite", "s3":
	default:
		return fmt.Errorf("unsupported CART_STORAGE %q", c.Storage.Backend)
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET must not be empty")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseSlice(s string) []string {
	result := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
