package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// StoreDriver はDATABASE_URLのスキームから決まる永続化バックエンドの種別。
type StoreDriver string

const (
	// StoreDriverPostgres はPostgreSQL（lib/pq）を使用する。
	StoreDriverPostgres StoreDriver = "postgres"
	// StoreDriverMongo はMongoDBを使用する。
	StoreDriverMongo StoreDriver = "mongo"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL   string
	StoreDriver   StoreDriver
	MongoDatabase string

	// Token
	JWTSecret string
	TokenTTL  time.Duration

	// Password
	BcryptCost int

	// Rate Limit
	RateLimitRequests int
	RateLimitWindow   time.Duration
	TrustProxy        bool

	// Access control
	ClinicRequireAuth bool

	// Observability
	MetricsEnabled bool
	LogLevel       slog.Level

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// bcryptの許容範囲（golang.org/x/crypto/bcrypt の MinCost / MaxCost）
const (
	minBcryptCost = 4
	maxBcryptCost = 31
)

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定、または値が不正な場合はエラーを返す。
// 安全でないデフォルト値へのフォールバックは行わない。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	driver, err := detectStoreDriver(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	cfg.StoreDriver = driver

	// Optional fields with defaults
	cfg.MongoDatabase = getEnvString("MONGO_DATABASE", "pinkpulse")
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", time.Hour)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 10)
	cfg.RateLimitRequests = getEnvInt("RATE_LIMIT_REQUESTS", 100)
	cfg.RateLimitWindow = getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute)
	cfg.TrustProxy = getEnvBool("TRUST_PROXY", false)
	cfg.ClinicRequireAuth = getEnvBool("CLINIC_REQUIRE_AUTH", false)
	cfg.MetricsEnabled = getEnvBool("METRICS_ENABLED", true)
	cfg.LogLevel = getEnvLogLevel("LOG_LEVEL", slog.LevelInfo)
	cfg.ServerPort = getEnvString("PORT", "5038")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "https://sl.pinkpulsehealth.info")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate は読み込んだ値の範囲を検証する。
func (c *Config) validate() error {
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.BcryptCost < minBcryptCost || c.BcryptCost > maxBcryptCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", minBcryptCost, maxBcryptCost, c.BcryptCost)
	}
	if c.RateLimitRequests <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", c.RateLimitRequests)
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimitWindow)
	}
	return nil
}

// detectStoreDriver はDATABASE_URLのスキームからバックエンドを判定する。
func detectStoreDriver(databaseURL string) (StoreDriver, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return StoreDriverPostgres, nil
	case strings.HasPrefix(databaseURL, "mongodb://"), strings.HasPrefix(databaseURL, "mongodb+srv://"):
		return StoreDriverMongo, nil
	default:
		return "", fmt.Errorf("DATABASE_URL must start with postgres://, postgresql://, mongodb:// or mongodb+srv://")
	}
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func getEnvLogLevel(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return defaultVal
	}
	return level
}
