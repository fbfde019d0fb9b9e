package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Flat-file payload store
	Storage StorageConfig

	// Trading calendar
	Calendar CalendarConfig

	// Retry defaults for external fetches
	Retry RetryConfig

	// External sources
	Sources SourcesConfig

	// Database (optional: quality snapshot persistence)
	Database DatabaseConfig

	// Redis (optional: payload cache)
	Redis RedisConfig

	// Daily pipeline trigger
	Scheduler SchedulerConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
	MetricsPort    string
}

// StorageConfig holds the payload store location
type StorageConfig struct {
	DataDir       string
	RetentionDays int // 0 = keep everything
}

// CalendarConfig holds the holiday table source
type CalendarConfig struct {
	HolidayFile string // empty = embedded table
	Timezone    string
}

// RetryConfig holds default retry policy settings
type RetryConfig struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	BackoffFactor float64
	MaxDelay      time.Duration
}

// SourcesConfig holds upstream endpoints for the collectors
type SourcesConfig struct {
	TencentBaseURL   string
	EastmoneyBaseURL string
	NewsHTMLSources  []string
	NewsRSSSources   []string
	RequestsPerSec   float64
	UserAgent        string
}

// SchedulerConfig holds the daily run trigger
type SchedulerConfig struct {
	DailySpec  string // cron spec with seconds, evaluated in Calendar.Timezone
	StopOnFail bool
	MaxRetries int
	RetryDelay time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database URL was configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Storage: StorageConfig{
			DataDir:       getEnv("DATA_DIR", "data"),
			RetentionDays: getEnvAsInt("DATA_RETENTION_DAYS", 0),
		},

		Calendar: CalendarConfig{
			HolidayFile: getEnv("CALENDAR_FILE", ""),
			Timezone:    getEnv("CALENDAR_TZ", "Asia/Shanghai"),
		},

		Retry: RetryConfig{
			MaxAttempts:   getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
			BaseDelay:     getEnvAsDuration("RETRY_BASE_DELAY", "10s"),
			BackoffFactor: getEnvAsFloat("RETRY_BACKOFF_FACTOR", 2.0),
			MaxDelay:      getEnvAsDuration("RETRY_MAX_DELAY", "0s"),
		},

		Sources: SourcesConfig{
			TencentBaseURL:   getEnv("TENCENT_BASE_URL", "https://qt.gtimg.cn"),
			EastmoneyBaseURL: getEnv("EASTMONEY_BASE_URL", "https://push2.eastmoney.com"),
			NewsHTMLSources: getEnvAsList("NEWS_HTML_SOURCES", []string{
				"https://stock.eastmoney.com/",
				"https://news.ifeng.com/",
			}),
			NewsRSSSources: getEnvAsList("NEWS_RSS_SOURCES", nil),
			RequestsPerSec: getEnvAsFloat("SOURCE_RPS", 2),
			UserAgent:      getEnv("SOURCE_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 5),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Scheduler: SchedulerConfig{
			DailySpec:  getEnv("SCHEDULE_DAILY", "0 30 15 * * *"),
			StopOnFail: getEnvAsBool("SCHEDULE_STOP_ON_FAIL", false),
			MaxRetries: getEnvAsInt("SCHEDULE_MAX_RETRIES", 1),
			RetryDelay: getEnvAsDuration("SCHEDULE_RETRY_DELAY", "5m"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		MetricsPort:    getEnv("METRICS_PORT", "9090"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Storage.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}

	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be >= 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.BaseDelay < 0 {
		return fmt.Errorf("RETRY_BASE_DELAY must not be negative")
	}
	if c.Retry.BackoffFactor < 1 {
		return fmt.Errorf("RETRY_BACKOFF_FACTOR must be >= 1, got %v", c.Retry.BackoffFactor)
	}

	if c.Scheduler.MaxRetries < 0 {
		return fmt.Errorf("SCHEDULE_MAX_RETRIES must not be negative")
	}

	if _, err := time.LoadLocation(c.Calendar.Timezone); err != nil {
		return fmt.Errorf("CALENDAR_TZ invalid: %w", err)
	}

	return nil
}

// Location returns the exchange timezone (validated in Load)
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Calendar.Timezone)
	if err != nil {
		return time.FixedZone("CST", 8*3600)
	}
	return loc
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
		"backend/.env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma separated value, dropping empty entries
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
