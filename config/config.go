package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"github.com/0xpolarzero/nightwatch/internal/domain"
)

// Config holds all configuration for the archive service
type Config struct {
	Database DatabaseConfig
	Twitter  TwitterConfig
	Telegram TelegramConfig
	Kafka    KafkaConfig
	Sync     SyncConfig
	Search   SearchConfig
	Logging  LoggingConfig
	Service  ServiceConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// TwitterConfig holds tweet feed provider configuration
type TwitterConfig struct {
	APIKey  string
	BaseURL string
}

// TelegramConfig holds MTProto client configuration
type TelegramConfig struct {
	APIID       int
	APIHash     string
	PhoneNumber string
	SessionDir  string
}

// KafkaConfig holds Kafka configuration. An empty broker list disables
// the archived-content event producer.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// SyncConfig holds ingestion configuration
type SyncConfig struct {
	// Secret is the shared bearer token expected on sync/backfill requests
	Secret string
	// BatchSize bounds the number of content items per upsert statement
	BatchSize int
	// PageLimit is the per-request page size asked of the feed providers
	PageLimit int
	// Sources is the static list of feeds to archive
	Sources []domain.Source
}

// SearchConfig holds search/home endpoint configuration
type SearchConfig struct {
	CacheTTL  time.Duration
	HomeLimit int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// ServiceConfig holds service configuration
type ServiceConfig struct {
	Name string
	Port string
}

// Result is fx.Out struct for providing config dependencies
type Result struct {
	fx.Out

	Config         *Config
	DatabaseConfig *DatabaseConfig
	TwitterConfig  *TwitterConfig
	TelegramConfig *TelegramConfig
	KafkaConfig    *KafkaConfig
	SyncConfig     *SyncConfig
	SearchConfig   *SearchConfig
	LoggingConfig  *LoggingConfig
	ServiceConfig  *ServiceConfig
}

// Out returns fx-compatible config result
func Out() (Result, error) {
	cfg, err := Load()
	if err != nil {
		return Result{}, err
	}

	return Result{
		Config:         cfg,
		DatabaseConfig: &cfg.Database,
		TwitterConfig:  &cfg.Twitter,
		TelegramConfig: &cfg.Telegram,
		KafkaConfig:    &cfg.Kafka,
		SyncConfig:     &cfg.Sync,
		SearchConfig:   &cfg.Search,
		LoggingConfig:  &cfg.Logging,
		ServiceConfig:  &cfg.Service,
	}, nil
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()

	sources, err := parseSources(getEnv("SYNC_SOURCES", "twitter:zachxbt,telegram:investigations"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DATABASE_HOST", "localhost"),
			Port:     getEnv("DATABASE_PORT", "5432"),
			User:     getEnv("DATABASE_USER", "nightwatch"),
			Password: getEnv("DATABASE_PASSWORD", "nightwatch"),
			DBName:   getEnv("DATABASE_NAME", "nightwatch"),
			SSLMode:  getEnv("DATABASE_SSLMODE", "disable"),
		},
		Twitter: TwitterConfig{
			APIKey:  getEnv("TWITTERAPI_API_KEY", ""),
			BaseURL: getEnv("TWITTERAPI_BASE_URL", "https://api.twitterapi.io"),
		},
		Telegram: TelegramConfig{
			APIID:       getEnvInt("TELEGRAM_API_ID", 0),
			APIHash:     getEnv("TELEGRAM_API_HASH", ""),
			PhoneNumber: getEnv("TELEGRAM_PHONE", ""),
			SessionDir:  getEnv("TELEGRAM_SESSION_DIR", "./sessions"),
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC", "archive.content"),
		},
		Sync: SyncConfig{
			Secret:    getEnv("CRON_SECRET", ""),
			BatchSize: getEnvInt("SYNC_BATCH_SIZE", 200),
			PageLimit: getEnvInt("SYNC_PAGE_LIMIT", 100),
			Sources:   sources,
		},
		Search: SearchConfig{
			CacheTTL:  getEnvDuration("SEARCH_CACHE_TTL", time.Hour),
			HomeLimit: getEnvInt("HOME_DEFAULT_LIMIT", 50),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Service: ServiceConfig{
			Name: getEnv("SERVICE_NAME", "nightwatch"),
			Port: getEnv("SERVICE_PORT", "8080"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration. Missing credentials are a fatal
// startup error, never a request-time one.
func (c *Config) Validate() error {
	if c.Sync.Secret == "" {
		return fmt.Errorf("CRON_SECRET is required")
	}

	if c.Twitter.APIKey == "" {
		return fmt.Errorf("TWITTERAPI_API_KEY is required")
	}

	if c.Telegram.APIID == 0 || c.Telegram.APIHash == "" {
		return fmt.Errorf("TELEGRAM_API_ID and TELEGRAM_API_HASH are required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DATABASE_HOST is required")
	}

	if len(c.Sync.Sources) == 0 {
		return fmt.Errorf("SYNC_SOURCES is required")
	}

	if c.Sync.BatchSize <= 0 {
		return fmt.Errorf("SYNC_BATCH_SIZE must be positive")
	}

	return nil
}

// GetDSN returns database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// parseSources parses "platform:handle" pairs separated by commas
func parseSources(raw string) ([]domain.Source, error) {
	var sources []domain.Source
	for _, part := range splitNonEmpty(raw) {
		platform, handle, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("invalid source %q, expected platform:handle", part)
		}

		p := domain.Platform(strings.TrimSpace(platform))
		if p != domain.PlatformTwitter && p != domain.PlatformTelegram {
			return nil, fmt.Errorf("unknown platform %q in SYNC_SOURCES", platform)
		}

		sources = append(sources, domain.Source{
			Platform: p,
			Handle:   strings.TrimSpace(handle),
		})
	}
	return sources, nil
}

func splitNonEmpty(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets environment variable as int with default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvDuration gets environment variable as duration with default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
