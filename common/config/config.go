package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Payment modes
const (
	PaymentModeAlways   = "always"
	PaymentModePriced   = "priced"
	PaymentModeDisabled = "disabled"
)

// Storage backends
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Config holds all service configuration
type Config struct {
	Service   ServiceConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Payment   PaymentConfig
	RateLimit RateLimitConfig
	Clients   ClientsConfig
	Assets    AssetsConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
	PprofPort   int // 0 disables the debug listener
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	MaxConns    int
	MinConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
	AutoMigrate bool
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// StorageConfig selects where uploaded asset bytes live
type StorageConfig struct {
	Backend        string // "local" or "s3"
	Path           string
	Bucket         string
	Region         string
	Endpoint       string
	Prefix         string
	UploadMaxBytes int64
}

// PaymentConfig holds the x402 facilitator settings
type PaymentConfig struct {
	Mode           string
	FacilitatorURL string
	Network        string
	Asset          string
	Decimals       int32
	PayTo          string
	Currency       string
	Settle         bool
	TimeoutSeconds int
	FreeAccessRule string
	RequestTimeout time.Duration
}

// RateLimitConfig holds request throttling settings
type RateLimitConfig struct {
	Enabled          bool
	Backend          string // "redis" or "memory"
	PerMinute        int64
	UploadsPerMinute int64
}

// ClientsConfig holds outbound service endpoints
type ClientsConfig struct {
	TransactionsURL string
	AgentURL        string
	Timeout         time.Duration
}

// AssetsConfig holds marketplace behaviour toggles
type AssetsConfig struct {
	// AutoProvisionCreators lets an upload create an unknown creator from
	// the supplied wallet. The wallet string is not proven to be owned.
	AutoProvisionCreators bool
	DefaultPageSize       int
	MaxPageSize           int
	TagCacheTTL           time.Duration // used only when Redis is enabled
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	return LoadWithDefaultPort(serviceName, 3001)
}

// LoadWithDefaultPort is Load with a service specific fallback for PORT
func LoadWithDefaultPort(serviceName string, defaultPort int) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", defaultPort),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"),
			PprofPort:   getEnvInt("PPROF_PORT", 0),
		},
		Database: DatabaseConfig{
			Host:        getEnv("POSTGRES_HOST", "localhost"),
			Port:        getEnvInt("POSTGRES_PORT", 5432),
			Database:    getEnv("POSTGRES_DB", "assetmarket"),
			User:        getEnv("POSTGRES_USER", "assetmarket"),
			Password:    getEnv("POSTGRES_PASSWORD", "assetmarket"),
			MaxConns:    getEnvInt("POSTGRES_MAX_CONNS", 20),
			MinConns:    getEnvInt("POSTGRES_MIN_CONNS", 2),
			MaxIdleTime: getEnvDuration("POSTGRES_MAX_IDLE_TIME", 30*time.Minute),
			MaxLifetime: getEnvDuration("POSTGRES_MAX_LIFETIME", 1*time.Hour),
			AutoMigrate: getEnvBool("POSTGRES_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Storage: StorageConfig{
			Backend:        strings.ToLower(getEnv("STORAGE_BACKEND", StorageLocal)),
			Path:           getEnv("STORAGE_PATH", "./uploads"),
			Bucket:         getEnv("S3_BUCKET", ""),
			Region:         getEnv("S3_REGION", "us-east-1"),
			Endpoint:       getEnv("S3_ENDPOINT", ""),
			Prefix:         getEnv("S3_PREFIX", "assets/"),
			UploadMaxBytes: int64(getEnvInt("UPLOAD_MAX_BYTES", 8*1024*1024)),
		},
		Payment: PaymentConfig{
			Mode:           strings.ToLower(getEnv("PAYMENT_MODE", PaymentModePriced)),
			FacilitatorURL: strings.TrimRight(getEnv("FACILITATOR_URL", ""), "/"),
			Network:        getEnv("PAYMENT_NETWORK", "solana-devnet"),
			Asset:          getEnv("PAYMENT_ASSET", "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU"),
			Decimals:       int32(getEnvInt("PAYMENT_DECIMALS", 6)),
			PayTo:          getEnv("PAYMENT_PAY_TO", ""),
			Currency:       getEnv("PAYMENT_CURRENCY", "USDC"),
			Settle:         getEnvBool("PAYMENT_SETTLE", true),
			TimeoutSeconds: getEnvInt("PAYMENT_TIMEOUT_SECONDS", 60),
			FreeAccessRule: getEnv("FREE_ACCESS_RULE", ""),
			RequestTimeout: getEnvDuration("PAYMENT_REQUEST_TIMEOUT", 30*time.Second),
		},
		RateLimit: RateLimitConfig{
			Enabled:          getEnvBool("RATE_LIMIT_ENABLED", true),
			Backend:          strings.ToLower(getEnv("RATE_LIMIT_BACKEND", "memory")),
			PerMinute:        int64(getEnvInt("RATE_LIMIT_PER_MINUTE", 600)),
			UploadsPerMinute: int64(getEnvInt("RATE_LIMIT_UPLOADS_PER_MINUTE", 30)),
		},
		Clients: ClientsConfig{
			TransactionsURL: strings.TrimRight(getEnv("TRANSACTIONS_URL", ""), "/"),
			AgentURL:        strings.TrimRight(getEnv("AGENT_URL", ""), "/"),
			Timeout:         getEnvDuration("CLIENT_TIMEOUT", 30*time.Second),
		},
		Assets: AssetsConfig{
			AutoProvisionCreators: getEnvBool("AUTO_PROVISION_CREATORS", true),
			DefaultPageSize:       getEnvInt("DEFAULT_PAGE_SIZE", 100),
			MaxPageSize:           getEnvInt("MAX_PAGE_SIZE", 500),
			TagCacheTTL:           getEnvDuration("TAG_CACHE_TTL", time.Minute),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns must be >= min_conns")
	}

	switch c.Storage.Backend {
	case StorageLocal:
		if c.Storage.Path == "" {
			return fmt.Errorf("STORAGE_PATH is required for local storage")
		}
	case StorageS3:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for s3 storage")
		}
	default:
		return fmt.Errorf("unknown storage backend: %s", c.Storage.Backend)
	}

	switch c.Payment.Mode {
	case PaymentModeAlways, PaymentModePriced, PaymentModeDisabled:
	default:
		return fmt.Errorf("unknown payment mode: %s", c.Payment.Mode)
	}

	if c.Payment.Decimals < 0 || c.Payment.Decimals > 18 {
		return fmt.Errorf("invalid payment decimals: %d", c.Payment.Decimals)
	}

	if c.Assets.DefaultPageSize < 1 || c.Assets.MaxPageSize < c.Assets.DefaultPageSize {
		return fmt.Errorf("invalid page size bounds: default=%d max=%d", c.Assets.DefaultPageSize, c.Assets.MaxPageSize)
	}

	if c.RateLimit.Backend != "redis" && c.RateLimit.Backend != "memory" {
		return fmt.Errorf("unknown rate limit backend: %s", c.RateLimit.Backend)
	}

	return nil
}

// EffectivePaymentMode returns the payment mode actually enforced.
// Without a facilitator nothing can be verified, so gating is off.
func (c *Config) EffectivePaymentMode() string {
	if c.Payment.FacilitatorURL == "" {
		return PaymentModeDisabled
	}
	return c.Payment.Mode
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
	)
}

// RedisAddr returns host:port for the Redis client
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
