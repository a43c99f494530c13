package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/pricing"
	"github.com/fjod/go_storefront/internal/repository/postgres"
)

type Config struct {
	ServiceName string
	LogLevel    string

	HTTPPort           string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64

	Postgres postgres.Credentials

	MongoURI string
	MongoDB  string

	RedisAddr     string
	RedisPassword string
	CartCacheTTL  time.Duration

	KafkaBrokers     []string
	OrderEventsTopic string
	AnalyticsGroupID string

	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	Currency string
	Pricing  domain.PricingPolicy

	// AnalyticsDays is the width of the current reporting window.
	AnalyticsDays int
	// AnalyticsTimezone buckets daily revenue; empty means UTC.
	AnalyticsTimezone string
}

// Load reads .env (if present) and the process environment.
func Load(service string) (*Config, error) {
	_ = godotenv.Load()

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	days, err := strconv.Atoi(getEnv("ANALYTICS_DAYS", "30"))
	if err != nil || days < 1 {
		return nil, fmt.Errorf("invalid ANALYTICS_DAYS %q", getEnv("ANALYTICS_DAYS", ""))
	}
	ttl, err := time.ParseDuration(getEnv("CART_CACHE_TTL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid CART_CACHE_TTL: %w", err)
	}

	policy, err := loadPricing()
	if err != nil {
		return nil, err
	}

	return &Config{
		ServiceName:        getEnv("SERVICE_NAME", service),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		RequestTimeout:     30 * time.Second,
		ShutdownTimeout:    10 * time.Second,
		MaxRequestBodySize: 1 << 20, // 1MB
		Postgres: postgres.Credentials{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              dbPort,
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", "postgres"),
			DBName:            getEnv("DB_NAME", "storefront"),
			MigrationsDirPath: getEnv("MIGRATIONS_PATH", "./internal/repository/postgres/migrations"),
		},
		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:           getEnv("MONGO_DB", "storefront"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		CartCacheTTL:      ttl,
		KafkaBrokers:      strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		OrderEventsTopic:  getEnv("ORDER_EVENTS_TOPIC", "order-events"),
		AnalyticsGroupID:  getEnv("ANALYTICS_GROUP_ID", "analytics-worker"),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", "orders@example.com"),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Storefront"),
		Currency:          getEnv("CURRENCY", "USD"),
		Pricing:           policy,
		AnalyticsDays:     days,
		AnalyticsTimezone: getEnv("ANALYTICS_TIMEZONE", ""),
	}, nil
}

// Location resolves AnalyticsTimezone.
func (c *Config) Location() (*time.Location, error) {
	if c.AnalyticsTimezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.AnalyticsTimezone)
}

func loadPricing() (domain.PricingPolicy, error) {
	p := pricing.DefaultPolicy()

	if v := os.Getenv("TAX_RATE"); v != "" {
		rate, err := decimal.NewFromString(v)
		if err != nil {
			return p, fmt.Errorf("invalid TAX_RATE: %w", err)
		}
		p.TaxRate = rate
	}
	if v := os.Getenv("SHIPPING_FLAT_FEE"); v != "" {
		fee, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return p, fmt.Errorf("invalid SHIPPING_FLAT_FEE: %w", err)
		}
		p.ShippingFlatFee = domain.Money(fee)
	}
	if v := os.Getenv("FREE_SHIPPING_THRESHOLD"); v != "" {
		threshold, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return p, fmt.Errorf("invalid FREE_SHIPPING_THRESHOLD: %w", err)
		}
		p.FreeShippingThreshold = domain.Money(threshold)
	}

	if err := pricing.ValidatePolicy(p); err != nil {
		return p, err
	}
	return p, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
