package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/curetcore/velox-storefront/pkg/config"
)

// Config holds all configuration for the storefront session service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort       int      `env:"STOREFRONT_HTTP_PORT" envDefault:"8010"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"" envSeparator:","`

	// Redis (wishlist persistence)
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Wishlist TTL in hours (default: 90 days)
	WishlistTTL int `env:"WISHLIST_TTL_HOURS" envDefault:"2160"`

	// Kafka (analytics events)
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Authoritative storefront API
	StoreBaseURL string `env:"STORE_BASE_URL" envDefault:"http://localhost:9100"`

	// Free shipping (minor currency units)
	FreeShippingThreshold int64  `env:"FREE_SHIPPING_THRESHOLD" envDefault:"200000"`
	ShippingSuccessMsg    string `env:"SHIPPING_SUCCESS_MESSAGE" envDefault:"You have free shipping!"`
	ShippingRemainingMsg  string `env:"SHIPPING_REMAINING_MESSAGE" envDefault:"Add {amount} more for free shipping"`

	// Predictive search
	SearchDebounceMS  int `env:"SEARCH_DEBOUNCE_MS" envDefault:"300"`
	SearchMinQueryLen int `env:"SEARCH_MIN_QUERY_LEN" envDefault:"2"`
	SearchMaxResults  int `env:"SEARCH_MAX_RESULTS" envDefault:"6"`

	// Cart upsells
	UpsellLimit int `env:"UPSELL_LIMIT" envDefault:"4"`

	// Transient notice lifetime in milliseconds
	NoticeTTLMS int `env:"NOTICE_TTL_MS" envDefault:"3000"`

	// Tracing
	TracingEnabled bool   `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint   string `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SearchDebounce returns the debounce interval as a duration.
func (c *Config) SearchDebounce() time.Duration {
	return time.Duration(c.SearchDebounceMS) * time.Millisecond
}

// NoticeTTL returns the transient notice lifetime as a duration.
func (c *Config) NoticeTTL() time.Duration {
	return time.Duration(c.NoticeTTLMS) * time.Millisecond
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.StoreBaseURL == "" {
		return fmt.Errorf("store base URL is required")
	}
	if c.FreeShippingThreshold <= 0 {
		return fmt.Errorf("free shipping threshold must be positive: %d", c.FreeShippingThreshold)
	}
	if c.SearchMinQueryLen < 1 {
		return fmt.Errorf("search min query length must be at least 1: %d", c.SearchMinQueryLen)
	}
	if c.SearchMaxResults < 1 {
		return fmt.Errorf("search result cap must be at least 1: %d", c.SearchMaxResults)
	}
	if c.UpsellLimit < 1 {
		return fmt.Errorf("upsell limit must be at least 1: %d", c.UpsellLimit)
	}
	return nil
}
