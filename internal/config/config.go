package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	// TestModeEnabled exposes the parallel test landing/webhook
	// endpoints backed by the local cache instead of the live
	// marketplace. Never enable for production vendor traffic.
	TestModeEnabled bool

	MarketplaceAPIBaseURL string
	MarketplaceAPIToken   string

	SetupURL                     string
	MarketingPageURL             string
	SubscriptionConfigurationURL string
	PurchaseConfirmationURL      string

	HTTPAddr string

	OTLPEndpoint string

	DBEnabled         bool
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitEnabled     bool
	WebhookRatePerSecond float64
	WebhookBurst         int
	LandingRatePerSecond float64
	LandingBurst         int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "fulfillment"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),

		TestModeEnabled: getenvBool("TEST_MODE_ENABLED", false),

		MarketplaceAPIBaseURL: strings.TrimRight(strings.TrimSpace(getenv("MARKETPLACE_API_BASE_URL", "")), "/"),
		MarketplaceAPIToken:   strings.TrimSpace(getenv("MARKETPLACE_API_TOKEN", "")),

		SetupURL:                     strings.TrimSpace(getenv("SETUP_URL", "/setup")),
		MarketingPageURL:             strings.TrimSpace(getenv("MARKETING_PAGE_URL", "")),
		SubscriptionConfigurationURL: strings.TrimSpace(getenv("SUBSCRIPTION_CONFIGURATION_URL", "")),
		PurchaseConfirmationURL:      strings.TrimSpace(getenv("PURCHASE_CONFIRMATION_URL", "")),

		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBEnabled:         getenvBool("DATABASE_ENABLED", true),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "fulfillment"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),

		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getenvInt("REDIS_DB", 0),

		RateLimitEnabled:     getenvBool("RATE_LIMIT_ENABLED", true),
		WebhookRatePerSecond: getenvFloat("RATE_LIMIT_WEBHOOK_RATE", 50),
		WebhookBurst:         getenvInt("RATE_LIMIT_WEBHOOK_BURST", 100),
		LandingRatePerSecond: getenvFloat("RATE_LIMIT_LANDING_RATE", 10),
		LandingBurst:         getenvInt("RATE_LIMIT_LANDING_BURST", 20),
	}

	return cfg
}

// SetupComplete reports whether the deployment has enough configuration
// to serve the live landing flow. An incomplete deployment redirects
// buyers to the setup page instead of resolving tokens.
func (c Config) SetupComplete() bool {
	if c.MarketplaceAPIBaseURL == "" {
		return false
	}
	if c.SubscriptionConfigurationURL == "" || c.PurchaseConfirmationURL == "" {
		return false
	}
	return true
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		log.Printf("[config] invalid bool for %s: %q, using default", key, v)
		return fallback
	}
	return parsed
}

func getenvFloat(key string, fallback float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		log.Printf("[config] invalid float for %s: %q, using default", key, v)
		return fallback
	}
	return parsed
}

func getenvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		log.Printf("[config] invalid int for %s: %q, using default", key, v)
		return fallback
	}
	return parsed
}
