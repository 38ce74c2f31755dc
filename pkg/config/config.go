package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageFirestore = "firestore"
	StoragePostgres  = "postgres"
	StorageMemory    = "memory"

	AuthFirebase = "firebase"
	AuthJWT      = "jwt"
)

type Config struct {
	ServerPort     string
	Environment    string
	LogLevel       string
	AllowedOrigins []string

	StorageDriver string

	FirebaseProject            string
	FirebaseServiceAccountJSON string
	FirebaseServiceAccountPath string
	StorageBucket              string

	AuthProvider string
	JWTSecret    string
	JWTExpiry    int64

	DatabaseURL string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	ListingCacheTTL time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripeAPIBase       string
	Currency            string

	AutoReleaseAfter    time.Duration
	AutoReleaseInterval time.Duration

	RateLimitPerMinute      int
	OfferRateLimitPerMinute int
	MaxUploadBytes          int64
}

func Load() (*Config, error) {
	// a missing .env is fine outside local development
	_ = godotenv.Load()

	config := &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS"),

		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageFirestore)),

		FirebaseProject:            getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseServiceAccountJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		FirebaseServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		StorageBucket:              getEnv("STORAGE_BUCKET", ""),

		AuthProvider: strings.ToLower(getEnv("AUTH_PROVIDER", AuthFirebase)),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		JWTExpiry:    getEnvAsInt64("JWT_EXPIRY", 24*60*60), // 24 hours

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         int(getEnvAsInt64("REDIS_DB", 0)),
		ListingCacheTTL: getEnvAsDuration("LISTING_CACHE_TTL", time.Minute),

		KafkaBrokers: getEnvAsList("KAFKA_BROKERS"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "skipped.notifications"),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripeAPIBase:       getEnv("STRIPE_API_BASE", "https://api.stripe.com"),
		Currency:            strings.ToLower(getEnv("CURRENCY", "gbp")),

		AutoReleaseAfter:    getEnvAsDuration("AUTO_RELEASE_AFTER", 7*24*time.Hour),
		AutoReleaseInterval: getEnvAsDuration("AUTO_RELEASE_INTERVAL", 10*time.Minute),

		RateLimitPerMinute:      int(getEnvAsInt64("RATE_LIMIT_PER_MINUTE", 120)),
		OfferRateLimitPerMinute: int(getEnvAsInt64("OFFER_RATE_LIMIT_PER_MINUTE", 10)),
		MaxUploadBytes:          getEnvAsInt64("MAX_UPLOAD_BYTES", 10<<20),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks that every driver selected has what it needs to start.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageFirestore:
		if c.FirebaseProject == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required for the firestore storage driver")
		}
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres storage driver")
		}
	case StorageMemory:
		if c.IsProduction() {
			return fmt.Errorf("the memory storage driver cannot be used in production")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	switch c.AuthProvider {
	case AuthFirebase:
		if c.FirebaseProject == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required for firebase auth")
		}
	case AuthJWT:
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required for jwt auth")
		}
	default:
		return fmt.Errorf("unknown AUTH_PROVIDER %q", c.AuthProvider)
	}

	if c.IsProduction() && c.StripeWebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required in production")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// NeedsFirebase reports whether a Firebase app has to be initialised at startup.
func (c *Config) NeedsFirebase() bool {
	return c.StorageDriver == StorageFirestore || c.AuthProvider == AuthFirebase || c.StorageBucket != ""
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	value := getEnv(key, "")
	if value == "" {
		return nil
	}

	var items []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
