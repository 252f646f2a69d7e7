// Package config reads the EcoSphere service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ecosphere/ecosphere/internal/cache"
	"github.com/ecosphere/ecosphere/internal/database"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

const defaultSigningKey = "local-dev-signing-key-change-in-production"

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the service configuration shared by the API and the worker.
type Config struct {
	Port        string
	Environment string

	StoreDriver string
	Postgres    database.Config
	Mongo       database.MongoConfig
	Redis       cache.Config

	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	// GoogleClientID enables ID token verification for Google sign-in.
	GoogleClientID string

	// ClassifierURL is the AI service base URL. Empty uses the simulated classifier.
	ClassifierURL string

	RankingCacheTTL    time.Duration
	ExtendedMilestones bool

	OTelEnabled     bool
	OTLPEndpoint    string
	OTelSampleRatio float64

	PubSubProjectID    string
	PubSubSubscription string

	RequireTLS bool
}

// FromEnv reads the configuration from environment variables.
func FromEnv() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	return Config{
		Port:        getEnv("APP_PORT", "8080"),
		Environment: getEnv("APP_ENV", "development"),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreMemory)),
		Postgres:    database.ConfigFromEnv(),
		Mongo:       database.MongoConfigFromEnv(),
		Redis: cache.Config{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},

		JWTSigningKey: getEnv("JWT_SIGNING_KEY", defaultSigningKey),
		JWTIssuer:     getEnv("JWT_ISSUER", "https://api.ecosphere.app"),
		JWTAudience:   getEnv("JWT_AUDIENCE", "ecosphere-api"),

		GoogleClientID: os.Getenv("GOOGLE_CLIENT_ID"),
		ClassifierURL:  os.Getenv("CLASSIFIER_URL"),

		RankingCacheTTL:    getDuration("RANKING_CACHE_TTL", 30*time.Second),
		ExtendedMilestones: getBool("PROGRESSION_EXTENDED_MILESTONES", false),

		OTelEnabled:     getBool("OTEL_ENABLED", false),
		OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelSampleRatio: getFloat("OTEL_TRACES_SAMPLER_ARG", 1),

		PubSubProjectID:    os.Getenv("PUBSUB_PROJECT_ID"),
		PubSubSubscription: getEnv("PUBSUB_SUBSCRIPTION", "ecosphere-actions"),

		RequireTLS: getBool("REQUIRE_TLS", false),
	}
}

// IsProduction reports whether the service runs in production.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// UsesDefaultSigningKey reports whether the development JWT key is in use.
func (c Config) UsesDefaultSigningKey() bool {
	return c.JWTSigningKey == defaultSigningKey
}

// Validate checks settings that would otherwise fail at first use.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory, StorePostgres, StoreMongo:
	default:
		return fmt.Errorf("%w: unknown STORE_DRIVER %q", ErrInvalidConfig, c.StoreDriver)
	}

	if c.IsProduction() && c.UsesDefaultSigningKey() {
		return fmt.Errorf("%w: JWT_SIGNING_KEY must be set in production", ErrInvalidConfig)
	}
	if c.RankingCacheTTL < 0 {
		return fmt.Errorf("%w: RANKING_CACHE_TTL must not be negative", ErrInvalidConfig)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}
