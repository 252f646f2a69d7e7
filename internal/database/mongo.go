package database

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig holds MongoDB connection configuration.
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// MongoConfigFromEnv creates a MongoConfig from environment variables.
// The database name falls back to the URI path, then to "ecosphere".
func MongoConfigFromEnv() MongoConfig {
	uri := getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017/ecosphere")
	timeout, _ := time.ParseDuration(getEnvOrDefault("MONGO_CONNECT_TIMEOUT", "10s"))

	return MongoConfig{
		URI:            uri,
		Database:       getEnvOrDefault("MONGO_DATABASE", databaseFromURI(uri)),
		ConnectTimeout: timeout,
	}
}

func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "ecosphere"
	}
	if name := strings.TrimPrefix(u.Path, "/"); name != "" {
		return name
	}
	return "ecosphere"
}

// ConnectMongo connects to MongoDB, verifies the connection and returns
// the configured database.
func ConnectMongo(ctx context.Context, cfg MongoConfig) (*mongo.Database, error) {
	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return client.Database(cfg.Database), nil
}
