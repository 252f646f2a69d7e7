// Package bootstrap opens the backing services shared by the API and the worker.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ecosphere/ecosphere/internal/api/handler"
	"github.com/ecosphere/ecosphere/internal/auth"
	"github.com/ecosphere/ecosphere/internal/cache"
	"github.com/ecosphere/ecosphere/internal/config"
	"github.com/ecosphere/ecosphere/internal/database"
	"github.com/ecosphere/ecosphere/internal/progression"
	"github.com/ecosphere/ecosphere/internal/user"
)

// Backends holds the opened stores. Pool, Mongo and Cache are nil when not configured.
type Backends struct {
	Users   user.Repository
	Refresh auth.RefreshTokenRepository
	Pool    *pgxpool.Pool
	Mongo   *mongo.Database
	Cache   *cache.Client

	log zerolog.Logger
}

// Open connects the user store selected by cfg.StoreDriver, the optional
// Redis cache and the matching refresh token repository.
func Open(ctx context.Context, cfg config.Config, log zerolog.Logger) (*Backends, error) {
	b := &Backends{log: log}

	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := database.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		if err := database.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ensuring schema: %w", err)
		}
		b.Pool = pool
		b.Users = user.NewPostgresRepository(pool)
		log.Info().
			Str("host", cfg.Postgres.Host).
			Int("port", cfg.Postgres.Port).
			Str("database", cfg.Postgres.Database).
			Msg("postgres connected")

	case config.StoreMongo:
		db, err := database.ConnectMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("connecting to mongodb: %w", err)
		}
		repo := user.NewMongoRepository(user.MongoRepositoryConfig{
			Database:      db,
			BadgeIDByName: progression.BadgeIDByName,
			LevelFor:      progression.LevelName,
		})
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = db.Client().Disconnect(context.Background())
			return nil, fmt.Errorf("ensuring indexes: %w", err)
		}
		b.Mongo = db
		b.Users = repo
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongodb connected")

	default:
		b.Users = user.NewInMemoryRepository()
		log.Warn().Msg("using in-memory user store - data is lost on restart")
	}

	if cfg.Redis.Addr != "" {
		b.Cache = cache.New(cfg.Redis)
		if err := b.Cache.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, continuing without it")
		} else {
			log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
		}
	}

	switch {
	case b.Pool != nil:
		b.Refresh = auth.NewPostgresRefreshTokenRepository(b.Pool)
	case b.Cache != nil:
		b.Refresh = auth.NewRedisRefreshTokenRepository(b.Cache)
	default:
		b.Refresh = auth.NewInMemoryRefreshTokenRepository()
	}

	return b, nil
}

// RankingCache returns the cache as a progression.RankingCache, or nil when Redis is off.
func (b *Backends) RankingCache() progression.RankingCache {
	if b.Cache == nil {
		return nil
	}
	return b.Cache
}

// Subsystems lists the readiness probes. The cache is optional.
func (b *Backends) Subsystems() []handler.Subsystem {
	subsystems := []handler.Subsystem{{Name: "database", Pinger: b.Users}}
	if b.Cache != nil {
		subsystems = append(subsystems, handler.Subsystem{Name: "cache", Pinger: b.Cache, Optional: true})
	}
	return subsystems
}

// Close releases every opened connection.
func (b *Backends) Close(ctx context.Context) {
	if b.Cache != nil {
		if err := b.Cache.Close(); err != nil {
			b.log.Error().Err(err).Msg("failed to close redis")
		}
	}
	if b.Mongo != nil {
		if err := b.Mongo.Client().Disconnect(ctx); err != nil {
			b.log.Error().Err(err).Msg("failed to disconnect mongodb")
		}
	}
	if b.Pool != nil {
		b.Pool.Close()
	}
}
