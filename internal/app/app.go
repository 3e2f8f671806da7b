// Package app builds the stores shared by the server, the worker and the
// maintenance CLI from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"vet1stop-platform/internal/cache"
	"vet1stop-platform/internal/categorize"
	"vet1stop-platform/internal/config"
	"vet1stop-platform/internal/repository"
	"vet1stop-platform/internal/repository/memory"
	"vet1stop-platform/internal/telemetry"
)

// Stores bundles the opened backends. Close releases all of them.
type Stores struct {
	// Query answers the read API
	Query repository.Repository
	// Partitions holds one repository per category
	Partitions repository.Partitions
	Counts     cache.CountsCache
	Redis      *redis.Client
	Mongo      *mongo.Client

	closers []func(context.Context) error
}

// Open connects to the configured store and, when REDIS_URL is set, Redis.
// Redis failures degrade to in-process caching.
func Open(cfg *config.Config, logger *slog.Logger, metrics *telemetry.Metrics) (*Stores, error) {
	s := &Stores{}

	switch cfg.StoreDriver {
	case config.DriverMemory:
		parts := memory.NewPartitions()
		s.Partitions = parts
		// memory mode has no standalone collection, so queries span all partitions
		s.Query = repository.NewFederated(parts.All()...)
		logger.Warn("using in-memory store, data is not persisted")

	case config.DriverMongo:
		client, err := config.ConnectMongoDB(cfg)
		if err != nil {
			return nil, err
		}
		s.Mongo = client
		s.closers = append(s.closers, client.Disconnect)

		opts := repository.MongoOptions{
			TextIndex: cfg.TextIndexEnabled,
			Breaker: repository.BreakerSettings{
				MaxFailures: uint32(cfg.BreakerMaxFailures),
				Timeout:     cfg.BreakerTimeout,
			},
			Metrics: metrics,
		}
		db := client.Database(cfg.DBName)
		parts := repository.NewMongoPartitions(db, opts)
		s.Partitions = parts
		if cfg.Federated() {
			s.Query = repository.NewFederated(parts.All()...)
		} else {
			s.Query = repository.NewMongoRepository(db.Collection(cfg.ResourcesCollection), opts)
		}
		logger.Info("connected to MongoDB", "db", cfg.DBName, "collection", cfg.ResourcesCollection)

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	s.Counts = cache.NewMemoryCountsCache(cfg.CountsCacheTTL)
	if cfg.RedisURL != "" {
		rdb, err := config.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, using in-process counts cache and rate limiter", "error", err)
		} else {
			s.Redis = rdb
			s.Counts = cache.NewRedisCountsCache(rdb, cfg.CountsCacheTTL)
			s.closers = append(s.closers, func(context.Context) error { return rdb.Close() })
		}
	}

	return s, nil
}

// Categorizer loads CATEGORY_RULES_FILE or the built-in rules
func Categorizer(cfg *config.Config, logger *slog.Logger) (*categorize.Categorizer, error) {
	c, err := categorize.FromFile(cfg.CategoryRulesFile)
	if err != nil {
		return nil, err
	}
	if cfg.CategoryRulesFile != "" {
		logger.Info("loaded category rules", "file", cfg.CategoryRulesFile, "rules", len(c.Rules()))
	}
	return c, nil
}

// Ping checks the store the query API depends on
func (s *Stores) Ping(ctx context.Context) error {
	if s.Mongo == nil {
		return nil
	}
	return s.Mongo.Ping(ctx, nil)
}

// Close releases connections in reverse order of opening
func (s *Stores) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			slog.Warn("closing store failed", "error", err)
		}
	}
}
