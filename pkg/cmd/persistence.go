package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/formflow/pkg/persistence"
	"github.com/dukex/formflow/pkg/persistence/file"
	"github.com/dukex/formflow/pkg/persistence/postgresql"
	mappingcache "github.com/dukex/formflow/pkg/persistence/redis"
	"github.com/redis/go-redis/v9"
)

var supportedPersistenceProviders = []string{"file", "postgres", "postgresql"}

// NewPersistence opens the mapping store named by databaseURL, wrapped in a
// Redis cache when redisURL is set.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL, redisURL string) persistence.Persistence {
	var store persistence.Persistence

	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		pg, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to open postgres persistence: %w", err))
		}

		store = pg
	default:
		store = file.NewPersistence(databaseURL)
	}

	if redisURL == "" {
		return store
	}

	client, err := NewRedisClient(redisURL)
	if err != nil {
		panic(err)
	}

	return mappingcache.NewCache(store, client, logger)
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	return redis.NewClient(opts), nil
}

func parsePersistenceProvider(databaseURL string) string {
	parts := strings.Split(databaseURL, "://")

	provider := parts[0]
	for _, supported := range supportedPersistenceProviders {
		if provider == supported {
			return provider
		}
	}

	return "file"
}
