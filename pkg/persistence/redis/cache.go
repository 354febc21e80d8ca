// Package redis caches node mappings of another persistence layer in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/persistence"
	backend "github.com/redis/go-redis/v9"
)

const defaultTTL = 10 * time.Minute

// Cache is a read-through cache over a persistence layer, keyed by form version.
type Cache struct {
	next   persistence.Persistence
	client backend.UniversalClient
	logger *slog.Logger
	prefix string
	ttl    time.Duration
}

type Option func(*Cache)

// WithTTL sets the expiration of cached form versions.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

func NewCache(next persistence.Persistence, client backend.UniversalClient, logger *slog.Logger, opts ...Option) *Cache {
	c := &Cache{
		next:   next,
		client: client,
		logger: logger.With("module", "mapping_cache"),
		prefix: "formflow:mappings:",
		ttl:    defaultTTL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Cache) key(formVersionID string) string {
	return c.prefix + formVersionID
}

func (c *Cache) NodeMappings(ctx context.Context, formVersionID string) ([]*models.Node, error) {
	data, err := c.client.Get(ctx, c.key(formVersionID)).Bytes()
	if err == nil {
		var nodes []*models.Node
		if err := json.Unmarshal(data, &nodes); err == nil {
			return nodes, nil
		}

		c.logger.WarnContext(ctx, "dropping undecodable cache entry", "form_version_id", formVersionID)
	} else if !errors.Is(err, backend.Nil) {
		c.logger.WarnContext(ctx, "mapping cache unavailable", "error", err)
	}

	nodes, err := c.next.NodeMappings(ctx, formVersionID)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(nodes)
	if err != nil {
		return nodes, nil
	}

	if err := c.client.Set(ctx, c.key(formVersionID), encoded, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "failed to cache node mappings", "form_version_id", formVersionID, "error", err)
	}

	return nodes, nil
}

func (c *Cache) NodeMapping(ctx context.Context, formVersionID, nodeID string) (*models.Node, error) {
	nodes, err := c.NodeMappings(ctx, formVersionID)
	if err != nil {
		return nil, err
	}

	return persistence.FindNode(formVersionID, nodeID, nodes)
}

// SaveNodeMappings writes through and invalidates the cached form version.
func (c *Cache) SaveNodeMappings(ctx context.Context, formVersionID string, nodes []*models.Node) error {
	if err := c.next.SaveNodeMappings(ctx, formVersionID, nodes); err != nil {
		return err
	}

	if err := c.client.Del(ctx, c.key(formVersionID)).Err(); err != nil {
		return fmt.Errorf("invalidating cached mappings of %s: %w", formVersionID, err)
	}

	return nil
}

func (c *Cache) HealthCheck(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return c.next.HealthCheck(ctx)
}

func (c *Cache) Close(ctx context.Context) error {
	return errors.Join(c.next.Close(ctx), c.client.Close())
}
