package redis

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/persistence"
	"github.com/dukex/formflow/pkg/persistence/file"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Cache, *miniredis.Miniredis, persistence.Persistence) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	store := file.NewPersistence(t.TempDir())

	return NewCache(store, client, slog.Default(), WithTTL(time.Minute)), mr, store
}

func TestCache_ReadThrough(t *testing.T) {
	cache, mr, store := setup(t)
	ctx := context.Background()

	require.NoError(t, store.SaveNodeMappings(ctx, "fv-1", []*models.Node{
		{NodeID: "find", Type: models.NodeTypeFind, Order: 1, SalesforceObject: "Contact"},
	}))

	node, err := cache.NodeMapping(ctx, "fv-1", "find")
	require.NoError(t, err)
	assert.Equal(t, "Contact", node.SalesforceObject)
	assert.True(t, mr.Exists("formflow:mappings:fv-1"))
	assert.Equal(t, time.Minute, mr.TTL("formflow:mappings:fv-1"))

	// served from redis even after the backing document changes
	require.NoError(t, store.SaveNodeMappings(ctx, "fv-1", []*models.Node{
		{NodeID: "find", Type: models.NodeTypeFind, Order: 1, SalesforceObject: "Lead"},
	}))

	node, err = cache.NodeMapping(ctx, "fv-1", "find")
	require.NoError(t, err)
	assert.Equal(t, "Contact", node.SalesforceObject)
}

func TestCache_SaveInvalidates(t *testing.T) {
	cache, mr, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, cache.SaveNodeMappings(ctx, "fv-1", []*models.Node{{NodeID: "a", Type: models.NodeTypeLoop}}))
	_, err := cache.NodeMappings(ctx, "fv-1")
	require.NoError(t, err)
	require.True(t, mr.Exists("formflow:mappings:fv-1"))

	require.NoError(t, cache.SaveNodeMappings(ctx, "fv-1", []*models.Node{{NodeID: "b", Type: models.NodeTypeLoop}}))
	assert.False(t, mr.Exists("formflow:mappings:fv-1"))

	_, err = cache.NodeMapping(ctx, "fv-1", "a")
	assert.ErrorIs(t, err, persistence.ErrMappingNotFound)
}

func TestCache_MissingFormVersionIsNotCached(t *testing.T) {
	cache, mr, _ := setup(t)

	_, err := cache.NodeMappings(context.Background(), "nope")
	assert.ErrorIs(t, err, persistence.ErrFormVersionNotFound)
	assert.False(t, mr.Exists("formflow:mappings:nope"))
}

func TestCache_FallsBackWhenRedisIsDown(t *testing.T) {
	cache, mr, store := setup(t)
	ctx := context.Background()

	require.NoError(t, store.SaveNodeMappings(ctx, "fv-1", []*models.Node{{NodeID: "a", Type: models.NodeTypeLoop}}))
	mr.Close()

	node, err := cache.NodeMapping(ctx, "fv-1", "a")
	require.NoError(t, err)
	assert.Equal(t, "a", node.NodeID)
	assert.Error(t, cache.HealthCheck(ctx))
}
