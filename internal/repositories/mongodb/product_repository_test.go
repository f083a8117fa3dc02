package mongodb

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/ltt204/Lados-sub002/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memoryCache stores marshalled values in a map, mimicking the redis wrapper's
// JSON round-trip.
type memoryCache struct {
	entries map[string][]byte
	gets    int
	sets    int
}

var _ CacheService = (*memoryCache)(nil)

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.gets++
	data, ok := m.entries[key]
	if !ok {
		return fmt.Errorf("key %s not found", key)
	}
	return json.Unmarshal(data, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	m.sets++
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = data
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

func TestProductRepositoryServesCachedProduct(t *testing.T) {
	ctx := context.Background()
	cache := newMemoryCache()
	product := &models.Product{
		ID:       primitive.NewObjectID(),
		Name:     "Linen Shirt",
		IsListed: true,
	}
	require.NoError(t, cache.Set(ctx, fmt.Sprintf("product:%s", product.ID.Hex()), product, time.Minute))

	// The products collection is nil on purpose: a cache hit must answer the
	// read without ever reaching the collection.
	repo := &productRepository{cache: cache}

	got, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.ID, got.ID)
	assert.Equal(t, "Linen Shirt", got.Name)
	assert.Equal(t, 1, cache.gets, "hit path reads the cache once")
	assert.Equal(t, 1, cache.sets, "hit path writes nothing beyond the seeded entry")
}
