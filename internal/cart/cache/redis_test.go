package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Kamohel0/green-public-website/internal/cart/domain"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisCache instance
func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return NewRedisCache(client), mr
}

func TestGet_Success(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	cart := &domain.Cart{
		SessionID: "sess-123",
		Items: []domain.LineItem{
			{ProductID: 1, Name: "Sea Moss Gel", UnitPriceMinor: 18000, Quantity: 2},
			{ProductID: 4, Name: "Sea Moss Lip Balm", UnitPriceMinor: 8000, Quantity: 1},
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	cartJSON, _ := json.Marshal(cart)
	mr.Set(cacheKey("sess-123"), string(cartJSON))

	result, err := cache.Get(ctx, "sess-123")
	require.NoError(t, err)
	assert.Equal(t, "sess-123", result.SessionID)
	require.Len(t, result.Items, 2)
	assert.Equal(t, int64(44000), result.TotalMinor())
}

func TestGet_CacheMiss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	_, err := cache.Get(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestGet_CorruptPayload(t *testing.T) {
	cache, mr := setupTestRedis(t)
	mr.Set(cacheKey("sess-123"), "{not json")

	_, err := cache.Get(context.Background(), "sess-123")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestSet_ThenGetRoundTrip(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	cart := &domain.Cart{
		SessionID: "sess-9",
		Items: []domain.LineItem{
			{ProductID: 2, Name: "Sea Moss Body Butter", UnitPriceMinor: 18000, Quantity: 3},
		},
	}

	require.NoError(t, cache.Set(ctx, "sess-9", cart))
	assert.True(t, mr.Exists(cacheKey("sess-9")))

	// TTL must be at least the base; jitter only ever adds.
	assert.GreaterOrEqual(t, mr.TTL(cacheKey("sess-9")), 24*time.Hour)

	result, err := cache.Get(ctx, "sess-9")
	require.NoError(t, err)
	assert.Equal(t, int64(54000), result.TotalMinor())
}

func TestDelete(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "sess-1", &domain.Cart{SessionID: "sess-1"}))
	require.NoError(t, cache.Delete(ctx, "sess-1"))
	assert.False(t, mr.Exists(cacheKey("sess-1")))

	// Deleting an absent key is not an error.
	assert.NoError(t, cache.Delete(ctx, "sess-1"))
}
