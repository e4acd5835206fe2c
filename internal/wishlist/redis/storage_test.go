package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curetcore/velox-storefront/internal/domain"
)

func setupTestRedis(t *testing.T) (*Storage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStorage(client, "sess-001", 24*time.Hour), mr
}

func sampleItems() []domain.WishlistItem {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return []domain.WishlistItem{
		{
			ID:        "prod-1",
			Handle:    "widget",
			Title:     "Widget",
			Price:     1990,
			URL:       "/products/widget",
			Available: true,
			AddedAt:   now,
		},
		{
			ID:        "prod-2",
			Handle:    "gadget",
			Title:     "Gadget",
			Price:     4990,
			Image:     "https://cdn/g.jpg",
			URL:       "/products/gadget",
			Available: false,
			AddedAt:   now.Add(time.Minute),
		},
	}
}

func TestStorage_LoadMissingKey(t *testing.T) {
	storage, _ := setupTestRedis(t)

	items, err := storage.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestStorage_SaveThenLoad(t *testing.T) {
	storage, _ := setupTestRedis(t)
	ctx := context.Background()

	want := sampleItems()
	require.NoError(t, storage.Save(ctx, want))

	got, err := storage.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "prod-1", got[0].ID)
	assert.Equal(t, "prod-2", got[1].ID)
	assert.Equal(t, int64(4990), got[1].Price)
	assert.False(t, got[1].Available)
}

func TestStorage_LoadCorruptPayload(t *testing.T) {
	storage, mr := setupTestRedis(t)

	require.NoError(t, mr.Set("wishlist:sess-001", "{not json"))

	_, err := storage.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal wishlist")
}

func TestStorage_SaveRefreshesTTL(t *testing.T) {
	storage, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, storage.Save(ctx, sampleItems()))
	ttl := mr.TTL("wishlist:sess-001")
	assert.Equal(t, 24*time.Hour, ttl)

	data, err := mr.Get("wishlist:sess-001")
	require.NoError(t, err)
	var stored []domain.WishlistItem
	require.NoError(t, json.Unmarshal([]byte(data), &stored))
	assert.Len(t, stored, 2)
}

func TestStorage_SaveEmptyCollection(t *testing.T) {
	storage, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, storage.Save(ctx, sampleItems()))
	require.NoError(t, storage.Save(ctx, []domain.WishlistItem{}))

	got, err := storage.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}
