package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/mediastore/internal/domain/asset"
	"github.com/xiebiao/mediastore/internal/domain/catalog"
	"github.com/xiebiao/mediastore/internal/domain/entitlement"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func TestManifestCache_RoundTrip(t *testing.T) {
	_, client := setupTestRedis(t)
	cache := NewManifestCache(client, time.Minute)
	ctx := context.Background()

	updated := time.Date(2026, 3, 1, 12, 30, 0, 123456789, time.UTC)
	m := &entitlement.Manifest{
		UserID: 7,
		Assets: []*asset.DigitalAsset{
			{ID: 1, Key: "k1", AssetType: asset.TypeAlbum, AssetID: 3, Title: "Album (FLAC)", Price: 999, Metadata: map[string]any{"bitrate": "1411"}},
			{ID: 4, Key: "k4", AssetType: asset.TypeSong, AssetID: 9, Title: "Song (FLAC)", Price: 129},
		},
		Warnings: []entitlement.IntegrityWarning{
			{OrderID: 2, ProductID: 5, Target: asset.SongTarget(11), Reason: entitlement.ReasonTargetNotSellable, Err: catalog.ErrSongMissingSku},
		},
		Watermark:  entitlement.Watermark{PaidOrders: 2, LastPaidAt: updated, AssetCount: 12, AssetsUpdatedAt: updated},
		ComputedAt: updated,
	}

	require.NoError(t, cache.Set(ctx, m))

	got, err := cache.Get(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, []uint{1, 4}, got.AssetIDs())
	assert.Equal(t, "1411", got.Assets[0].Metadata["bitrate"])
	assert.True(t, got.Watermark.Equal(m.Watermark))

	require.Len(t, got.Warnings, 1)
	assert.Equal(t, asset.SongTarget(11), got.Warnings[0].Target)
	assert.Equal(t, entitlement.ReasonTargetNotSellable, got.Warnings[0].Reason)
	assert.Contains(t, got.Warnings[0].Error(), catalog.ErrSongMissingSku.Message)
}

func TestManifestCache_MissAndInvalidate(t *testing.T) {
	mr, client := setupTestRedis(t)
	cache := NewManifestCache(client, time.Minute)
	ctx := context.Background()

	got, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, cache.Set(ctx, &entitlement.Manifest{UserID: 1}))
	assert.True(t, mr.Exists("manifest:1"))

	require.NoError(t, cache.Invalidate(ctx, 1))
	got, err = cache.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestManifestCache_Expires(t *testing.T) {
	mr, client := setupTestRedis(t)
	cache := NewManifestCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &entitlement.Manifest{UserID: 2}))
	mr.FastForward(2 * time.Minute)

	got, err := cache.Get(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestManifestCache_Corrupt(t *testing.T) {
	mr, client := setupTestRedis(t)
	cache := NewManifestCache(client, 0)

	require.NoError(t, mr.Set("manifest:3", "{not json"))

	_, err := cache.Get(context.Background(), 3)
	assert.Error(t, err)
}
