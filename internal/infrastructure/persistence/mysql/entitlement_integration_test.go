package mysql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/mediastore/internal/domain/asset"
	"github.com/xiebiao/mediastore/internal/domain/entitlement"
	"github.com/xiebiao/mediastore/internal/domain/relation"
	"github.com/xiebiao/mediastore/internal/domain/repository"
	"github.com/xiebiao/mediastore/pkg/logger"
)

func newEntitlementResolver(s *store) *entitlement.Resolver {
	return entitlement.NewResolver(s.orderNos, s.registry, NewRelationAccessors(s.db), nil, logger.NewNop())
}

func TestEntitlement_ManifestFor(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	resolver := newEntitlementResolver(s)

	album := s.album(t, "Discography")
	song := s.sellableSong(t, album.ID, "Single", "SKU-S")
	albumFlac := s.publish(t, asset.AlbumTarget(album.ID), "Discography (FLAC)", 999)
	albumMp3 := s.publish(t, asset.AlbumTarget(album.ID), "Discography (MP3)", 499)
	songFlac := s.publish(t, asset.SongTarget(song.ID), "Single (FLAC)", 129)

	buyer := s.user(t, "buyer")
	other := s.user(t, "other")

	t.Run("没有已支付订单", func(t *testing.T) {
		m, err := resolver.ManifestFor(ctx, buyer)
		require.NoError(t, err)
		assert.Empty(t, m.AssetIDs())
	})

	first := s.checkout(t, buyer, asset.AlbumTarget(album.ID))
	s.pay(t, first.ID)
	second := s.checkout(t, buyer, asset.AlbumTarget(album.ID), asset.SongTarget(song.ID))
	s.pay(t, second.ID)
	s.checkout(t, other, asset.SongTarget(song.ID))

	t.Run("重复购买只计一次", func(t *testing.T) {
		m, err := resolver.ManifestFor(ctx, buyer)
		require.NoError(t, err)
		assert.Equal(t, []uint{albumFlac.ID, albumMp3.ID, songFlac.ID}, m.AssetIDs())
		assert.Empty(t, m.Warnings)
		assert.Equal(t, int64(2), m.Watermark.PaidOrders)
	})

	t.Run("未支付订单不产生权益", func(t *testing.T) {
		m, err := resolver.ManifestFor(ctx, other)
		require.NoError(t, err)
		assert.Empty(t, m.AssetIDs())
	})

	t.Run("单个订单", func(t *testing.T) {
		m, err := resolver.ManifestForOrder(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint{albumFlac.ID, albumMp3.ID}, m.AssetIDs())
	})

	t.Run("发布后新增的资产进入清单", func(t *testing.T) {
		lossless := s.publish(t, asset.SongTarget(song.ID), "Single (24bit)", 199)

		m, err := resolver.ManifestFor(ctx, buyer)
		require.NoError(t, err)
		assert.True(t, m.Contains(lossless.ID))
	})
}

// manifestCache 进程内的清单缓存
type manifestCache struct {
	data map[uint]*entitlement.Manifest
}

func (c *manifestCache) Get(ctx context.Context, userID uint) (*entitlement.Manifest, error) {
	return c.data[userID], nil
}

func (c *manifestCache) Set(ctx context.Context, m *entitlement.Manifest) error {
	c.data[m.UserID] = m
	return nil
}

func (c *manifestCache) Invalidate(ctx context.Context, userID uint) error {
	delete(c.data, userID)
	return nil
}

func TestEntitlement_CachedManifestSeesOlderOrderPaidLater(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	cache := &manifestCache{data: map[uint]*entitlement.Manifest{}}
	resolver := entitlement.NewResolver(s.orderNos, s.registry, NewRelationAccessors(s.db), cache, logger.NewNop())

	first := s.album(t, "First")
	second := s.album(t, "Second")
	d1 := s.publish(t, asset.AlbumTarget(first.ID), "First (FLAC)", 999)
	d2 := s.publish(t, asset.AlbumTarget(second.ID), "Second (FLAC)", 999)
	buyer := s.user(t, "buyer")

	older := s.checkout(t, buyer, asset.AlbumTarget(first.ID))
	newer := s.checkout(t, buyer, asset.AlbumTarget(second.ID))
	require.Less(t, older.ID, newer.ID)

	s.pay(t, newer.ID)
	m, err := resolver.ManifestFor(ctx, buyer)
	require.NoError(t, err)
	assert.Equal(t, []uint{d2.ID}, m.AssetIDs())
	require.Contains(t, cache.data, buyer)

	// 通用仓储支付较早的订单，不经过显式失效
	s.pay(t, older.ID)

	m, err = resolver.ManifestFor(ctx, buyer)
	require.NoError(t, err)
	assert.Equal(t, []uint{d1.ID, d2.ID}, m.AssetIDs())
	assert.Equal(t, int64(2), m.Watermark.PaidOrders)
}

func TestEntitlement_IneligibleTargetIsSkipped(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	resolver := newEntitlementResolver(s)

	album := s.album(t, "Live")
	song := s.sellableSong(t, album.ID, "Encore", "SKU-E")
	albumAsset := s.publish(t, asset.AlbumTarget(album.ID), "Live (FLAC)", 999)
	s.publish(t, asset.SongTarget(song.ID), "Encore (FLAC)", 129)

	buyer := s.user(t, "buyer")
	o := s.checkout(t, buyer, asset.AlbumTarget(album.ID), asset.SongTarget(song.ID))
	s.pay(t, o.ID)

	// 售出后SKU被直接移除，单曲不再可售
	require.NoError(t, s.db.Where("song_id = ?", song.ID).Delete(&SkuModel{}).Error)

	m, err := resolver.ManifestFor(ctx, buyer)
	require.NoError(t, err)
	assert.Equal(t, []uint{albumAsset.ID}, m.AssetIDs())
	require.Len(t, m.Warnings, 1)
	assert.Equal(t, entitlement.ReasonTargetNotSellable, m.Warnings[0].Reason)
	assert.Equal(t, asset.SongTarget(song.ID), m.Warnings[0].Target)
}

func TestRelationResolver_Polymorphic(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	resolver := relation.NewResolver(NewRelationAccessors(s.db), s.registry)

	album := s.album(t, "Poly")
	song := s.sellableSong(t, album.ID, "Poly Track", "SKU-P")
	a := s.publish(t, asset.SongTarget(song.ID), "Poly Track (FLAC)", 129)

	related, err := resolver.Related(ctx, repository.KindSong, song.ID, relation.NameAssets)
	require.NoError(t, err)
	require.Len(t, related.Many, 1)

	sold, err := resolver.Related(ctx, repository.KindSong, song.ID, relation.NameCopiesSold)
	require.NoError(t, err)
	assert.True(t, sold.IsMany())
	assert.Empty(t, sold.Many)

	buyer := s.user(t, "buyer")
	o := s.checkout(t, buyer, asset.SongTarget(song.ID))
	s.pay(t, o.ID)

	sold, err = resolver.Related(ctx, repository.KindSong, song.ID, relation.NameCopiesSold)
	require.NoError(t, err)
	assert.Len(t, sold.Many, 1)

	target, err := resolver.Related(ctx, repository.KindDigitalAsset, a.ID, relation.NameTarget)
	require.NoError(t, err)
	assert.Equal(t, repository.KindSong, target.Kind)

	songs, err := resolver.Related(ctx, repository.KindAlbum, album.ID, relation.NameSongs)
	require.NoError(t, err)
	assert.Len(t, songs.Many, 1)

	_, err = resolver.Related(ctx, repository.KindAlbum, 404, relation.NameSongs)
	assert.Error(t, err)

	account, err := resolver.Related(ctx, repository.KindUser, buyer, relation.NameAccount)
	require.NoError(t, err)
	assert.NotNil(t, account.One)
}
