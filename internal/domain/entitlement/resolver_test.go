package entitlement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/mediastore/internal/domain/asset"
	"github.com/xiebiao/mediastore/internal/domain/catalog"
	"github.com/xiebiao/mediastore/internal/domain/order"
	"github.com/xiebiao/mediastore/internal/domain/repository"
	apperrors "github.com/xiebiao/mediastore/pkg/errors"
	"github.com/xiebiao/mediastore/pkg/logger"
)

// 测试目录：
//   - 专辑1 → 资产1、2
//   - 单曲5（可售）→ 资产3
//   - 单曲6（缺SKU，不可售）→ 资产4
//   - 专辑9 不存在
type fakeStore struct {
	mu        sync.Mutex
	orders    []*order.Order
	assets    map[asset.Target][]*asset.DigitalAsset
	watermark Watermark
	paidCalls int
	failPaid  error
}

func (s *fakeStore) PaidOrdersOf(ctx context.Context, userID uint) ([]*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paidCalls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.failPaid != nil {
		return nil, s.failPaid
	}
	var out []*order.Order
	for _, o := range s.orders {
		if o.UserID == userID && o.IsPaid() {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *fakeStore) FindOrder(ctx context.Context, orderID uint) (*order.Order, error) {
	for _, o := range s.orders {
		if o.ID == orderID {
			return o, nil
		}
	}
	return nil, apperrors.NotFound("order", orderID)
}

func (s *fakeStore) Watermark(ctx context.Context, userID uint) (Watermark, error) {
	return s.watermark, nil
}

func (s *fakeStore) AssetsOf(ctx context.Context, target asset.Target) ([]*asset.DigitalAsset, error) {
	return s.assets[target], nil
}

type memoryCache struct {
	data map[uint]*Manifest
}

func (c *memoryCache) Get(ctx context.Context, userID uint) (*Manifest, error) {
	return c.data[userID], nil
}

func (c *memoryCache) Set(ctx context.Context, m *Manifest) error {
	c.data[m.UserID] = m
	return nil
}

func (c *memoryCache) Invalidate(ctx context.Context, userID uint) error {
	delete(c.data, userID)
	return nil
}

func da(id uint, t asset.Target) *asset.DigitalAsset {
	return &asset.DigitalAsset{ID: id, AssetType: t.Type, AssetID: t.ID}
}

func newStore() *fakeStore {
	return &fakeStore{
		assets: map[asset.Target][]*asset.DigitalAsset{
			asset.AlbumTarget(1): {da(2, asset.AlbumTarget(1)), da(1, asset.AlbumTarget(1))},
			asset.SongTarget(5):  {da(3, asset.SongTarget(5))},
			asset.SongTarget(6):  {da(4, asset.SongTarget(6))},
		},
	}
}

func newRegistry() *asset.Registry {
	reg := asset.NewRegistry()
	reg.Register(asset.TypeAlbum, asset.Binding{
		Kind: repository.KindAlbum,
		Lookup: func(ctx context.Context, id uint) (any, error) {
			if id != 1 {
				return nil, apperrors.NotFound("album", id)
			}
			return &catalog.Album{ID: 1}, nil
		},
	})
	reg.Register(asset.TypeSong, asset.Binding{
		Kind: repository.KindSong,
		Lookup: func(ctx context.Context, id uint) (any, error) {
			return &catalog.Song{ID: id}, nil
		},
		Eligible: func(ctx context.Context, id uint) error {
			return catalog.Sellability{HasFlacFile: true, HasSku: id == 5}.Err()
		},
	})
	return reg
}

func paidOrder(id, userID uint, targets ...asset.Target) *order.Order {
	o := &order.Order{ID: id, UserID: userID, Status: order.OrderStatusPaid}
	for i, t := range targets {
		o.Products = append(o.Products, order.Product{ID: id*10 + uint(i), Target: t})
	}
	return o
}

func TestResolver_ManifestFor(t *testing.T) {
	ctx := context.Background()

	t.Run("专辑与单曲合并并按ID排序", func(t *testing.T) {
		store := newStore()
		store.orders = []*order.Order{paidOrder(1, 42, asset.AlbumTarget(1), asset.SongTarget(5))}
		r := NewResolver(store, newRegistry(), store, nil, logger.NewNop())

		m, err := r.ManifestFor(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, []uint{1, 2, 3}, m.AssetIDs())
		assert.Empty(t, m.Warnings)
		assert.Equal(t, uint(42), m.UserID)
	})

	t.Run("两个已支付订单买了同一专辑只出现一次", func(t *testing.T) {
		store := newStore()
		store.orders = []*order.Order{
			paidOrder(1, 42, asset.AlbumTarget(1)),
			paidOrder(2, 42, asset.AlbumTarget(1)),
		}
		r := NewResolver(store, newRegistry(), store, nil, logger.NewNop())

		m, err := r.ManifestFor(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, []uint{1, 2}, m.AssetIDs())
	})

	t.Run("待支付订单不计入", func(t *testing.T) {
		store := newStore()
		pending := paidOrder(1, 42, asset.AlbumTarget(1))
		pending.Status = order.OrderStatusPending
		store.orders = []*order.Order{pending}
		r := NewResolver(store, newRegistry(), store, nil, logger.NewNop())

		m, err := r.ManifestFor(ctx, 42)
		require.NoError(t, err)
		assert.Empty(t, m.AssetIDs())
	})

	t.Run("其他用户的订单不计入", func(t *testing.T) {
		store := newStore()
		store.orders = []*order.Order{paidOrder(1, 7, asset.AlbumTarget(1))}
		r := NewResolver(store, newRegistry(), store, nil, logger.NewNop())

		m, err := r.ManifestFor(ctx, 42)
		require.NoError(t, err)
		assert.Empty(t, m.AssetIDs())
	})

	t.Run("无法解析的目标跳过并产生告警", func(t *testing.T) {
		store := newStore()
		store.orders = []*order.Order{paidOrder(3, 42,
			asset.AlbumTarget(9),
			asset.SongTarget(6),
			asset.SongTarget(5),
			asset.Target{Type: "video", ID: 1},
		)}
		r := NewResolver(store, newRegistry(), store, nil, logger.NewNop())

		m, err := r.ManifestFor(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, []uint{3}, m.AssetIDs())
		require.Len(t, m.Warnings, 3)
		assert.Equal(t, ReasonTargetMissing, m.Warnings[0].Reason)
		assert.Equal(t, uint(30), m.Warnings[0].ProductID)
		assert.Equal(t, ReasonTargetNotSellable, m.Warnings[1].Reason)
		assert.ErrorIs(t, m.Warnings[1], catalog.ErrSongMissingSku)
		assert.Equal(t, ReasonUnregisteredType, m.Warnings[2].Reason)
		assert.Contains(t, m.Warnings[0].Error(), "album#9")
	})

	t.Run("没有资产的目标产生告警", func(t *testing.T) {
		store := newStore()
		delete(store.assets, asset.SongTarget(5))
		store.orders = []*order.Order{paidOrder(1, 42, asset.SongTarget(5))}
		r := NewResolver(store, newRegistry(), store, nil, logger.NewNop())

		m, err := r.ManifestFor(ctx, 42)
		require.NoError(t, err)
		assert.Empty(t, m.Assets)
		require.Len(t, m.Warnings, 1)
		assert.Equal(t, ReasonNoAssets, m.Warnings[0].Reason)
	})

	t.Run("存储错误直接返回", func(t *testing.T) {
		store := newStore()
		store.failPaid = errors.New("connection refused")
		r := NewResolver(store, newRegistry(), store, nil, logger.NewNop())

		_, err := r.ManifestFor(ctx, 42)
		assert.EqualError(t, err, "connection refused")
	})
}

func TestResolver_ManifestForOrder(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	pending := paidOrder(2, 42, asset.SongTarget(5))
	pending.Status = order.OrderStatusPending
	store.orders = []*order.Order{paidOrder(1, 42, asset.AlbumTarget(1)), pending}
	r := NewResolver(store, newRegistry(), store, nil, logger.NewNop())

	m, err := r.ManifestForOrder(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, m.AssetIDs())
	assert.Equal(t, uint(1), m.OrderID)
	assert.Equal(t, uint(42), m.UserID)

	m, err = r.ManifestForOrder(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, m.AssetIDs(), "待支付订单返回空清单")

	_, err = r.ManifestForOrder(ctx, 404)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestResolver_Cache(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	store.orders = []*order.Order{paidOrder(1, 42, asset.AlbumTarget(1))}
	store.watermark = Watermark{PaidOrders: 1, LastPaidAt: time.Unix(1700000100, 0), AssetCount: 4, AssetsUpdatedAt: time.Unix(1700000000, 0)}
	cache := &memoryCache{data: map[uint]*Manifest{}}
	r := NewResolver(store, newRegistry(), store, cache, logger.NewNop())

	m, err := r.ManifestFor(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, m.AssetIDs())
	assert.Equal(t, 1, store.paidCalls)

	// 水位不变，命中缓存
	_, err = r.ManifestFor(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 1, store.paidCalls)

	// 新的已支付订单推进水位，缓存失效
	store.orders = append(store.orders, paidOrder(2, 42, asset.SongTarget(5)))
	store.watermark.PaidOrders = 2
	m, err = r.ManifestFor(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 2, store.paidCalls)
	assert.Equal(t, []uint{1, 2, 3}, m.AssetIDs())

	// 新增资产同样推进水位
	store.assets[asset.AlbumTarget(1)] = append(store.assets[asset.AlbumTarget(1)], da(7, asset.AlbumTarget(1)))
	store.watermark.AssetCount++
	m, err = r.ManifestFor(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2, 3, 7}, m.AssetIDs())

	require.NoError(t, r.Invalidate(ctx, 42))
	assert.Empty(t, cache.data)
}

func TestResolver_CacheFollowsPaymentsOutOfIDOrder(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	older := paidOrder(1, 42, asset.AlbumTarget(1))
	older.Status = order.OrderStatusPending
	store.orders = []*order.Order{older, paidOrder(2, 42, asset.SongTarget(5))}
	paidAt := time.Unix(1700000000, 0)
	store.watermark = Watermark{PaidOrders: 1, LastPaidAt: paidAt}
	cache := &memoryCache{data: map[uint]*Manifest{}}
	r := NewResolver(store, newRegistry(), store, cache, logger.NewNop())

	m, err := r.ManifestFor(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, []uint{3}, m.AssetIDs())

	// 较早的订单后支付：最大订单ID不变，但已支付数量与支付时间推进
	older.Status = order.OrderStatusPaid
	store.watermark = Watermark{PaidOrders: 2, LastPaidAt: paidAt.Add(time.Minute)}

	m, err = r.ManifestFor(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2, 3}, m.AssetIDs())
	assert.Equal(t, 2, store.paidCalls)
}

func TestResolver_SharedComputationIgnoresCallerCancel(t *testing.T) {
	store := newStore()
	store.orders = []*order.Order{paidOrder(1, 42, asset.AlbumTarget(1))}
	r := NewResolver(store, newRegistry(), store, nil, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m, err := r.ManifestFor(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, m.AssetIDs())
}

func TestWatermark_Equal(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	a := Watermark{PaidOrders: 1, LastPaidAt: ts, AssetCount: 2, AssetsUpdatedAt: ts}
	assert.True(t, a.Equal(Watermark{PaidOrders: 1, LastPaidAt: ts.UTC(), AssetCount: 2, AssetsUpdatedAt: ts.UTC()}))
	assert.False(t, a.Equal(Watermark{PaidOrders: 1, LastPaidAt: ts, AssetCount: 3, AssetsUpdatedAt: ts}))
	assert.False(t, a.Equal(Watermark{PaidOrders: 2, LastPaidAt: ts, AssetCount: 2, AssetsUpdatedAt: ts}))
	assert.False(t, a.Equal(Watermark{PaidOrders: 1, LastPaidAt: ts.Add(time.Second), AssetCount: 2, AssetsUpdatedAt: ts}))
}
