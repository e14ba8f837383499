package mysql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/xiebiao/mediastore/internal/domain/asset"
	"github.com/xiebiao/mediastore/internal/domain/catalog"
	"github.com/xiebiao/mediastore/internal/domain/order"
	"github.com/xiebiao/mediastore/internal/domain/repository"
	"github.com/xiebiao/mediastore/internal/domain/user"
	apperrors "github.com/xiebiao/mediastore/pkg/errors"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 内存库每个连接各自独立，测试里只用一个连接
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, AutoMigrate(db))
	return db
}

// store 测试用的一组仓储
type store struct {
	db        *gorm.DB
	registry  *asset.Registry
	artists   catalog.ArtistRepository
	albums    catalog.AlbumRepository
	genres    catalog.GenreRepository
	songs     catalog.SongRepository
	flacFiles catalog.FlacFileRepository
	skus      catalog.SkuRepository
	assets    asset.DigitalAssetRepository
	orders    order.Repository
	products  order.ProductRepository
	carts     order.CartStore
	orderNos  OrderStore
	tx        *TxManager
}

func newStore(t *testing.T) *store {
	db := setupTestDB(t)
	s := &store{
		db:        db,
		registry:  asset.NewRegistry(),
		artists:   NewArtistRepository(db),
		albums:    NewAlbumRepository(db),
		genres:    NewGenreRepository(db),
		songs:     NewSongRepository(db),
		flacFiles: NewFlacFileRepository(db),
		skus:      NewSkuRepository(db),
		orders:    NewOrderRepository(db),
		products:  NewProductRepository(db),
		carts:     NewCartStore(db),
		orderNos:  NewOrderStore(db),
		tx:        NewTxManager(db),
	}
	asset.RegisterRepository(s.registry, asset.TypeAlbum, repository.KindAlbum, s.albums, nil)
	asset.RegisterRepository(s.registry, asset.TypeSong, repository.KindSong, s.songs, NewSongEligibility(db))
	s.assets = NewDigitalAssetRepository(db, s.registry)
	return s
}

func (s *store) album(t *testing.T, title string) *catalog.Album {
	ctx := context.Background()
	artist, err := s.artists.Create(ctx, repository.Attributes{"name": "Artist of " + title})
	require.NoError(t, err)
	album, err := s.albums.Create(ctx, repository.Attributes{"title": title, "artist_id": artist.ID})
	require.NoError(t, err)
	return album
}

// sellableSong 带音频文件和SKU的单曲
func (s *store) sellableSong(t *testing.T, albumID uint, title, code string) *catalog.Song {
	ctx := context.Background()
	song, err := s.songs.Create(ctx, repository.Attributes{"title": title, "album_id": albumID, "track_number": 1})
	require.NoError(t, err)
	_, err = s.flacFiles.Create(ctx, repository.Attributes{"song_id": song.ID, "path": "/flac/" + code + ".flac", "size_bytes": 1024})
	require.NoError(t, err)
	_, err = s.skus.Create(ctx, repository.Attributes{"song_id": song.ID, "code": code})
	require.NoError(t, err)
	return song
}

func (s *store) publish(t *testing.T, target asset.Target, title string, price int64) *asset.DigitalAsset {
	a, err := s.assets.Create(context.Background(), repository.Attributes{
		"asset_type": string(target.Type),
		"asset_id":   target.ID,
		"title":      title,
		"price":      price,
	})
	require.NoError(t, err)
	return a
}

func (s *store) user(t *testing.T, username string) uint {
	u, err := NewUserRepository(s.db).Create(context.Background(), repository.Attributes{
		"username": username,
		"password": "hashed",
		"account": map[string]any{
			"email":        username + "@example.com",
			"first_name":   "Test",
			"last_name":    "User",
			"address_one":  "1 Main St",
			"city":         "Springfield",
			"territory":    "IL",
			"country_code": "US",
			"postal_code":  "62701",
			"phone":        "5550100",
		},
	})
	require.NoError(t, err)
	return u.ID
}

// checkout 把目标加入购物车并下单
func (s *store) checkout(t *testing.T, userID uint, targets ...asset.Target) *order.Order {
	ctx := context.Background()
	cart, err := s.carts.ForUser(ctx, userID)
	require.NoError(t, err)
	for _, target := range targets {
		_, err := s.carts.AddProduct(ctx, cart.ID, target, 0)
		require.NoError(t, err)
	}

	var placed *order.Order
	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		cart, err := s.carts.ForUser(ctx, userID)
		if err != nil {
			return err
		}
		placed = order.NewOrder(order.GenerateOrderNo(), userID, cart.Products)
		return s.orderNos.Place(ctx, placed, cart.ID)
	})
	require.NoError(t, err)
	return placed
}

func (s *store) pay(t *testing.T, orderID uint) {
	o, err := s.orders.Update(context.Background(), orderID, repository.Attributes{"status": "paid"})
	require.NoError(t, err)
	require.Equal(t, order.OrderStatusPaid, o.Status)
}

func TestCRUDRepository_RoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	artist, err := s.artists.Create(ctx, repository.Attributes{"name": "Nina", "profile": "jazz", "unknown": 1})
	require.NoError(t, err)
	assert.NotZero(t, artist.ID)

	found, err := s.artists.FindByID(ctx, artist.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nina", found.Name)
	assert.Equal(t, "jazz", found.Profile)

	t.Run("局部更新只修改提交的字段", func(t *testing.T) {
		updated, err := s.artists.Update(ctx, artist.ID, repository.Attributes{"profile": "soul"})
		require.NoError(t, err)
		assert.Equal(t, "Nina", updated.Name)
		assert.Equal(t, "soul", updated.Profile)
	})

	t.Run("空属性不修改", func(t *testing.T) {
		updated, err := s.artists.Update(ctx, artist.ID, repository.Attributes{"nope": "x"})
		require.NoError(t, err)
		assert.Equal(t, "soul", updated.Profile)
	})

	t.Run("类型错误", func(t *testing.T) {
		_, err := s.artists.Update(ctx, artist.ID, repository.Attributes{"name": 42})
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidAttribute))
	})

	t.Run("删除后查不到", func(t *testing.T) {
		require.NoError(t, s.artists.Delete(ctx, artist.ID))

		_, err := s.artists.FindByID(ctx, artist.ID)
		assert.True(t, apperrors.IsNotFound(err))

		err = s.artists.Delete(ctx, artist.ID)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestCRUDRepository_List(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for _, name := range []string{"rock", "jazz", "blues"} {
		_, err := s.genres.Create(ctx, repository.Attributes{"name": name})
		require.NoError(t, err)
	}

	items, total, err := s.genres.List(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 2)
	assert.Equal(t, "rock", items[0].Name)

	items, _, err = s.genres.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "blues", items[0].Name)
}

func TestCRUDRepository_References(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.albums.Create(ctx, repository.Attributes{"title": "Orphan", "artist_id": 99})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeReferenceNotFound))

	album := s.album(t, "Blue")
	_, err = s.albums.Update(ctx, album.ID, repository.Attributes{"artist_id": 99})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeReferenceNotFound))

	found, err := s.albums.FindByID(ctx, album.ID)
	require.NoError(t, err)
	assert.Equal(t, album.ArtistID, found.ArtistID)
}

func TestCRUDRepository_Unique(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	album := s.album(t, "Kind of Blue")
	s.sellableSong(t, album.ID, "So What", "SKU-1")

	other, err := s.songs.Create(ctx, repository.Attributes{"title": "Freddie", "album_id": album.ID})
	require.NoError(t, err)

	_, err = s.skus.Create(ctx, repository.Attributes{"song_id": other.ID, "code": "SKU-1"})
	assert.True(t, apperrors.IsConflict(err))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDuplicateEntry))

	_, err = s.genres.Create(ctx, repository.Attributes{"name": "jazz"})
	require.NoError(t, err)
	_, err = s.genres.Create(ctx, repository.Attributes{"name": "jazz"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDuplicateEntry))
}

func TestUserRepository_CreateIsAtomic(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	users := NewUserRepository(s.db)

	userID := s.user(t, "alice")
	u, err := users.FindByID(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, u.Account)
	assert.Equal(t, "alice@example.com", u.Account.Email)

	t.Run("缺少账户", func(t *testing.T) {
		_, err := users.Create(ctx, repository.Attributes{"username": "bob", "password": "x"})
		assert.ErrorIs(t, err, user.ErrAccountRequired)
		assert.True(t, apperrors.IsBadRequest(err))
	})

	t.Run("账户写入失败时用户回滚", func(t *testing.T) {
		_, err := users.Create(ctx, repository.Attributes{
			"username": "carol",
			"password": "x",
			"account":  map[string]any{"email": 123},
		})
		require.Error(t, err)

		var n int64
		require.NoError(t, s.db.Model(&UserModel{}).Where("username = ?", "carol").Count(&n).Error)
		assert.Zero(t, n)
	})

	t.Run("嵌套账户局部更新", func(t *testing.T) {
		updated, err := users.Update(ctx, userID, repository.Attributes{
			"account": map[string]any{"city": "Shelbyville", "user_id": 99},
		})
		require.NoError(t, err)
		assert.Equal(t, "alice", updated.Username)
		assert.Equal(t, "Shelbyville", updated.Account.City)
		assert.Equal(t, userID, updated.Account.UserID)
		assert.Equal(t, "1 Main St", updated.Account.AddressOne)
	})

	t.Run("重复用户名", func(t *testing.T) {
		_, err := users.Create(ctx, repository.Attributes{
			"username": "alice",
			"password": "x",
			"account":  map[string]any{"email": "other@example.com"},
		})
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDuplicateEntry))
	})
}

func TestUserRepository_AccountFollowsUser(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	users := NewUserRepository(s.db)
	accounts := NewAccountRepository(s.db)

	userID := s.user(t, "dave")
	otherID := s.user(t, "erin")
	u, err := users.FindByID(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, u.Account)
	accountID := u.Account.ID

	t.Run("账户不能单独删除", func(t *testing.T) {
		err := accounts.Delete(ctx, accountID)
		assert.ErrorIs(t, err, user.ErrAccountDeleteAlone)
		assert.True(t, apperrors.IsConflict(err))

		u, err := users.FindByID(ctx, userID)
		require.NoError(t, err)
		require.NotNil(t, u.Account)
		assert.Equal(t, accountID, u.Account.ID)
	})

	t.Run("账户不能转移", func(t *testing.T) {
		_, err := accounts.Update(ctx, accountID, repository.Attributes{"user_id": otherID})
		assert.ErrorIs(t, err, user.ErrAccountOwnerImmutable)

		a, err := accounts.FindByID(ctx, accountID)
		require.NoError(t, err)
		assert.Equal(t, userID, a.UserID)

		a, err = accounts.Update(ctx, accountID, repository.Attributes{"city": "Ogdenville"})
		require.NoError(t, err)
		assert.Equal(t, "Ogdenville", a.City)
	})

	t.Run("删除用户时账户一并删除", func(t *testing.T) {
		require.NoError(t, users.Delete(ctx, userID))

		_, err := accounts.FindByID(ctx, accountID)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestAlbumRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("已售专辑删除冲突", func(t *testing.T) {
		s := newStore(t)
		album := s.album(t, "Sold")
		s.publish(t, asset.AlbumTarget(album.ID), "Sold (FLAC)", 999)
		userID := s.user(t, "buyer")
		o := s.checkout(t, userID, asset.AlbumTarget(album.ID))
		s.pay(t, o.ID)

		err := s.albums.Delete(ctx, album.ID)
		assert.True(t, apperrors.IsConflict(err))
		assert.ErrorIs(t, err, catalog.ErrAlbumHasSales)

		_, err = s.albums.FindByID(ctx, album.ID)
		assert.NoError(t, err)
	})

	t.Run("单曲已售也阻止删除专辑", func(t *testing.T) {
		s := newStore(t)
		album := s.album(t, "Partly Sold")
		song := s.sellableSong(t, album.ID, "Hit", "SKU-HIT")
		s.publish(t, asset.SongTarget(song.ID), "Hit (FLAC)", 129)
		userID := s.user(t, "fan")
		o := s.checkout(t, userID, asset.SongTarget(song.ID))
		s.pay(t, o.ID)

		err := s.albums.Delete(ctx, album.ID)
		assert.ErrorIs(t, err, catalog.ErrAlbumHasSales)
	})

	t.Run("未支付的订单不算成交，删除级联", func(t *testing.T) {
		s := newStore(t)
		album := s.album(t, "Unsold")
		song := s.sellableSong(t, album.ID, "Track", "SKU-T")
		s.publish(t, asset.AlbumTarget(album.ID), "Unsold (FLAC)", 999)
		userID := s.user(t, "window")
		s.checkout(t, userID, asset.AlbumTarget(album.ID))

		require.NoError(t, s.albums.Delete(ctx, album.ID))

		_, err := s.songs.FindByID(ctx, song.ID)
		assert.True(t, apperrors.IsNotFound(err))

		var n int64
		require.NoError(t, s.db.Model(&DigitalAssetModel{}).Where("asset_type = ? AND asset_id = ?", "album", album.ID).Count(&n).Error)
		assert.Zero(t, n)
		require.NoError(t, s.db.Model(&SkuModel{}).Where("song_id = ?", song.ID).Count(&n).Error)
		assert.Zero(t, n)
	})
}

func TestDigitalAssetRepository_Create(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	album := s.album(t, "A")

	t.Run("目标不存在", func(t *testing.T) {
		_, err := s.assets.Create(ctx, repository.Attributes{"asset_type": "album", "asset_id": 404, "title": "x"})
		assert.ErrorIs(t, err, asset.ErrTargetNotFound)
	})

	t.Run("未知标签", func(t *testing.T) {
		_, err := s.assets.Create(ctx, repository.Attributes{"asset_type": "video", "asset_id": album.ID})
		assert.ErrorIs(t, err, asset.ErrUnknownType)
	})

	t.Run("单曲缺少SKU不可发布", func(t *testing.T) {
		song, err := s.songs.Create(ctx, repository.Attributes{"title": "Demo", "album_id": album.ID})
		require.NoError(t, err)
		_, err = s.flacFiles.Create(ctx, repository.Attributes{"song_id": song.ID, "path": "/demo.flac"})
		require.NoError(t, err)

		_, err = s.assets.Create(ctx, repository.Attributes{"asset_type": "song", "asset_id": song.ID})
		assert.ErrorIs(t, err, catalog.ErrSongMissingSku)
	})

	t.Run("目标不可修改", func(t *testing.T) {
		a := s.publish(t, asset.AlbumTarget(album.ID), "A (FLAC)", 100)
		assert.NotEmpty(t, a.Key)

		_, err := s.assets.Update(ctx, a.ID, repository.Attributes{"asset_id": 2})
		assert.ErrorIs(t, err, asset.ErrTargetImmutable)

		updated, err := s.assets.Update(ctx, a.ID, repository.Attributes{"metadata": map[string]any{"bitrate": "1411"}})
		require.NoError(t, err)
		assert.Equal(t, "1411", updated.Metadata["bitrate"])
		assert.Equal(t, "A (FLAC)", updated.Title)
	})
}

func TestOrderRepository_StatusMachine(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	album := s.album(t, "Paid")
	s.publish(t, asset.AlbumTarget(album.ID), "Paid (FLAC)", 999)
	userID := s.user(t, "payer")
	o := s.checkout(t, userID, asset.AlbumTarget(album.ID))

	assert.Equal(t, int64(999), o.Total)
	require.Len(t, o.Products, 1)

	cart, err := s.carts.ForUser(ctx, userID)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	_, err = s.orders.Update(ctx, o.ID, repository.Attributes{"status": "shipped"})
	assert.True(t, apperrors.IsBadRequest(err))

	s.pay(t, o.ID)
	paid, err := s.orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.NotNil(t, paid.PaidAt)

	_, err = s.orders.Update(ctx, o.ID, repository.Attributes{"status": "cancelled"})
	assert.ErrorIs(t, err, order.ErrOrderImmutable)

	err = s.orders.Delete(ctx, o.ID)
	assert.ErrorIs(t, err, order.ErrOrderImmutable)

	err = s.products.Delete(ctx, o.Products[0].ID)
	assert.ErrorIs(t, err, order.ErrOrderImmutable)
}

func TestProductRepository_OwnerIsFixed(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	first := s.album(t, "Bought")
	second := s.album(t, "Wanted")
	s.publish(t, asset.AlbumTarget(first.ID), "Bought (FLAC)", 999)
	wanted := s.publish(t, asset.AlbumTarget(second.ID), "Wanted (FLAC)", 999)
	userID := s.user(t, "mover")

	paid := s.checkout(t, userID, asset.AlbumTarget(first.ID))
	s.pay(t, paid.ID)

	cart, err := s.carts.ForUser(ctx, userID)
	require.NoError(t, err)
	line, err := s.carts.AddProduct(ctx, cart.ID, asset.AlbumTarget(second.ID), 0)
	require.NoError(t, err)

	t.Run("购物车行不能移入已支付订单", func(t *testing.T) {
		_, err := s.products.Update(ctx, line.ID, repository.Attributes{"order_id": paid.ID, "cart_id": nil})
		assert.ErrorIs(t, err, order.ErrProductOwnerImmutable)

		resolver := newEntitlementResolver(s)
		m, err := resolver.ManifestFor(ctx, userID)
		require.NoError(t, err)
		assert.False(t, m.Contains(wanted.ID))
	})

	t.Run("不能清空归属", func(t *testing.T) {
		_, err := s.products.Update(ctx, line.ID, repository.Attributes{"cart_id": nil})
		assert.ErrorIs(t, err, order.ErrProductOwnerImmutable)

		p, err := s.products.FindByID(ctx, line.ID)
		require.NoError(t, err)
		require.NotNil(t, p.CartID)
		assert.Equal(t, cart.ID, *p.CartID)
		assert.Nil(t, p.OrderID)
	})

	t.Run("价格仍可修改", func(t *testing.T) {
		p, err := s.products.Update(ctx, line.ID, repository.Attributes{"price": int64(500)})
		require.NoError(t, err)
		assert.Equal(t, int64(500), p.Price)
	})
}

func TestCartStore(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	album := s.album(t, "Cart")
	userID := s.user(t, "shopper")

	cart, err := s.carts.ForUser(ctx, userID)
	require.NoError(t, err)
	again, err := s.carts.ForUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)

	_, err = s.carts.AddProduct(ctx, cart.ID, asset.AlbumTarget(album.ID), 0)
	assert.ErrorIs(t, err, asset.ErrTargetHasNoAssets)

	s.publish(t, asset.AlbumTarget(album.ID), "Cart (FLAC)", 500)
	s.publish(t, asset.AlbumTarget(album.ID), "Cart (MP3)", 300)

	p, err := s.carts.AddProduct(ctx, cart.ID, asset.AlbumTarget(album.ID), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(800), p.Price)

	_, err = s.carts.AddProduct(ctx, cart.ID, asset.AlbumTarget(album.ID), 0)
	assert.ErrorIs(t, err, order.ErrAlreadyInCart)

	require.NoError(t, s.carts.RemoveProduct(ctx, cart.ID, p.ID))
	err = s.carts.RemoveProduct(ctx, cart.ID, p.ID)
	assert.ErrorIs(t, err, order.ErrProductNotInCart)

	_, err = s.carts.ForUser(ctx, 404)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeReferenceNotFound))
}

func TestGenreLinker(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	linker := NewGenreLinker(s.db)
	accessors := NewRelationAccessors(s.db)

	album := s.album(t, "Linked")
	genre, err := s.genres.Create(ctx, repository.Attributes{"name": "fusion"})
	require.NoError(t, err)

	require.NoError(t, linker.Attach(ctx, album.ID, genre.ID))
	require.NoError(t, linker.Attach(ctx, album.ID, genre.ID))

	genres, err := accessors.GenresOf(ctx, album.ID)
	require.NoError(t, err)
	require.Len(t, genres, 1)
	assert.Equal(t, "fusion", genres[0].Name)

	albums, err := accessors.AlbumsInGenre(ctx, genre.ID)
	require.NoError(t, err)
	require.Len(t, albums, 1)

	require.NoError(t, linker.Detach(ctx, album.ID, genre.ID))
	assert.True(t, apperrors.IsNotFound(linker.Detach(ctx, album.ID, genre.ID)))

	err = linker.Attach(ctx, album.ID, 404)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeReferenceNotFound))
}
