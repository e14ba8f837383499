package mysql

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/xiebiao/mediastore/internal/domain/asset"
	"github.com/xiebiao/mediastore/internal/domain/catalog"
	"github.com/xiebiao/mediastore/internal/domain/order"
	"github.com/xiebiao/mediastore/internal/domain/relation"
	"github.com/xiebiao/mediastore/internal/domain/repository"
	"github.com/xiebiao/mediastore/internal/domain/user"
	apperrors "github.com/xiebiao/mediastore/pkg/errors"
)

// relationAccessors 关联访问的GORM实现
// 1. 单值关联缺失返回NotFound
// 2. 多值关联先确认父记录存在，空集合返回空切片而不是nil
type relationAccessors struct {
	db *gorm.DB
}

// NewRelationAccessors 创建关联访问实现，同时满足entitlement.AssetSource
func NewRelationAccessors(db *gorm.DB) relation.Accessors {
	return &relationAccessors{db: db}
}

func (a *relationAccessors) ArtistOf(ctx context.Context, albumID uint) (*catalog.Artist, error) {
	album, err := first[AlbumModel](ctx, a.db, repository.KindAlbum, "id = ?", albumID)
	if err != nil {
		return nil, err
	}
	m, err := first[ArtistModel](ctx, a.db, repository.KindArtist, "id = ?", album.ArtistID)
	if err != nil {
		return nil, err
	}
	return toArtistEntity(m), nil
}

func (a *relationAccessors) AlbumsOf(ctx context.Context, artistID uint) ([]*catalog.Album, error) {
	if err := a.mustExist(ctx, &ArtistModel{}, repository.KindArtist, artistID); err != nil {
		return nil, err
	}
	var models []AlbumModel
	if err := getDB(ctx, a.db).Where("artist_id = ?", artistID).Order("id ASC").Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询艺人专辑失败")
	}
	return mapAll(models, toAlbumEntity), nil
}

func (a *relationAccessors) SongsOf(ctx context.Context, albumID uint) ([]*catalog.Song, error) {
	if err := a.mustExist(ctx, &AlbumModel{}, repository.KindAlbum, albumID); err != nil {
		return nil, err
	}
	var models []SongModel
	err := getDB(ctx, a.db).Where("album_id = ?", albumID).Order("track_number ASC, id ASC").Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询专辑单曲失败")
	}
	return mapAll(models, toSongEntity), nil
}

func (a *relationAccessors) AlbumOf(ctx context.Context, songID uint) (*catalog.Album, error) {
	song, err := first[SongModel](ctx, a.db, repository.KindSong, "id = ?", songID)
	if err != nil {
		return nil, err
	}
	m, err := first[AlbumModel](ctx, a.db, repository.KindAlbum, "id = ?", song.AlbumID)
	if err != nil {
		return nil, err
	}
	return toAlbumEntity(m), nil
}

func (a *relationAccessors) GenresOf(ctx context.Context, albumID uint) ([]*catalog.Genre, error) {
	if err := a.mustExist(ctx, &AlbumModel{}, repository.KindAlbum, albumID); err != nil {
		return nil, err
	}
	var models []GenreModel
	err := getDB(ctx, a.db).
		Joins("JOIN album_genres ON album_genres.genre_id = genres.id").
		Where("album_genres.album_id = ?", albumID).
		Order("genres.name ASC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询专辑流派失败")
	}
	return mapAll(models, toGenreEntity), nil
}

func (a *relationAccessors) AlbumsInGenre(ctx context.Context, genreID uint) ([]*catalog.Album, error) {
	if err := a.mustExist(ctx, &GenreModel{}, repository.KindGenre, genreID); err != nil {
		return nil, err
	}
	var models []AlbumModel
	err := getDB(ctx, a.db).
		Joins("JOIN album_genres ON album_genres.album_id = albums.id").
		Where("album_genres.genre_id = ?", genreID).
		Order("albums.id ASC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询流派专辑失败")
	}
	return mapAll(models, toAlbumEntity), nil
}

func (a *relationAccessors) FlacFileOf(ctx context.Context, songID uint) (*catalog.FlacFile, error) {
	if err := a.mustExist(ctx, &SongModel{}, repository.KindSong, songID); err != nil {
		return nil, err
	}
	m, err := first[FlacFileModel](ctx, a.db, repository.KindFlacFile, "song_id = ?", songID)
	if err != nil {
		return nil, err
	}
	return toFlacFileEntity(m), nil
}

func (a *relationAccessors) SkuOf(ctx context.Context, songID uint) (*catalog.Sku, error) {
	if err := a.mustExist(ctx, &SongModel{}, repository.KindSong, songID); err != nil {
		return nil, err
	}
	m, err := first[SkuModel](ctx, a.db, repository.KindSku, "song_id = ?", songID)
	if err != nil {
		return nil, err
	}
	return toSkuEntity(m), nil
}

func (a *relationAccessors) SongOfFlacFile(ctx context.Context, flacFileID uint) (*catalog.Song, error) {
	f, err := first[FlacFileModel](ctx, a.db, repository.KindFlacFile, "id = ?", flacFileID)
	if err != nil {
		return nil, err
	}
	m, err := first[SongModel](ctx, a.db, repository.KindSong, "id = ?", f.SongID)
	if err != nil {
		return nil, err
	}
	return toSongEntity(m), nil
}

func (a *relationAccessors) SongOfSku(ctx context.Context, skuID uint) (*catalog.Song, error) {
	s, err := first[SkuModel](ctx, a.db, repository.KindSku, "id = ?", skuID)
	if err != nil {
		return nil, err
	}
	m, err := first[SongModel](ctx, a.db, repository.KindSong, "id = ?", s.SongID)
	if err != nil {
		return nil, err
	}
	return toSongEntity(m), nil
}

func (a *relationAccessors) AccountOf(ctx context.Context, userID uint) (*user.Account, error) {
	if err := a.mustExist(ctx, &UserModel{}, repository.KindUser, userID); err != nil {
		return nil, err
	}
	m, err := first[AccountModel](ctx, a.db, repository.KindAccount, "user_id = ?", userID)
	if err != nil {
		return nil, err
	}
	return toAccountEntity(m), nil
}

func (a *relationAccessors) UserOf(ctx context.Context, accountID uint) (*user.User, error) {
	acc, err := first[AccountModel](ctx, a.db, repository.KindAccount, "id = ?", accountID)
	if err != nil {
		return nil, err
	}
	m, err := first[UserModel](ctx, a.db, repository.KindUser, "id = ?", acc.UserID)
	if err != nil {
		return nil, err
	}
	return toUserEntity(m), nil
}

// AssetsOf 按(asset_type, asset_id)查询，目标本身是否存在由调用方判断
func (a *relationAccessors) AssetsOf(ctx context.Context, target asset.Target) ([]*asset.DigitalAsset, error) {
	var models []DigitalAssetModel
	err := getDB(ctx, a.db).
		Where("asset_type = ? AND asset_id = ?", string(target.Type), target.ID).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrapf(err, "查询%s的数字资产失败", target)
	}
	return mapAll(models, toDigitalAssetEntity), nil
}

// CopiesSold 同AssetsOf，只保留目标被已支付订单买过的情况
func (a *relationAccessors) CopiesSold(ctx context.Context, target asset.Target) ([]*asset.DigitalAsset, error) {
	sold, err := copiesSold(ctx, a.db, target)
	if err != nil {
		return nil, err
	}
	if sold == 0 {
		return []*asset.DigitalAsset{}, nil
	}
	return a.AssetsOf(ctx, target)
}

func (a *relationAccessors) TargetOfAsset(ctx context.Context, assetID uint) (asset.Target, error) {
	m, err := first[DigitalAssetModel](ctx, a.db, repository.KindDigitalAsset, "id = ?", assetID)
	if err != nil {
		return asset.Target{}, err
	}
	return asset.NewTarget(m.AssetType, m.AssetID)
}

func (a *relationAccessors) TargetOfProduct(ctx context.Context, productID uint) (asset.Target, error) {
	m, err := first[ProductModel](ctx, a.db, repository.KindProduct, "id = ?", productID)
	if err != nil {
		return asset.Target{}, err
	}
	return asset.NewTarget(m.AssetType, m.AssetID)
}

func (a *relationAccessors) ProductsOf(ctx context.Context, orderID uint) ([]*order.Product, error) {
	if err := a.mustExist(ctx, &OrderModel{}, repository.KindOrder, orderID); err != nil {
		return nil, err
	}
	return a.products(ctx, "order_id = ?", orderID)
}

func (a *relationAccessors) ProductsInCart(ctx context.Context, cartID uint) ([]*order.Product, error) {
	if err := a.mustExist(ctx, &CartModel{}, repository.KindCart, cartID); err != nil {
		return nil, err
	}
	return a.products(ctx, "cart_id = ?", cartID)
}

func (a *relationAccessors) products(ctx context.Context, query string, id uint) ([]*order.Product, error) {
	var models []ProductModel
	if err := getDB(ctx, a.db).Where(query, id).Order("id ASC").Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询订单行失败")
	}
	return mapAll(models, toProductEntity), nil
}

func (a *relationAccessors) mustExist(ctx context.Context, model any, kind repository.Kind, id uint) error {
	ok, err := exists(ctx, a.db, model, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound(kind.String(), id)
	}
	return nil
}

// first 查询单条记录，不存在时返回kind的NotFound
func first[M any](ctx context.Context, db *gorm.DB, kind repository.Kind, query string, id uint) (*M, error) {
	m := new(M)
	if err := getDB(ctx, db).Where(query, id).First(m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.ErrCodeNotFound, "%s (%s) 不存在", kind, formatQuery(query, id))
		}
		return nil, apperrors.Wrapf(err, "查询%s失败", kind)
	}
	return m, nil
}

func mapAll[M any, T any](models []M, fn func(*M) *T) []*T {
	out := make([]*T, len(models))
	for i := range models {
		out[i] = fn(&models[i])
	}
	return out
}

// formatQuery 把条件中的占位符替换为ID，只用于错误信息
func formatQuery(query string, id uint) string {
	return strings.Replace(query, "?", strconv.FormatUint(uint64(id), 10), 1)
}
