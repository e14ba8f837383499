package mysql

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/mediastore/internal/domain/asset"
	"github.com/xiebiao/mediastore/internal/domain/catalog"
	"github.com/xiebiao/mediastore/internal/domain/order"
	"github.com/xiebiao/mediastore/internal/domain/repository"
	apperrors "github.com/xiebiao/mediastore/pkg/errors"
)

// cartStore 购物车操作实现
type cartStore struct {
	db *gorm.DB
}

// NewCartStore 创建购物车存储
func NewCartStore(db *gorm.DB) order.CartStore {
	return &cartStore{db: db}
}

// ForUser 取用户的购物车，不存在时创建
// carts.user_id唯一，并发创建时只有一条会写入
func (s *cartStore) ForUser(ctx context.Context, userID uint) (*order.Cart, error) {
	ok, err := exists(ctx, s.db, &UserModel{}, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, referenceNotFound(repository.KindUser.String(), userID)
	}

	db := getDB(ctx, s.db)
	err = db.Clauses(clause.OnConflict{DoNothing: true}).Create(&CartModel{UserID: userID}).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "创建购物车失败")
	}

	var model CartModel
	err = db.Preload("Products", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Where("user_id = ?", userID).
		First(&model).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询购物车失败")
	}
	return toCartEntity(&model), nil
}

// AddProduct 加入一行
// 同一目标在购物车中只能出现一次；目标必须带有数字资产
func (s *cartStore) AddProduct(ctx context.Context, cartID uint, target asset.Target, price int64) (*order.Product, error) {
	var model ProductModel
	err := transaction(ctx, s.db, func(ctx context.Context) error {
		ok, err := exists(ctx, s.db, &CartModel{}, cartID)
		if err != nil {
			return err
		}
		if !ok {
			return referenceNotFound(repository.KindCart.String(), cartID)
		}

		db := getDB(ctx, s.db)
		var n int64
		err = db.Model(&ProductModel{}).
			Where("cart_id = ? AND asset_type = ? AND asset_id = ?", cartID, string(target.Type), target.ID).
			Count(&n).Error
		if err != nil {
			return apperrors.Wrap(err, "查询购物车行失败")
		}
		if n > 0 {
			return order.ErrAlreadyInCart.WithCause(fmt.Errorf("%s", target))
		}

		total, err := requireAssets(ctx, s.db, target)
		if err != nil {
			return err
		}
		if price == 0 {
			price = total
		}

		model = ProductModel{
			CartID:    &cartID,
			AssetType: string(target.Type),
			AssetID:   target.ID,
			Price:     price,
		}
		if err := db.Create(&model).Error; err != nil {
			return apperrors.Wrap(err, "加入购物车失败")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toProductEntity(&model), nil
}

// RemoveProduct 移除一行，不在该购物车中返回ErrProductNotInCart
func (s *cartStore) RemoveProduct(ctx context.Context, cartID, productID uint) error {
	result := getDB(ctx, s.db).
		Where("id = ? AND cart_id = ?", productID, cartID).
		Delete(&ProductModel{})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "移除购物车行失败")
	}
	if result.RowsAffected == 0 {
		return order.ErrProductNotInCart.WithCause(fmt.Errorf("cart %d product %d", cartID, productID))
	}
	return nil
}

// =========================================
// genreLinker: Album ↔ Genre
// =========================================

type genreLinker struct {
	db *gorm.DB
}

// NewGenreLinker 创建专辑流派关联维护
func NewGenreLinker(db *gorm.DB) catalog.GenreLinker {
	return &genreLinker{db: db}
}

// Attach 关联专辑与流派，重复关联不报错
func (l *genreLinker) Attach(ctx context.Context, albumID, genreID uint) error {
	if err := l.checkBoth(ctx, albumID, genreID); err != nil {
		return err
	}
	err := getDB(ctx, l.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&AlbumGenreModel{AlbumID: albumID, GenreID: genreID}).Error
	if err != nil {
		return apperrors.Wrap(err, "关联专辑流派失败")
	}
	return nil
}

// Detach 解除关联，关联不存在返回NotFound
func (l *genreLinker) Detach(ctx context.Context, albumID, genreID uint) error {
	result := getDB(ctx, l.db).
		Where("album_id = ? AND genre_id = ?", albumID, genreID).
		Delete(&AlbumGenreModel{})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "解除专辑流派关联失败")
	}
	if result.RowsAffected == 0 {
		return apperrors.Newf(apperrors.ErrCodeNotFound, "专辑 %d 未关联流派 %d", albumID, genreID)
	}
	return nil
}

func (l *genreLinker) checkBoth(ctx context.Context, albumID, genreID uint) error {
	for _, ref := range []struct {
		kind  repository.Kind
		model any
		id    uint
	}{
		{repository.KindAlbum, &AlbumModel{}, albumID},
		{repository.KindGenre, &GenreModel{}, genreID},
	} {
		ok, err := exists(ctx, l.db, ref.model, ref.id)
		if err != nil {
			return err
		}
		if !ok {
			return referenceNotFound(ref.kind.String(), ref.id)
		}
	}
	return nil
}
