package mysql

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/xiebiao/mediastore/internal/domain/asset"
	"github.com/xiebiao/mediastore/internal/domain/order"
	apperrors "github.com/xiebiao/mediastore/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// isDuplicateError 判断是否为唯一索引冲突错误
// - MySQL 1062: Duplicate entry 'xxx' for key 'yyy'
// - SQLite: UNIQUE constraint failed: skus.code
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}

// normalizePage 页码从1开始，pageSize限制在[1, maxPageSize]
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// soldProducts 已支付订单中的订单行
func soldProducts(db *gorm.DB) *gorm.DB {
	return db.Model(&ProductModel{}).
		Joins("JOIN orders ON orders.id = products.order_id").
		Where("orders.status = ?", int(order.OrderStatusPaid))
}

// copiesSold 指向target的已支付订单行数量
func copiesSold(ctx context.Context, db *gorm.DB, target asset.Target) (int64, error) {
	var n int64
	err := soldProducts(getDB(ctx, db)).
		Where("products.asset_type = ? AND products.asset_id = ?", string(target.Type), target.ID).
		Count(&n).Error
	if err != nil {
		return 0, apperrors.Wrap(err, "查询成交记录失败")
	}
	return n, nil
}

// albumCopiesSold 专辑本身及其单曲的成交数量
func albumCopiesSold(ctx context.Context, db *gorm.DB, albumID uint) (int64, error) {
	tx := getDB(ctx, db)
	songIDs := tx.Model(&SongModel{}).Select("id").Where("album_id = ?", albumID)

	var n int64
	err := soldProducts(tx).
		Where("(products.asset_type = ? AND products.asset_id = ?) OR (products.asset_type = ? AND products.asset_id IN (?))",
			string(asset.TypeAlbum), albumID, string(asset.TypeSong), songIDs).
		Count(&n).Error
	if err != nil {
		return 0, apperrors.Wrap(err, "查询成交记录失败")
	}
	return n, nil
}

// exists 按主键判断记录是否存在（软删除的记录视为不存在）
func exists(ctx context.Context, db *gorm.DB, model any, id uint) (bool, error) {
	var n int64
	if err := getDB(ctx, db).Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, apperrors.Wrap(err, "查询记录失败")
	}
	return n > 0, nil
}

// referenceNotFound 引用的记录不存在
func referenceNotFound(kind string, id uint) *apperrors.AppError {
	return apperrors.Newf(apperrors.ErrCodeReferenceNotFound, "%s %d 不存在", kind, id)
}
