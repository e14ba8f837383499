package mysql

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/xiebiao/mediastore/internal/domain/asset"
	"github.com/xiebiao/mediastore/internal/domain/repository"
	apperrors "github.com/xiebiao/mediastore/pkg/errors"
)

// NewDigitalAssetRepository 数字资产仓储
// 1. 创建时(asset_type, asset_id)必须通过registry解析到存在且可售的记录
// 2. 创建后只能修改title、price、metadata
// 3. 目标已有成交时不能删除
func NewDigitalAssetRepository(db *gorm.DB, registry *asset.Registry) asset.DigitalAssetRepository {
	return newCRUDRepository(db, schema[asset.DigitalAsset, DigitalAssetModel]{
		kind: repository.KindDigitalAsset,
		fields: fields[DigitalAssetModel]{
			"asset_type": assetTypeField(func(m *DigitalAssetModel) *string { return &m.AssetType }),
			"asset_id":   uintField("asset_id", func(m *DigitalAssetModel) *uint { return &m.AssetID }),
			"title":      stringField("title", func(m *DigitalAssetModel) *string { return &m.Title }),
			"price":      int64Field("price", func(m *DigitalAssetModel) *int64 { return &m.Price }),
			"metadata":   jsonMapField("metadata", func(m *DigitalAssetModel) *datatypes.JSONMap { return &m.Metadata }),
		},
		toEntity: toDigitalAssetEntity,
		beforeCreate: func(ctx context.Context, db *gorm.DB, m *DigitalAssetModel) error {
			target, err := asset.NewTarget(m.AssetType, m.AssetID)
			if err != nil {
				return err
			}
			if _, err := registry.ResolveEligible(ctx, target); err != nil {
				return err
			}
			m.Key = uuid.NewString()
			return nil
		},
		beforeUpdate: func(ctx context.Context, db *gorm.DB, cur *DigitalAssetModel, attrs repository.Attributes) error {
			if attrs.Has("asset_type") || attrs.Has("asset_id") {
				return asset.ErrTargetImmutable.WithCause(fmt.Errorf("%s#%d", cur.AssetType, cur.ID))
			}
			return nil
		},
		beforeDelete: func(ctx context.Context, db *gorm.DB, cur *DigitalAssetModel) error {
			sold, err := copiesSold(ctx, db, asset.Target{Type: asset.Type(cur.AssetType), ID: cur.AssetID})
			if err != nil {
				return err
			}
			if sold > 0 {
				return asset.ErrAssetHasSales
			}
			return nil
		},
	})
}

// assetTypeField 只接受已知的标签
func assetTypeField[M any](ptr func(*M) *string) field[M] {
	return field[M]{column: "asset_type", set: func(m *M, v any) error {
		s, err := coerce[string]("asset_type", v)
		if err != nil {
			return err
		}
		t, err := asset.ParseType(s)
		if err != nil {
			return err
		}
		*ptr(m) = string(t)
		return nil
	}}
}

// deleteAssetsOf 级联删除目标的全部数字资产
func deleteAssetsOf(ctx context.Context, db *gorm.DB, target asset.Target) error {
	err := getDB(ctx, db).
		Where("asset_type = ? AND asset_id = ?", string(target.Type), target.ID).
		Delete(&DigitalAssetModel{}).Error
	if err != nil {
		return apperrors.Wrapf(err, "删除%s的数字资产失败", target)
	}
	return nil
}

func toDigitalAssetEntity(m *DigitalAssetModel) *asset.DigitalAsset {
	var metadata map[string]any
	if m.Metadata != nil {
		metadata = map[string]any(m.Metadata)
	}
	return &asset.DigitalAsset{
		ID:        m.ID,
		Key:       m.Key,
		AssetType: asset.Type(m.AssetType),
		AssetID:   m.AssetID,
		Title:     m.Title,
		Price:     m.Price,
		Metadata:  metadata,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
