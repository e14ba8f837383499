package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/mediastore/internal/domain/asset"
	"github.com/xiebiao/mediastore/internal/domain/entitlement"
	apperrors "github.com/xiebiao/mediastore/pkg/errors"
)

const (
	// ManifestKeyPrefix 清单缓存键前缀，完整键为 manifest:{user_id}
	ManifestKeyPrefix = "manifest:"
	// DefaultManifestTTL 默认过期时间，水位不一致时缓存本来就不会被使用
	DefaultManifestTTL = 10 * time.Minute
)

// ManifestCache 用户下载清单缓存
// 设计说明：
// 1. 值为JSON，带有计算时的水位；读取方负责比较水位
// 2. 新的已支付订单由应用层主动Invalidate
// 3. 告警里的error无法序列化，只保存其文本
type ManifestCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewManifestCache 创建清单缓存，ttl为0时使用DefaultManifestTTL
func NewManifestCache(client *redis.Client, ttl time.Duration) *ManifestCache {
	if ttl <= 0 {
		ttl = DefaultManifestTTL
	}
	return &ManifestCache{client: client, ttl: ttl}
}

type watermarkWrapper struct {
	PaidOrders      int64     `json:"paid_orders"`
	LastPaidAt      time.Time `json:"last_paid_at"`
	AssetCount      int64     `json:"asset_count"`
	AssetsUpdatedAt time.Time `json:"assets_updated_at"`
}

type assetWrapper struct {
	ID        uint           `json:"id"`
	Key       string         `json:"key"`
	AssetType string         `json:"asset_type"`
	AssetID   uint           `json:"asset_id"`
	Title     string         `json:"title"`
	Price     int64          `json:"price"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type warningWrapper struct {
	OrderID   uint   `json:"order_id"`
	ProductID uint   `json:"product_id"`
	AssetType string `json:"asset_type"`
	AssetID   uint   `json:"asset_id"`
	Reason    string `json:"reason"`
	Message   string `json:"message,omitempty"`
}

type manifestWrapper struct {
	UserID     uint             `json:"user_id"`
	Assets     []assetWrapper   `json:"assets"`
	Warnings   []warningWrapper `json:"warnings,omitempty"`
	Watermark  watermarkWrapper `json:"watermark"`
	ComputedAt time.Time        `json:"computed_at"`
}

// Get 读取清单，未命中返回(nil, nil)
func (c *ManifestCache) Get(ctx context.Context, userID uint) (*entitlement.Manifest, error) {
	data, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, "读取清单缓存失败")
	}

	var w manifestWrapper
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, apperrors.Wrap(err, "解析清单缓存失败")
	}
	return fromWrapper(&w), nil
}

// Set 写入清单
func (c *ManifestCache) Set(ctx context.Context, m *entitlement.Manifest) error {
	data, err := json.Marshal(toWrapper(m))
	if err != nil {
		return apperrors.Wrap(err, "序列化清单失败")
	}
	if err := c.client.Set(ctx, c.key(m.UserID), data, c.ttl).Err(); err != nil {
		return apperrors.Wrap(err, "写入清单缓存失败")
	}
	return nil
}

// Invalidate 删除用户的清单缓存
func (c *ManifestCache) Invalidate(ctx context.Context, userID uint) error {
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil {
		return apperrors.Wrap(err, "删除清单缓存失败")
	}
	return nil
}

func (c *ManifestCache) key(userID uint) string {
	return fmt.Sprintf("%s%d", ManifestKeyPrefix, userID)
}

func toWrapper(m *entitlement.Manifest) *manifestWrapper {
	w := &manifestWrapper{
		UserID: m.UserID,
		Assets: make([]assetWrapper, len(m.Assets)),
		Watermark: watermarkWrapper{
			PaidOrders:      m.Watermark.PaidOrders,
			LastPaidAt:      m.Watermark.LastPaidAt,
			AssetCount:      m.Watermark.AssetCount,
			AssetsUpdatedAt: m.Watermark.AssetsUpdatedAt,
		},
		ComputedAt: m.ComputedAt,
	}
	for i, a := range m.Assets {
		w.Assets[i] = assetWrapper{
			ID:        a.ID,
			Key:       a.Key,
			AssetType: string(a.AssetType),
			AssetID:   a.AssetID,
			Title:     a.Title,
			Price:     a.Price,
			Metadata:  a.Metadata,
			CreatedAt: a.CreatedAt,
			UpdatedAt: a.UpdatedAt,
		}
	}
	for _, warn := range m.Warnings {
		ww := warningWrapper{
			OrderID:   warn.OrderID,
			ProductID: warn.ProductID,
			AssetType: string(warn.Target.Type),
			AssetID:   warn.Target.ID,
			Reason:    string(warn.Reason),
		}
		if warn.Err != nil {
			ww.Message = warn.Err.Error()
		}
		w.Warnings = append(w.Warnings, ww)
	}
	return w
}

func fromWrapper(w *manifestWrapper) *entitlement.Manifest {
	m := &entitlement.Manifest{
		UserID: w.UserID,
		Assets: make([]*asset.DigitalAsset, len(w.Assets)),
		Watermark: entitlement.Watermark{
			PaidOrders:      w.Watermark.PaidOrders,
			LastPaidAt:      w.Watermark.LastPaidAt,
			AssetCount:      w.Watermark.AssetCount,
			AssetsUpdatedAt: w.Watermark.AssetsUpdatedAt,
		},
		ComputedAt: w.ComputedAt,
	}
	for i, a := range w.Assets {
		m.Assets[i] = &asset.DigitalAsset{
			ID:        a.ID,
			Key:       a.Key,
			AssetType: asset.Type(a.AssetType),
			AssetID:   a.AssetID,
			Title:     a.Title,
			Price:     a.Price,
			Metadata:  a.Metadata,
			CreatedAt: a.CreatedAt,
			UpdatedAt: a.UpdatedAt,
		}
	}
	for _, ww := range w.Warnings {
		warn := entitlement.IntegrityWarning{
			OrderID:   ww.OrderID,
			ProductID: ww.ProductID,
			Target:    asset.Target{Type: asset.Type(ww.AssetType), ID: ww.AssetID},
			Reason:    entitlement.WarningReason(ww.Reason),
		}
		if ww.Message != "" {
			warn.Err = errors.New(ww.Message)
		}
		m.Warnings = append(m.Warnings, warn)
	}
	return m
}
