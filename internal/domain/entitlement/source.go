package entitlement

import (
	"context"

	"github.com/xiebiao/mediastore/internal/domain/asset"
	"github.com/xiebiao/mediastore/internal/domain/order"
)

// OrderSource 读取订单
// 返回的订单必须带上全部订单行：订单行与订单在同一事务写入且支付后不可变，
// 所以一个已支付订单要么整体在快照里，要么整体不在
type OrderSource interface {
	PaidOrdersOf(ctx context.Context, userID uint) ([]*order.Order, error)
	FindOrder(ctx context.Context, orderID uint) (*order.Order, error)
	Watermark(ctx context.Context, userID uint) (Watermark, error)
}

// TargetResolver 解析多态目标并检查可售（*asset.Registry实现）
type TargetResolver interface {
	ResolveEligible(ctx context.Context, target asset.Target) (any, error)
}

// AssetSource 多态关联：目标 → 数字资产（关联解析器实现）
type AssetSource interface {
	AssetsOf(ctx context.Context, target asset.Target) ([]*asset.DigitalAsset, error)
}

// Cache 每用户清单缓存
// Get未命中返回nil, nil
type Cache interface {
	Get(ctx context.Context, userID uint) (*Manifest, error)
	Set(ctx context.Context, m *Manifest) error
	Invalidate(ctx context.Context, userID uint) error
}
