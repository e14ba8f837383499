package entitlement

import (
	"fmt"
	"time"

	"github.com/xiebiao/mediastore/internal/domain/asset"
)

// Watermark 计算清单时观察到的数据版本
// 每次支付都会推进PaidOrders与LastPaidAt，与订单ID的顺序无关；
// 数字资产的增删改会推进AssetCount或AssetsUpdatedAt
type Watermark struct {
	PaidOrders      int64
	LastPaidAt      time.Time
	AssetCount      int64
	AssetsUpdatedAt time.Time
}

// Equal 两个水位是否相同
func (w Watermark) Equal(o Watermark) bool {
	return w.PaidOrders == o.PaidOrders &&
		w.LastPaidAt.Equal(o.LastPaidAt) &&
		w.AssetCount == o.AssetCount &&
		w.AssetsUpdatedAt.Equal(o.AssetsUpdatedAt)
}

// Manifest 用户可下载的数字资产清单
// Assets按DigitalAsset ID去重并升序排列：同一专辑买两次只出现一次
type Manifest struct {
	UserID     uint
	OrderID    uint // 按订单计算时有值
	Assets     []*asset.DigitalAsset
	Warnings   []IntegrityWarning
	Watermark  Watermark
	ComputedAt time.Time
}

// AssetIDs 清单中的资产ID集合
func (m *Manifest) AssetIDs() []uint {
	ids := make([]uint, len(m.Assets))
	for i, a := range m.Assets {
		ids[i] = a.ID
	}
	return ids
}

// Contains 清单是否包含某个资产
func (m *Manifest) Contains(assetID uint) bool {
	for _, a := range m.Assets {
		if a.ID == assetID {
			return true
		}
	}
	return false
}

// WarningReason 完整性告警原因
type WarningReason string

const (
	ReasonTargetMissing     WarningReason = "target_missing"
	ReasonTargetNotSellable WarningReason = "target_not_sellable"
	ReasonUnregisteredType  WarningReason = "unregistered_type"
	ReasonNoAssets          WarningReason = "no_assets"
)

// IntegrityWarning 订单行的多态目标无法解析时产生，不会中断清单计算
type IntegrityWarning struct {
	OrderID   uint
	ProductID uint
	Target    asset.Target
	Reason    WarningReason
	Err       error
}

func (w IntegrityWarning) Error() string {
	msg := fmt.Sprintf("integrity warning: order %d product %d target %s: %s", w.OrderID, w.ProductID, w.Target, w.Reason)
	if w.Err != nil {
		msg += ": " + w.Err.Error()
	}
	return msg
}

func (w IntegrityWarning) Unwrap() error { return w.Err }
