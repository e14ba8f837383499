package asset

import (
	"time"
)

// DigitalAsset 可下载的数字资产
// 通过(AssetType, AssetID)多态关联到专辑或单曲；创建后只允许修改Title、Price、Metadata
type DigitalAsset struct {
	ID        uint
	Key       string // 对外的下载标识（uuid）
	AssetType Type
	AssetID   uint
	Title     string
	Price     int64 // 分
	Metadata  map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Target 资产指向的可售实体
func (a *DigitalAsset) Target() Target {
	return Target{Type: a.AssetType, ID: a.AssetID}
}
