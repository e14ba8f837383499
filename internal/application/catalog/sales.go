package catalog

import (
	"context"

	"github.com/xiebiao/mediastore/internal/domain/asset"
)

// TargetLookup 解析多态目标（*asset.Registry实现）
type TargetLookup interface {
	Resolve(ctx context.Context, target asset.Target) (any, error)
}

// SalesSource 已售出的数字资产（关联解析器实现）
type SalesSource interface {
	CopiesSold(ctx context.Context, target asset.Target) ([]*asset.DigitalAsset, error)
}

// SalesUseCase 可售实体的销售情况
type SalesUseCase struct {
	targets TargetLookup
	sales   SalesSource
}

// NewSalesUseCase 创建销售查询用例
func NewSalesUseCase(targets TargetLookup, sales SalesSource) *SalesUseCase {
	return &SalesUseCase{targets: targets, sales: sales}
}

// CopiesSold 目标被已支付订单买过时返回其全部数字资产，否则为空
// 目标不存在返回NotFound
func (uc *SalesUseCase) CopiesSold(ctx context.Context, target asset.Target) ([]*asset.DigitalAsset, error) {
	if _, err := uc.targets.Resolve(ctx, target); err != nil {
		return nil, err
	}
	return uc.sales.CopiesSold(ctx, target)
}
