package entitlement

import (
	"context"

	"github.com/xiebiao/mediastore/internal/domain/entitlement"
	"github.com/xiebiao/mediastore/internal/domain/user"
)

// ManifestUseCase 下载清单查询
type ManifestUseCase struct {
	resolver *entitlement.Resolver
	users    user.Repository
}

// NewManifestUseCase 创建下载清单用例
func NewManifestUseCase(resolver *entitlement.Resolver, users user.Repository) *ManifestUseCase {
	return &ManifestUseCase{resolver: resolver, users: users}
}

// ForUser 用户可下载的全部数字资产
// 用户不存在返回NotFound，没有已支付订单时返回空清单
func (uc *ManifestUseCase) ForUser(ctx context.Context, userID uint) (*entitlement.Manifest, error) {
	if _, err := uc.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	return uc.resolver.ManifestFor(ctx, userID)
}

// ForOrder 单个订单带来的数字资产，未支付订单为空清单
func (uc *ManifestUseCase) ForOrder(ctx context.Context, orderID uint) (*entitlement.Manifest, error) {
	return uc.resolver.ManifestForOrder(ctx, orderID)
}
