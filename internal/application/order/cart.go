package order

import (
	"context"

	"github.com/xiebiao/mediastore/internal/domain/asset"
	"github.com/xiebiao/mediastore/internal/domain/entitlement"
	"github.com/xiebiao/mediastore/internal/domain/order"
)

// CartUseCase 购物车用例
type CartUseCase struct {
	carts   order.CartStore
	targets entitlement.TargetResolver
}

// NewCartUseCase targets一般是*asset.Registry
func NewCartUseCase(carts order.CartStore, targets entitlement.TargetResolver) *CartUseCase {
	return &CartUseCase{carts: carts, targets: targets}
}

// Get 用户的购物车，不存在时创建；用户不存在返回NotFound
func (uc *CartUseCase) Get(ctx context.Context, userID uint) (*order.Cart, error) {
	return uc.carts.ForUser(ctx, userID)
}

// AddRequest 加入购物车请求
type AddRequest struct {
	UserID    uint
	AssetType string
	AssetID   uint
	Price     int64 // 0表示按目标的数字资产总价
}

// Add 加入购物车
// 目标必须存在且可售（单曲需要同时有FLAC文件和SKU），并且带有数字资产
func (uc *CartUseCase) Add(ctx context.Context, req AddRequest) (*order.Product, error) {
	target, err := asset.NewTarget(req.AssetType, req.AssetID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.targets.ResolveEligible(ctx, target); err != nil {
		return nil, err
	}

	cart, err := uc.carts.ForUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	return uc.carts.AddProduct(ctx, cart.ID, target, req.Price)
}

// Remove 从购物车移除一行
func (uc *CartUseCase) Remove(ctx context.Context, userID, productID uint) error {
	cart, err := uc.carts.ForUser(ctx, userID)
	if err != nil {
		return err
	}
	return uc.carts.RemoveProduct(ctx, cart.ID, productID)
}
