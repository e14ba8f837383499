package order

import (
	"context"

	"github.com/xiebiao/mediastore/internal/domain/order"
)

// QueryUseCase 订单查询
type QueryUseCase struct {
	store order.Store
}

// NewQueryUseCase 创建订单查询用例
func NewQueryUseCase(store order.Store) *QueryUseCase {
	return &QueryUseCase{store: store}
}

// ByOrderNo 按订单号查询
func (uc *QueryUseCase) ByOrderNo(ctx context.Context, orderNo string) (*order.Order, error) {
	return uc.store.FindByOrderNo(ctx, orderNo)
}

// ListByUser 用户的订单，按创建时间倒序
func (uc *QueryUseCase) ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]*order.Order, int64, error) {
	return uc.store.ListByUserID(ctx, userID, page, pageSize)
}
