package order

import (
	"context"

	"github.com/xiebiao/mediastore/internal/domain/asset"
	"github.com/xiebiao/mediastore/internal/domain/repository"
)

// 订单、订单行、购物车的通用仓储
type (
	Repository        = repository.Repository[Order]
	ProductRepository = repository.Repository[Product]
	CartRepository    = repository.Repository[Cart]
)

// Store 订单聚合中通用CRUD覆盖不到的写操作
// 由domain层定义接口，infrastructure层实现，事务通过context传递
type Store interface {
	// FindByOrderNo 根据订单号查找订单（包含订单行）
	FindByOrderNo(ctx context.Context, orderNo string) (*Order, error)

	// ListByUserID 查询用户的订单列表
	ListByUserID(ctx context.Context, userID uint, page, pageSize int) ([]*Order, int64, error)

	// Place 写入订单并把购物车中的订单行移入订单，必须在事务中调用
	Place(ctx context.Context, o *Order, cartID uint) error
}

// CartStore 购物车操作
type CartStore interface {
	// ForUser 取用户的购物车，不存在时创建
	ForUser(ctx context.Context, userID uint) (*Cart, error)

	// AddProduct 加入一行，target必须带有数字资产
	AddProduct(ctx context.Context, cartID uint, target asset.Target, price int64) (*Product, error)

	// RemoveProduct 移除一行
	RemoveProduct(ctx context.Context, cartID, productID uint) error
}
