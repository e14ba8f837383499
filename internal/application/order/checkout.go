package order

import (
	"context"

	"github.com/xiebiao/mediastore/internal/domain/order"
	"github.com/xiebiao/mediastore/pkg/logger"
	"github.com/xiebiao/mediastore/pkg/metrics"
	"github.com/xiebiao/mediastore/pkg/tracing"
)

const tracerName = "application/order"

// Transactor 事务边界（*mysql.TxManager实现）
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier 订单事件（*events.OrderEvents实现），只在事务提交后调用
type Notifier interface {
	Created(ctx context.Context, o *order.Order)
	Paid(ctx context.Context, o *order.Order)
	Cancelled(ctx context.Context, o *order.Order)
}

// CheckoutUseCase 购物车结算
type CheckoutUseCase struct {
	tx     Transactor
	carts  order.CartStore
	orders order.Store
	events Notifier
	log    logger.Interface
}

// NewCheckoutUseCase 创建结算用例
func NewCheckoutUseCase(tx Transactor, carts order.CartStore, orders order.Store, events Notifier, log logger.Interface) *CheckoutUseCase {
	return &CheckoutUseCase{
		tx:     tx,
		carts:  carts,
		orders: orders,
		events: events,
		log:    log.Named("checkout"),
	}
}

// Execute 把购物车转换为待支付订单
// 订单写入和订单行移动在同一事务中；价格使用加入购物车时的快照
func (uc *CheckoutUseCase) Execute(ctx context.Context, userID uint) (o *order.Order, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "Checkout")
	defer func() { tracing.EndSpan(span, err) }()

	err = uc.tx.Transaction(ctx, func(ctx context.Context) error {
		cart, err := uc.carts.ForUser(ctx, userID)
		if err != nil {
			return err
		}
		if cart.IsEmpty() {
			return order.ErrEmptyCart
		}

		o = order.NewOrder(order.GenerateOrderNo(), userID, cart.Products)
		return uc.orders.Place(ctx, o, cart.ID)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordCheckout()
	uc.log.Infow("订单已创建",
		"order_id", o.ID,
		"order_no", o.OrderNo,
		"user_id", userID,
		"total", o.Total,
		"products", len(o.Products),
	)
	uc.events.Created(ctx, o)
	return o, nil
}
