package order

import (
	"context"

	"github.com/xiebiao/mediastore/internal/domain/order"
	"github.com/xiebiao/mediastore/internal/domain/repository"
	"github.com/xiebiao/mediastore/pkg/logger"
	"github.com/xiebiao/mediastore/pkg/metrics"
)

// ManifestInvalidator 删除用户的下载清单缓存（*entitlement.Resolver实现）
type ManifestInvalidator interface {
	Invalidate(ctx context.Context, userID uint) error
}

// PaymentUseCase 消费外部支付结果
// 支付本身不在本系统内完成，这里只推进订单状态
type PaymentUseCase struct {
	orders   order.Repository
	manifest ManifestInvalidator
	events   Notifier
	log      logger.Interface
}

// NewPaymentUseCase 创建支付确认用例
func NewPaymentUseCase(orders order.Repository, manifest ManifestInvalidator, events Notifier, log logger.Interface) *PaymentUseCase {
	return &PaymentUseCase{
		orders:   orders,
		manifest: manifest,
		events:   events,
		log:      log.Named("payment"),
	}
}

// MarkPaid pending → paid
// 已支付订单返回ErrOrderImmutable，已取消订单返回ErrInvalidStatusTransition
func (uc *PaymentUseCase) MarkPaid(ctx context.Context, orderID uint) (*order.Order, error) {
	o, err := uc.transition(ctx, orderID, order.OrderStatusPaid)
	if err != nil {
		return nil, err
	}

	metrics.RecordOrderPaid()
	// 水位已经变化，缓存不会再被使用；这里只是提前释放
	if err := uc.manifest.Invalidate(ctx, o.UserID); err != nil {
		uc.log.Warnw("清单缓存删除失败", "user_id", o.UserID, "error", err)
	}
	uc.log.Infow("订单已支付", "order_id", o.ID, "order_no", o.OrderNo, "user_id", o.UserID)
	uc.events.Paid(ctx, o)
	return o, nil
}

// Cancel pending → cancelled
func (uc *PaymentUseCase) Cancel(ctx context.Context, orderID uint) (*order.Order, error) {
	o, err := uc.transition(ctx, orderID, order.OrderStatusCancelled)
	if err != nil {
		return nil, err
	}

	uc.log.Infow("订单已取消", "order_id", o.ID, "order_no", o.OrderNo)
	uc.events.Cancelled(ctx, o)
	return o, nil
}

func (uc *PaymentUseCase) transition(ctx context.Context, orderID uint, to order.OrderStatus) (*order.Order, error) {
	return uc.orders.Update(ctx, orderID, repository.Attributes{"status": to.String()})
}
