// Package events 订单事件
//
// 事件在事务提交之后发出，发布失败只记录日志：订单状态以数据库为准，
// 下游（邮件、统计）可以通过订单列表补偿。连续失败后熔断，熔断期间事件直接丢弃。
package events

import (
	"context"
	"errors"
	"time"

	"github.com/xiebiao/mediastore/internal/domain/order"
	"github.com/xiebiao/mediastore/pkg/circuitbreaker"
	"github.com/xiebiao/mediastore/pkg/logger"
)

const (
	breakerFailures = 5
	breakerTimeout  = 30 * time.Second
)

// 路由键，Exchange为topic类型
const (
	RoutingOrderCreated   = "order.created"
	RoutingOrderPaid      = "order.paid"
	RoutingOrderCancelled = "order.cancelled"
)

// Publisher 发布一条JSON消息（*mq.Publisher实现）
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

// ProductRef 事件中的订单行
type ProductRef struct {
	ProductID uint   `json:"product_id"`
	AssetType string `json:"asset_type"`
	AssetID   uint   `json:"asset_id"`
	Price     int64  `json:"price"`
}

// OrderEvent 订单事件消息体
type OrderEvent struct {
	OrderID    uint         `json:"order_id"`
	OrderNo    string       `json:"order_no"`
	UserID     uint         `json:"user_id"`
	Status     string       `json:"status"`
	Total      int64        `json:"total"`
	Products   []ProductRef `json:"products"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// NewOrderEvent 由订单生成事件
func NewOrderEvent(o *order.Order) *OrderEvent {
	e := &OrderEvent{
		OrderID:    o.ID,
		OrderNo:    o.OrderNo,
		UserID:     o.UserID,
		Status:     o.Status.String(),
		Total:      o.Total,
		Products:   make([]ProductRef, len(o.Products)),
		OccurredAt: time.Now(),
	}
	for i, p := range o.Products {
		e.Products[i] = ProductRef{
			ProductID: p.ID,
			AssetType: string(p.Target.Type),
			AssetID:   p.Target.ID,
			Price:     p.Price,
		}
	}
	return e
}

// OrderEvents 订单事件发布
type OrderEvents struct {
	pub     Publisher
	breaker *circuitbreaker.CircuitBreaker
	log     logger.Interface
}

// NewOrderEvents pub为nil时事件被丢弃（events.enabled=false）
func NewOrderEvents(pub Publisher, log logger.Interface) *OrderEvents {
	log = log.Named("events")
	return &OrderEvents{
		pub: pub,
		breaker: circuitbreaker.NewCircuitBreaker("events", circuitbreaker.Config{
			Timeout: breakerTimeout,
			ReadyToTrip: func(c circuitbreaker.Counts) bool {
				return c.ConsecutiveFailures >= breakerFailures
			},
			OnStateChange: func(name string, from, to circuitbreaker.State) {
				log.Warnw("事件发布熔断器状态变化", "from", from.String(), "to", to.String())
			},
		}),
		log: log,
	}
}

// Created 结算生成订单
func (e *OrderEvents) Created(ctx context.Context, o *order.Order) {
	e.publish(ctx, RoutingOrderCreated, o)
}

// Paid 订单支付确认
func (e *OrderEvents) Paid(ctx context.Context, o *order.Order) {
	e.publish(ctx, RoutingOrderPaid, o)
}

// Cancelled 订单取消
func (e *OrderEvents) Cancelled(ctx context.Context, o *order.Order) {
	e.publish(ctx, RoutingOrderCancelled, o)
}

func (e *OrderEvents) publish(ctx context.Context, routingKey string, o *order.Order) {
	if e.pub == nil {
		return
	}
	msg := NewOrderEvent(o)
	err := e.breaker.Execute(func() error {
		return e.pub.Publish(ctx, routingKey, msg)
	})
	if errors.Is(err, circuitbreaker.ErrOpenState) {
		e.log.Debugw("熔断中，订单事件被丢弃", "routing_key", routingKey, "order_id", o.ID)
		return
	}
	if err != nil {
		e.log.Warnw("订单事件发布失败",
			"routing_key", routingKey,
			"order_id", o.ID,
			"order_no", o.OrderNo,
			"error", err,
		)
	}
}
