package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/xiebiao/mediastore/internal/domain/asset"
)

// OrderStatus 订单状态
// 只能从待支付单向流转到已支付或已取消，两者都是终态
type OrderStatus int

const (
	OrderStatusPending   OrderStatus = 1 // 待支付
	OrderStatusPaid      OrderStatus = 2 // 已支付
	OrderStatusCancelled OrderStatus = 3 // 已取消
)

// String 状态的对外表示
func (s OrderStatus) String() string {
	switch s {
	case OrderStatusPending:
		return "pending"
	case OrderStatusPaid:
		return "paid"
	case OrderStatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsValid 是否为已定义状态
func (s OrderStatus) IsValid() bool {
	return s >= OrderStatusPending && s <= OrderStatusCancelled
}

// IsTerminal 是否为终态
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid || s == OrderStatusCancelled
}

// ParseOrderStatus 解析状态名（pending/paid/cancelled）
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return OrderStatusPending, nil
	case "paid":
		return OrderStatusPaid, nil
	case "cancelled", "canceled":
		return OrderStatusCancelled, nil
	default:
		return 0, ErrInvalidStatus.WithCause(fmt.Errorf("status %q", s))
	}
}

// transitions 合法的状态流转
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:      {},
	OrderStatusCancelled: {},
}

// CanTransition 检查from→to是否合法
func CanTransition(from, to OrderStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Order 订单（聚合根）
type Order struct {
	ID        uint
	OrderNo   string
	UserID    uint // 买家
	Status    OrderStatus
	Total     int64 // 分
	Products  []Product
	PaidAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Product 订单行（也用作购物车行）
// Target指向可售实体（专辑/单曲），不是DigitalAsset本身
type Product struct {
	ID        uint
	OrderID   *uint
	CartID    *uint
	Target    asset.Target
	Price     int64 // 加入购物车时的价格快照(分)
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Cart 购物车，每个用户一个，结算后清空
type Cart struct {
	ID        uint
	UserID    uint
	Products  []Product
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOrder 创建待支付订单
func NewOrder(orderNo string, userID uint, products []Product) *Order {
	now := time.Now()
	o := &Order{
		OrderNo:   orderNo,
		UserID:    userID,
		Status:    OrderStatusPending,
		Products:  products,
		CreatedAt: now,
		UpdatedAt: now,
	}
	o.Total = o.CalculateTotal()
	return o
}

// CanTransitionTo 检查是否可以转换到目标状态
func (o *Order) CanTransitionTo(target OrderStatus) bool {
	return CanTransition(o.Status, target)
}

// TransitionTo 状态转换
func (o *Order) TransitionTo(target OrderStatus) error {
	if !o.CanTransitionTo(target) {
		return ErrInvalidStatusTransition.WithCause(fmt.Errorf("%s -> %s", o.Status, target))
	}
	now := time.Now()
	o.Status = target
	o.UpdatedAt = now
	if target == OrderStatusPaid {
		o.PaidAt = &now
	}
	return nil
}

// Pay 确认支付（支付本身在外部完成）
func (o *Order) Pay() error {
	return o.TransitionTo(OrderStatusPaid)
}

// Cancel 取消订单
func (o *Order) Cancel() error {
	return o.TransitionTo(OrderStatusCancelled)
}

// IsPaid 是否已支付
func (o *Order) IsPaid() bool {
	return o.Status == OrderStatusPaid
}

// CalculateTotal 计算订单总金额
func (o *Order) CalculateTotal() int64 {
	var total int64
	for _, p := range o.Products {
		total += p.Price
	}
	return total
}

// IsOwnedBy 检查订单是否属于指定用户
func (o *Order) IsOwnedBy(userID uint) bool {
	return o.UserID == userID
}

// IsEmpty 购物车是否为空
func (c *Cart) IsEmpty() bool {
	return len(c.Products) == 0
}

// Contains 购物车中是否已有指向target的行
func (c *Cart) Contains(target asset.Target) bool {
	for _, p := range c.Products {
		if p.Target == target {
			return true
		}
	}
	return false
}
