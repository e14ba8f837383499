package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xiebiao/mediastore/internal/application/order"
	"github.com/xiebiao/mediastore/internal/interface/http/dto"
	"github.com/xiebiao/mediastore/pkg/response"
)

// OrderHandler 订单状态流转与查询
// 订单的增删改查走通用资源路由
type OrderHandler struct {
	payment *order.PaymentUseCase
	query   *order.QueryUseCase
}

func NewOrderHandler(payment *order.PaymentUseCase, query *order.QueryUseCase) *OrderHandler {
	return &OrderHandler{payment: payment, query: query}
}

// MarkPaid 标记已支付
// @Summary      标记订单已支付
// @Tags         订单
// @Produce      json
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Failure      409 {object} response.Response "状态不允许"
// @Router       /api/v1/orders/{id}/paid [post]
func (h *OrderHandler) MarkPaid(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	o, err := h.payment.MarkPaid(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewOrderResponse(o))
}

// Cancel 取消待支付订单
// @Summary      取消订单
// @Tags         订单
// @Produce      json
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Failure      409 {object} response.Response "已支付订单不可修改"
// @Router       /api/v1/orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	o, err := h.payment.Cancel(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewOrderResponse(o))
}

// ByOrderNo 按订单号查询
// @Summary      按订单号查询
// @Tags         订单
// @Produce      json
// @Param        orderNo path string true "订单号"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Failure      404 {object} response.Response "订单不存在"
// @Router       /api/v1/order-numbers/{orderNo} [get]
func (h *OrderHandler) ByOrderNo(c *gin.Context) {
	o, err := h.query.ByOrderNo(c.Request.Context(), c.Param("orderNo"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewOrderResponse(o))
}

// ListByUser 用户的订单，按创建时间倒序
// @Summary      用户订单列表
// @Tags         订单
// @Produce      json
// @Param        id        path  int true  "用户ID"
// @Param        page      query int false "页码"
// @Param        page_size query int false "每页数量"
// @Success      200 {object} response.Response
// @Router       /api/v1/users/{id}/orders [get]
func (h *OrderHandler) ListByUser(c *gin.Context) {
	userID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	page, size := pageQuery(c)
	orders, total, err := h.query.ListByUser(c.Request.Context(), userID, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewPage(dto.PresentAll(orders, dto.NewOrderResponse), total, page, size))
}
