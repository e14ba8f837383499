package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xiebiao/mediastore/internal/application/order"
	"github.com/xiebiao/mediastore/internal/interface/http/dto"
	apperrors "github.com/xiebiao/mediastore/pkg/errors"
	"github.com/xiebiao/mediastore/pkg/response"
)

// CartHandler 购物车与结算
type CartHandler struct {
	cart     *order.CartUseCase
	checkout *order.CheckoutUseCase
}

func NewCartHandler(cart *order.CartUseCase, checkout *order.CheckoutUseCase) *CartHandler {
	return &CartHandler{cart: cart, checkout: checkout}
}

// Get 查看购物车，首次访问时创建
// @Summary      查看购物车
// @Tags         购物车
// @Produce      json
// @Param        id path int true "用户ID"
// @Success      200 {object} response.Response{data=dto.CartResponse}
// @Router       /api/v1/users/{id}/cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	userID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	cart, err := h.cart.Get(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewCartResponse(cart))
}

// Add 加入购物车
// @Summary      加入购物车
// @Description  单曲需要同时有FLAC文件和SKU才可售
// @Tags         购物车
// @Accept       json
// @Produce      json
// @Param        id      path int                  true "用户ID"
// @Param        request body dto.AddToCartRequest true "商品"
// @Success      201 {object} response.Response{data=dto.ProductResponse}
// @Failure      404 {object} response.Response "目标不存在"
// @Failure      409 {object} response.Response "目标不可售"
// @Router       /api/v1/users/{id}/cart/items [post]
func (h *CartHandler) Add(c *gin.Context) {
	userID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.ErrBindError.WithCause(err))
		return
	}

	product, err := h.cart.Add(c.Request.Context(), order.AddRequest{
		UserID:    userID,
		AssetType: req.AssetType,
		AssetID:   req.AssetID,
		Price:     req.Price,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewProductResponse(product))
}

// Remove 从购物车移除
// @Summary      移除购物车商品
// @Tags         购物车
// @Param        id        path int true "用户ID"
// @Param        productId path int true "商品行ID"
// @Success      204
// @Failure      404 {object} response.Response "商品行不在购物车中"
// @Router       /api/v1/users/{id}/cart/items/{productId} [delete]
func (h *CartHandler) Remove(c *gin.Context) {
	userID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	productID, err := pathID(c, "productId")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.cart.Remove(c.Request.Context(), userID, productID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Checkout 结算：购物车中的商品行转移到新的待支付订单
// @Summary      结算
// @Tags         购物车
// @Produce      json
// @Param        id path int true "用户ID"
// @Success      201 {object} response.Response{data=dto.OrderResponse}
// @Failure      409 {object} response.Response "购物车为空"
// @Failure      409 {object} response.Response "购物车在结算过程中被修改"
// @Router       /api/v1/users/{id}/cart/checkout [post]
func (h *CartHandler) Checkout(c *gin.Context) {
	userID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	o, err := h.checkout.Execute(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewOrderResponse(o))
}
