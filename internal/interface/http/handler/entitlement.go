package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xiebiao/mediastore/internal/application/entitlement"
	"github.com/xiebiao/mediastore/internal/interface/http/dto"
	"github.com/xiebiao/mediastore/pkg/response"
)

// EntitlementHandler 下载清单
type EntitlementHandler struct {
	manifest *entitlement.ManifestUseCase
}

func NewEntitlementHandler(manifest *entitlement.ManifestUseCase) *EntitlementHandler {
	return &EntitlementHandler{manifest: manifest}
}

// UserManifest 用户已支付订单对应的全部数字资产，去重
// @Summary      用户下载清单
// @Tags         权益
// @Produce      json
// @Param        id path int true "用户ID"
// @Success      200 {object} response.Response{data=dto.ManifestResponse}
// @Failure      404 {object} response.Response "用户不存在"
// @Router       /api/v1/users/{id}/manifest [get]
func (h *EntitlementHandler) UserManifest(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	m, err := h.manifest.ForUser(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewManifestResponse(m))
}

// OrderManifest 单个订单的数字资产，未支付订单为空
// @Summary      订单下载清单
// @Tags         权益
// @Produce      json
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=dto.ManifestResponse}
// @Failure      404 {object} response.Response "订单不存在"
// @Router       /api/v1/orders/{id}/manifest [get]
func (h *EntitlementHandler) OrderManifest(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	m, err := h.manifest.ForOrder(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewManifestResponse(m))
}
