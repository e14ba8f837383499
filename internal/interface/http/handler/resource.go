package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xiebiao/mediastore/internal/application/resource"
	"github.com/xiebiao/mediastore/internal/interface/http/dto"
	"github.com/xiebiao/mediastore/pkg/response"
)

// ResourceHandler 通用资源处理器：index/show/store/update/destroy
// 请求体原样交给校验层，未知字段被丢弃
type ResourceHandler[T any, R any] struct {
	svc     *resource.Service[T]
	present func(*T) R
}

// NewResourceHandler present把实体转换为响应结构
func NewResourceHandler[T any, R any](svc *resource.Service[T], present func(*T) R) *ResourceHandler[T, R] {
	return &ResourceHandler[T, R]{svc: svc, present: present}
}

// Register 在group上挂载五个路由
func (h *ResourceHandler[T, R]) Register(group *gin.RouterGroup) {
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.POST("", h.Create)
	group.PATCH("/:id", h.Update)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
}

// List 分页列表
// @Summary      资源列表
// @Description  artists/albums/genres/songs/flac-files/skus/digital-assets/orders/products/users/accounts 共用
// @Tags         资源
// @Produce      json
// @Param        resource  path   string  true   "资源名"
// @Param        page      query  int     false  "页码"  default(1)
// @Param        page_size query  int     false  "每页数量"  default(20)
// @Success      200 {object} response.Response
// @Router       /api/v1/{resource} [get]
func (h *ResourceHandler[T, R]) List(c *gin.Context) {
	page, size := pageQuery(c)
	result, err := h.svc.List(c.Request.Context(), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewPage(dto.PresentAll(result.Items, h.present), result.Total, page, size))
}

// Get 查询单条
// @Summary      资源详情
// @Tags         资源
// @Produce      json
// @Param        resource path string true "资源名"
// @Param        id       path int    true "ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response "不存在"
// @Router       /api/v1/{resource}/{id} [get]
func (h *ResourceHandler[T, R]) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	entity, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, h.present(entity))
}

// Create 创建
// @Summary      创建资源
// @Tags         资源
// @Accept       json
// @Produce      json
// @Param        resource path string true "资源名"
// @Param        request  body object true "字段"
// @Success      201 {object} response.Response
// @Failure      404 {object} response.Response "引用的记录不存在"
// @Failure      409 {object} response.Response "唯一约束冲突"
// @Failure      422 {object} response.Response "字段校验失败"
// @Router       /api/v1/{resource} [post]
func (h *ResourceHandler[T, R]) Create(c *gin.Context) {
	raw, err := bindAttributes(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	entity, err := h.svc.Create(c.Request.Context(), raw)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, h.present(entity))
}

// Update 局部更新，只修改请求体中出现的字段
// @Summary      修改资源
// @Tags         资源
// @Accept       json
// @Produce      json
// @Param        resource path string true "资源名"
// @Param        id       path int    true "ID"
// @Param        request  body object true "字段"
// @Success      200 {object} response.Response
// @Failure      409 {object} response.Response "冲突或不可修改"
// @Failure      422 {object} response.Response "字段校验失败"
// @Router       /api/v1/{resource}/{id} [patch]
func (h *ResourceHandler[T, R]) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	raw, err := bindAttributes(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	entity, err := h.svc.Update(c.Request.Context(), id, raw)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, h.present(entity))
}

// Delete 删除
// @Summary      删除资源
// @Tags         资源
// @Param        resource path string true "资源名"
// @Param        id       path int    true "ID"
// @Success      204
// @Failure      404 {object} response.Response "不存在"
// @Failure      409 {object} response.Response "已有销售记录"
// @Router       /api/v1/{resource}/{id} [delete]
func (h *ResourceHandler[T, R]) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
