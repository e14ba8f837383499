package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xiebiao/mediastore/internal/application/resource"
	"github.com/xiebiao/mediastore/internal/domain/repository"
	"github.com/xiebiao/mediastore/internal/interface/http/dto"
	"github.com/xiebiao/mediastore/pkg/response"
)

// RelationHandler 按名字查询关联
type RelationHandler struct {
	uc *resource.RelationUseCase
}

func NewRelationHandler(uc *resource.RelationUseCase) *RelationHandler {
	return &RelationHandler{uc: uc}
}

// RelatedResponse 关联查询结果
type RelatedResponse struct {
	Kind     string `json:"kind" example:"song"`
	Relation string `json:"relation" example:"songs"`
	Data     any    `json:"data"`
}

// For 返回kind实体的关联查询处理函数
// @Summary      查询关联
// @Description  单值关联缺失时返回404，多值关联为空时返回空数组
// @Tags         关联
// @Produce      json
// @Param        resource path string true "资源名"
// @Param        id       path int    true "ID"
// @Param        name     path string true "关联名"
// @Success      200 {object} response.Response{data=RelatedResponse}
// @Failure      404 {object} response.Response "实体或关联不存在"
// @Router       /api/v1/{resource}/{id}/relations/{name} [get]
func (h *RelationHandler) For(kind repository.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			response.Error(c, err)
			return
		}
		related, err := h.uc.Execute(c.Request.Context(), kind, id, c.Param("name"))
		if err != nil {
			response.Error(c, err)
			return
		}

		resp := &RelatedResponse{Kind: string(related.Kind), Relation: string(related.Name)}
		if related.IsMany() {
			items := make([]any, len(related.Many))
			for i, v := range related.Many {
				items[i] = dto.Present(v)
			}
			resp.Data = items
		} else {
			resp.Data = dto.Present(related.One)
		}
		response.Success(c, resp)
	}
}
