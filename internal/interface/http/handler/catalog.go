package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xiebiao/mediastore/internal/application/catalog"
	"github.com/xiebiao/mediastore/internal/domain/asset"
	"github.com/xiebiao/mediastore/internal/interface/http/dto"
	"github.com/xiebiao/mediastore/pkg/response"
)

// CatalogHandler 专辑流派关联与销量
type CatalogHandler struct {
	genres *catalog.GenreUseCase
	sales  *catalog.SalesUseCase
}

func NewCatalogHandler(genres *catalog.GenreUseCase, sales *catalog.SalesUseCase) *CatalogHandler {
	return &CatalogHandler{genres: genres, sales: sales}
}

// AttachGenre 给专辑添加流派，重复添加不报错
// @Summary      专辑添加流派
// @Tags         目录
// @Param        id      path int true "专辑ID"
// @Param        genreId path int true "流派ID"
// @Success      204
// @Failure      404 {object} response.Response "专辑或流派不存在"
// @Router       /api/v1/albums/{id}/genres/{genreId} [put]
func (h *CatalogHandler) AttachGenre(c *gin.Context) {
	albumID, genreID, err := albumGenreIDs(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.genres.Attach(c.Request.Context(), albumID, genreID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DetachGenre 移除专辑的流派
// @Summary      专辑移除流派
// @Tags         目录
// @Param        id      path int true "专辑ID"
// @Param        genreId path int true "流派ID"
// @Success      204
// @Router       /api/v1/albums/{id}/genres/{genreId} [delete]
func (h *CatalogHandler) DetachGenre(c *gin.Context) {
	albumID, genreID, err := albumGenreIDs(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.genres.Detach(c.Request.Context(), albumID, genreID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CopiesSold 返回目标已售出的数字资产，每次售出一条
// @Summary      已售数字资产
// @Tags         目录
// @Produce      json
// @Param        id path int true "专辑或单曲ID"
// @Success      200 {object} response.Response{data=[]dto.DigitalAssetResponse}
// @Failure      404 {object} response.Response "目标不存在"
// @Router       /api/v1/albums/{id}/copies-sold [get]
// @Router       /api/v1/songs/{id}/copies-sold [get]
func (h *CatalogHandler) CopiesSold(t asset.Type) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			response.Error(c, err)
			return
		}
		sold, err := h.sales.CopiesSold(c.Request.Context(), asset.Target{Type: t, ID: id})
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, dto.PresentAll(sold, dto.NewDigitalAssetResponse))
	}
}

func albumGenreIDs(c *gin.Context) (uint, uint, error) {
	albumID, err := pathID(c, "id")
	if err != nil {
		return 0, 0, err
	}
	genreID, err := pathID(c, "genreId")
	if err != nil {
		return 0, 0, err
	}
	return albumID, genreID, nil
}
