// Package dto HTTP层的请求与响应结构
//
// 领域实体不直接序列化：presenter把实体转换为 {id, ...字段, 嵌套关联} 的JSON结构，
// 时间统一为 "2006-01-02 15:04:05"，价格同时给出分和元。
package dto

import (
	"fmt"
	"time"

	"github.com/xiebiao/mediastore/internal/domain/asset"
	"github.com/xiebiao/mediastore/internal/domain/catalog"
	"github.com/xiebiao/mediastore/internal/domain/order"
	"github.com/xiebiao/mediastore/internal/domain/user"
)

const timeLayout = "2006-01-02 15:04:05"

// FormatPriceYuan 格式化价格(分→元)
func FormatPriceYuan(fen int64) string {
	return fmt.Sprintf("%.2f", float64(fen)/100.0)
}

// FormatTime 格式化时间，零值返回空串
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatTime(*t)
	return &s
}

// PageResponse 分页响应
type PageResponse[T any] struct {
	List       []T   `json:"list"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPage 分页结构，pageSize<=0时不计算总页数
func NewPage[T any](list []T, total int64, page, pageSize int) *PageResponse[T] {
	if list == nil {
		list = []T{}
	}
	p := &PageResponse[T]{List: list, Total: total, Page: page, PageSize: pageSize}
	if pageSize > 0 {
		p.TotalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return p
}

// PresentAll 批量转换
func PresentAll[T any, R any](items []*T, fn func(*T) R) []R {
	out := make([]R, len(items))
	for i, item := range items {
		out[i] = fn(item)
	}
	return out
}

// Present 按实体类型选择presenter，用于关联解析的动态结果
func Present(v any) any {
	switch e := v.(type) {
	case *catalog.Artist:
		return NewArtistResponse(e)
	case *catalog.Album:
		return NewAlbumResponse(e)
	case *catalog.Genre:
		return NewGenreResponse(e)
	case *catalog.Song:
		return NewSongResponse(e)
	case *catalog.FlacFile:
		return NewFlacFileResponse(e)
	case *catalog.Sku:
		return NewSkuResponse(e)
	case *user.User:
		return NewUserResponse(e)
	case *user.Account:
		return NewAccountResponse(e)
	case *asset.DigitalAsset:
		return NewDigitalAssetResponse(e)
	case *order.Order:
		return NewOrderResponse(e)
	case *order.Product:
		return NewProductResponse(e)
	case *order.Cart:
		return NewCartResponse(e)
	default:
		return v
	}
}
