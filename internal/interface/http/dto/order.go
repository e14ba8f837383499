package dto

import (
	"github.com/xiebiao/mediastore/internal/domain/asset"
	"github.com/xiebiao/mediastore/internal/domain/order"
)

// AddToCartRequest 加入购物车
// price为0或缺省时按目标的数字资产总价
type AddToCartRequest struct {
	AssetType string `json:"asset_type" binding:"required" example:"album"`
	AssetID   uint   `json:"asset_id" binding:"required,min=1" example:"1"`
	Price     int64  `json:"price" binding:"min=0" example:"0"`
}

type ProductResponse struct {
	ID        uint   `json:"id" example:"1"`
	OrderID   *uint  `json:"order_id"`
	CartID    *uint  `json:"cart_id"`
	AssetType string `json:"asset_type" example:"album"`
	AssetID   uint   `json:"asset_id" example:"1"`
	Price     int64  `json:"price" example:"999"`
	PriceYuan string `json:"price_yuan" example:"9.99"`
	CreatedAt string `json:"created_at"`
}

func NewProductResponse(p *order.Product) *ProductResponse {
	return &ProductResponse{
		ID:        p.ID,
		OrderID:   p.OrderID,
		CartID:    p.CartID,
		AssetType: string(p.Target.Type),
		AssetID:   p.Target.ID,
		Price:     p.Price,
		PriceYuan: FormatPriceYuan(p.Price),
		CreatedAt: FormatTime(p.CreatedAt),
	}
}

func presentProducts(products []order.Product) []*ProductResponse {
	out := make([]*ProductResponse, len(products))
	for i := range products {
		out[i] = NewProductResponse(&products[i])
	}
	return out
}

type OrderResponse struct {
	ID        uint               `json:"id" example:"1"`
	OrderNo   string             `json:"order_no" example:"ORD1760000000123456"`
	UserID    uint               `json:"user_id" example:"1"`
	Status    string             `json:"status" example:"pending"`
	Total     int64              `json:"total" example:"1128"`
	TotalYuan string             `json:"total_yuan" example:"11.28"`
	Products  []*ProductResponse `json:"products"`
	PaidAt    *string            `json:"paid_at"`
	CreatedAt string             `json:"created_at"`
	UpdatedAt string             `json:"updated_at"`
}

func NewOrderResponse(o *order.Order) *OrderResponse {
	return &OrderResponse{
		ID:        o.ID,
		OrderNo:   o.OrderNo,
		UserID:    o.UserID,
		Status:    o.Status.String(),
		Total:     o.Total,
		TotalYuan: FormatPriceYuan(o.Total),
		Products:  presentProducts(o.Products),
		PaidAt:    formatTimePtr(o.PaidAt),
		CreatedAt: FormatTime(o.CreatedAt),
		UpdatedAt: FormatTime(o.UpdatedAt),
	}
}

type CartResponse struct {
	ID        uint               `json:"id" example:"1"`
	UserID    uint               `json:"user_id" example:"1"`
	Products  []*ProductResponse `json:"products"`
	Total     int64              `json:"total" example:"1128"`
	TotalYuan string             `json:"total_yuan" example:"11.28"`
}

func NewCartResponse(c *order.Cart) *CartResponse {
	var total int64
	for _, p := range c.Products {
		total += p.Price
	}
	return &CartResponse{
		ID:        c.ID,
		UserID:    c.UserID,
		Products:  presentProducts(c.Products),
		Total:     total,
		TotalYuan: FormatPriceYuan(total),
	}
}

type DigitalAssetResponse struct {
	ID        uint           `json:"id" example:"1"`
	Key       string         `json:"key" example:"7d1f3c0e-3b9a-4c55-9d1e-0d6f3b2a9c11"`
	AssetType string         `json:"asset_type" example:"album"`
	AssetID   uint           `json:"asset_id" example:"1"`
	Title     string         `json:"title" example:"Greatest Hits (FLAC)"`
	Price     int64          `json:"price" example:"999"`
	PriceYuan string         `json:"price_yuan" example:"9.99"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}

func NewDigitalAssetResponse(a *asset.DigitalAsset) *DigitalAssetResponse {
	return &DigitalAssetResponse{
		ID:        a.ID,
		Key:       a.Key,
		AssetType: string(a.AssetType),
		AssetID:   a.AssetID,
		Title:     a.Title,
		Price:     a.Price,
		PriceYuan: FormatPriceYuan(a.Price),
		Metadata:  a.Metadata,
		CreatedAt: FormatTime(a.CreatedAt),
		UpdatedAt: FormatTime(a.UpdatedAt),
	}
}
