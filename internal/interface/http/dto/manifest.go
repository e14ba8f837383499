package dto

import (
	"github.com/xiebiao/mediastore/internal/domain/entitlement"
)

// ManifestResponse 下载清单
type ManifestResponse struct {
	UserID     uint                    `json:"user_id" example:"1"`
	OrderID    uint                    `json:"order_id,omitempty"`
	Assets     []*DigitalAssetResponse `json:"assets"`
	Warnings   []WarningResponse       `json:"warnings,omitempty"`
	ComputedAt string                  `json:"computed_at"`
}

// WarningResponse 被跳过的订单行
type WarningResponse struct {
	OrderID   uint   `json:"order_id"`
	ProductID uint   `json:"product_id"`
	AssetType string `json:"asset_type"`
	AssetID   uint   `json:"asset_id"`
	Reason    string `json:"reason" example:"target_not_sellable"`
}

func NewManifestResponse(m *entitlement.Manifest) *ManifestResponse {
	resp := &ManifestResponse{
		UserID:     m.UserID,
		OrderID:    m.OrderID,
		Assets:     PresentAll(m.Assets, NewDigitalAssetResponse),
		ComputedAt: FormatTime(m.ComputedAt),
	}
	for _, w := range m.Warnings {
		resp.Warnings = append(resp.Warnings, WarningResponse{
			OrderID:   w.OrderID,
			ProductID: w.ProductID,
			AssetType: string(w.Target.Type),
			AssetID:   w.Target.ID,
			Reason:    string(w.Reason),
		})
	}
	return resp
}
