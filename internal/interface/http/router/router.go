// Package router 组装gin引擎：中间件、运维路由与 /api/v1 业务路由
package router

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/xiebiao/mediastore/internal/domain/asset"
	"github.com/xiebiao/mediastore/internal/domain/repository"
	"github.com/xiebiao/mediastore/internal/interface/http/handler"
	"github.com/xiebiao/mediastore/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/mediastore/pkg/errors"
	"github.com/xiebiao/mediastore/pkg/logger"
	"github.com/xiebiao/mediastore/pkg/metrics"
	"github.com/xiebiao/mediastore/pkg/response"
)

// Registrar 通用资源处理器（handler.ResourceHandler的任意实例）
type Registrar interface {
	Register(group *gin.RouterGroup)
}

// Resource 挂载在 /api/v1/{Path} 下的资源
type Resource struct {
	Path    string
	Kind    repository.Kind
	Handler Registrar
}

// Handlers 路由需要的全部处理器
type Handlers struct {
	Resources   []Resource
	Relations   *handler.RelationHandler
	Catalog     *handler.CatalogHandler
	Cart        *handler.CartHandler
	Orders      *handler.OrderHandler
	Entitlement *handler.EntitlementHandler

	// Health 返回非nil时 /health 响应503
	Health func(ctx context.Context) error
}

// Options 引擎选项
type Options struct {
	Mode        string // debug | release | test
	RateLimit   float64
	RateBurst   int
	Metrics     bool
	MetricsPath string
	Swagger     bool
}

// New 创建gin引擎并注册路由
func New(opts Options, h *Handlers, log logger.Interface) *gin.Engine {
	switch opts.Mode {
	case gin.ReleaseMode, gin.TestMode:
		gin.SetMode(opts.Mode)
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Recovery(log), middleware.Logger(log))
	if opts.Metrics {
		metrics.InitMetrics()
		r.Use(middleware.Metrics())
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(promhttp.Handler()))
	}
	if opts.RateLimit > 0 {
		r.Use(middleware.NewRateLimiter(opts.RateLimit, opts.RateBurst).Handler())
	}

	r.GET("/health", health(h.Health))
	if opts.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	for _, res := range h.Resources {
		group := v1.Group("/" + res.Path)
		res.Handler.Register(group)
		group.GET("/:id/relations/:name", h.Relations.For(res.Kind))
	}

	albums := v1.Group("/albums")
	{
		albums.PUT("/:id/genres/:genreId", h.Catalog.AttachGenre)
		albums.DELETE("/:id/genres/:genreId", h.Catalog.DetachGenre)
		albums.GET("/:id/copies-sold", h.Catalog.CopiesSold(asset.TypeAlbum))
	}
	v1.GET("/songs/:id/copies-sold", h.Catalog.CopiesSold(asset.TypeSong))

	users := v1.Group("/users")
	{
		users.GET("/:id/cart", h.Cart.Get)
		users.POST("/:id/cart/items", h.Cart.Add)
		users.DELETE("/:id/cart/items/:productId", h.Cart.Remove)
		users.POST("/:id/cart/checkout", h.Cart.Checkout)
		users.GET("/:id/orders", h.Orders.ListByUser)
		users.GET("/:id/manifest", h.Entitlement.UserManifest)
	}

	orders := v1.Group("/orders")
	{
		orders.POST("/:id/paid", h.Orders.MarkPaid)
		orders.POST("/:id/cancel", h.Orders.Cancel)
		orders.GET("/:id/manifest", h.Entitlement.OrderManifest)
	}
	v1.GET("/order-numbers/:orderNo", h.Orders.ByOrderNo)

	return r
}

// health 健康检查
// @Summary  健康检查
// @Tags     运维
// @Produce  json
// @Success  200 {object} response.Response
// @Failure  503 {object} response.Response
// @Router   /health [get]
func health(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			if err := check(c.Request.Context()); err != nil {
				response.Error(c, apperrors.Newf(apperrors.ErrCodeServiceUnavailable, "依赖不可用: %v", err))
				return
			}
		}
		response.Success(c, gin.H{"status": "healthy"})
	}
}
