// Package app 组装依赖：仓储 → 用例 → 处理器 → 路由
//
// cmd/api 与端到端测试共用这里的组装逻辑，cmd/api/wire.go 声明同一条依赖链。
package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	appcatalog "github.com/xiebiao/mediastore/internal/application/catalog"
	appentitlement "github.com/xiebiao/mediastore/internal/application/entitlement"
	apporder "github.com/xiebiao/mediastore/internal/application/order"
	"github.com/xiebiao/mediastore/internal/application/resource"
	appuser "github.com/xiebiao/mediastore/internal/application/user"
	"github.com/xiebiao/mediastore/internal/domain/asset"
	"github.com/xiebiao/mediastore/internal/domain/catalog"
	"github.com/xiebiao/mediastore/internal/domain/entitlement"
	"github.com/xiebiao/mediastore/internal/domain/order"
	"github.com/xiebiao/mediastore/internal/domain/relation"
	"github.com/xiebiao/mediastore/internal/domain/repository"
	"github.com/xiebiao/mediastore/internal/domain/user"
	"github.com/xiebiao/mediastore/internal/infrastructure/config"
	"github.com/xiebiao/mediastore/internal/infrastructure/events"
	"github.com/xiebiao/mediastore/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/mediastore/internal/infrastructure/validation"
	"github.com/xiebiao/mediastore/internal/interface/http/dto"
	"github.com/xiebiao/mediastore/internal/interface/http/handler"
	"github.com/xiebiao/mediastore/internal/interface/http/router"
	"github.com/xiebiao/mediastore/pkg/logger"
)

// Deps 外部依赖
// Cache与Publisher为nil时分别关闭清单缓存和事件发布，注意不要传入带类型的nil指针
type Deps struct {
	DB        *gorm.DB
	Cache     entitlement.Cache
	Publisher events.Publisher
	Hasher    user.PasswordHasher
	Log       logger.Interface
}

// Repositories 全部仓储
type Repositories struct {
	Artists   catalog.ArtistRepository
	Albums    catalog.AlbumRepository
	Genres    catalog.GenreRepository
	Songs     catalog.SongRepository
	FlacFiles catalog.FlacFileRepository
	Skus      catalog.SkuRepository
	Assets    asset.DigitalAssetRepository
	Users     user.Repository
	Accounts  user.AccountRepository
	Orders    order.Repository
	Products  order.ProductRepository
	Carts     order.CartRepository

	OrderStore  mysql.OrderStore
	CartStore   order.CartStore
	GenreLinker catalog.GenreLinker
	Accessors   relation.Accessors
	Tx          *mysql.TxManager
	Registry    *asset.Registry
}

// NewRepositories 创建仓储并注册可售目标
// album只要存在即可售；song还需要同时有FLAC文件和SKU
func NewRepositories(db *gorm.DB) *Repositories {
	registry := asset.NewRegistry()
	albums := mysql.NewAlbumRepository(db)
	songs := mysql.NewSongRepository(db)
	asset.RegisterRepository(registry, asset.TypeAlbum, repository.KindAlbum, albums, nil)
	asset.RegisterRepository(registry, asset.TypeSong, repository.KindSong, songs, mysql.NewSongEligibility(db))

	return &Repositories{
		Artists:   mysql.NewArtistRepository(db),
		Albums:    albums,
		Genres:    mysql.NewGenreRepository(db),
		Songs:     songs,
		FlacFiles: mysql.NewFlacFileRepository(db),
		Skus:      mysql.NewSkuRepository(db),
		Assets:    mysql.NewDigitalAssetRepository(db, registry),
		Users:     mysql.NewUserRepository(db),
		Accounts:  mysql.NewAccountRepository(db),
		Orders:    mysql.NewOrderRepository(db),
		Products:  mysql.NewProductRepository(db),
		Carts:     mysql.NewCartRepository(db),

		OrderStore:  mysql.NewOrderStore(db),
		CartStore:   mysql.NewCartStore(db),
		GenreLinker: mysql.NewGenreLinker(db),
		Accessors:   mysql.NewRelationAccessors(db),
		Tx:          mysql.NewTxManager(db),
		Registry:    registry,
	}
}

// NewHandlers 创建用例与处理器
func NewHandlers(d Deps, repos *Repositories) *router.Handlers {
	v := validation.New()
	notifier := events.NewOrderEvents(d.Publisher, d.Log)
	resolver := entitlement.NewResolver(repos.OrderStore, repos.Registry, repos.Accessors, d.Cache, d.Log)

	resources := []router.Resource{
		mount("artists", resource.NewService(repos.Artists, v), dto.NewArtistResponse),
		mount("albums", resource.NewService(repos.Albums, v), dto.NewAlbumResponse),
		mount("genres", resource.NewService(repos.Genres, v), dto.NewGenreResponse),
		mount("songs", resource.NewService(repos.Songs, v), dto.NewSongResponse),
		mount("flac-files", resource.NewService(repos.FlacFiles, v), dto.NewFlacFileResponse),
		mount("skus", resource.NewService(repos.Skus, v), dto.NewSkuResponse),
		mount("digital-assets", resource.NewService(repos.Assets, v), dto.NewDigitalAssetResponse),
		mount("users", appuser.NewService(repos.Users, v, d.Hasher), dto.NewUserResponse),
		mount("accounts", appuser.NewAccountService(repos.Accounts, v), dto.NewAccountResponse),
		mount("orders", resource.NewService(repos.Orders, v), dto.NewOrderResponse),
		mount("products", resource.NewService(repos.Products, v), dto.NewProductResponse),
		mount("carts", resource.NewService(repos.Carts, v), dto.NewCartResponse),
	}

	return &router.Handlers{
		Resources: resources,
		Relations: handler.NewRelationHandler(resource.NewRelationUseCase(relation.NewResolver(repos.Accessors, repos.Registry))),
		Catalog: handler.NewCatalogHandler(
			appcatalog.NewGenreUseCase(repos.GenreLinker),
			appcatalog.NewSalesUseCase(repos.Registry, repos.Accessors),
		),
		Cart: handler.NewCartHandler(
			apporder.NewCartUseCase(repos.CartStore, repos.Registry),
			apporder.NewCheckoutUseCase(repos.Tx, repos.CartStore, repos.OrderStore, notifier, d.Log),
		),
		Orders: handler.NewOrderHandler(
			apporder.NewPaymentUseCase(repos.Orders, resolver, notifier, d.Log),
			apporder.NewQueryUseCase(repos.OrderStore),
		),
		Entitlement: handler.NewEntitlementHandler(appentitlement.NewManifestUseCase(resolver, repos.Users)),
		Health:      pingDB(d.DB),
	}
}

// RouterOptions 从配置提取路由选项
func RouterOptions(cfg *config.Config) router.Options {
	return router.Options{
		Mode:        cfg.Server.Mode,
		RateLimit:   cfg.Server.RateLimit,
		RateBurst:   cfg.Server.RateBurst,
		Metrics:     cfg.Metrics.Enabled,
		MetricsPath: cfg.Metrics.Path,
		Swagger:     cfg.Server.Mode != gin.ReleaseMode,
	}
}

// NewEngine 完整的HTTP引擎
func NewEngine(opts router.Options, d Deps) *gin.Engine {
	return router.New(opts, NewHandlers(d, NewRepositories(d.DB)), d.Log)
}

func mount[T any, R any](path string, svc *resource.Service[T], present func(*T) R) router.Resource {
	return router.Resource{
		Path:    path,
		Kind:    svc.Kind(),
		Handler: handler.NewResourceHandler(svc, present),
	}
}

func pingDB(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
