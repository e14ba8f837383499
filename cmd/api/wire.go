//go:build wireinject
// +build wireinject

// Wire依赖注入配置
// 与main.go中的手动组装是同一条依赖链：
// config → gorm.DB → app.Repositories → app.Deps → router.Handlers → *gin.Engine
// 生成：wire gen ./cmd/api

package main

import (
	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/xiebiao/mediastore/internal/app"
	"github.com/xiebiao/mediastore/internal/domain/entitlement"
	"github.com/xiebiao/mediastore/internal/domain/user"
	"github.com/xiebiao/mediastore/internal/infrastructure/config"
	"github.com/xiebiao/mediastore/internal/infrastructure/events"
	"github.com/xiebiao/mediastore/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/mediastore/internal/interface/http/router"
	"github.com/xiebiao/mediastore/pkg/logger"
)

// infrastructureSet 数据库与密码哈希
var infrastructureSet = wire.NewSet(
	provideDB,
	provideHasher,
)

// appSet 仓储、用例与处理器
var appSet = wire.NewSet(
	app.NewRepositories,
	wire.Struct(new(app.Deps), "*"),
	app.NewHandlers,
)

// httpSet gin引擎
var httpSet = wire.NewSet(
	app.RouterOptions,
	router.New,
)

func provideDB(cfg *config.Config, log logger.Interface) (*gorm.DB, error) {
	return mysql.NewDB(cfg.Database, log)
}

func provideHasher(cfg *config.Config) user.PasswordHasher {
	return user.NewPasswordHasher(cfg.Server.BcryptCost)
}

// InitializeApp 缓存与事件发布由调用方按配置决定是否传入
func InitializeApp(cfg *config.Config, log logger.Interface, cache entitlement.Cache, pub events.Publisher) (*gin.Engine, error) {
	wire.Build(
		infrastructureSet,
		appSet,
		httpSet,
	)
	return nil, nil
}
