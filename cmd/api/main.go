// @title           MediaStore API
// @version         1.0
// @description     数字音乐商店：目录、购物车、订单与下载权益
// @host            localhost:8080
// @BasePath        /
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	_ "github.com/xiebiao/mediastore/docs"
	"github.com/xiebiao/mediastore/internal/app"
	"github.com/xiebiao/mediastore/internal/domain/user"
	"github.com/xiebiao/mediastore/internal/infrastructure/config"
	"github.com/xiebiao/mediastore/internal/infrastructure/persistence/migrations"
	"github.com/xiebiao/mediastore/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/mediastore/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/mediastore/pkg/logger"
	"github.com/xiebiao/mediastore/pkg/mq"
	"github.com/xiebiao/mediastore/pkg/tracing"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "mediastore",
		Short: "MediaStore API服务",
		Long:  `数字音乐商店API服务，默认启动HTTP服务，migrate子命令管理数据库迁移。`,
		RunE:  runServe,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径（默认 ./configs/config.yaml）")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "启动HTTP服务",
			RunE:  runServe,
		},
		newMigrateCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap 加载配置并创建日志器
func bootstrap() (*config.Config, logger.Interface, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	return cfg, log, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, cfg.Tracing.SampleRatio)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.Warnw("关闭Tracer失败", "error", err)
			}
		}()
		log.Infow("链路追踪已启用", "endpoint", cfg.Tracing.Endpoint)
	}

	db, err := mysql.NewDB(cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	deps := app.Deps{
		DB:     db,
		Hasher: user.NewPasswordHasher(cfg.Server.BcryptCost),
		Log:    log,
	}

	if cfg.Redis.Enabled {
		client, err := redis.NewClient(cfg.Redis, log)
		if err != nil {
			return err
		}
		defer client.Close()
		deps.Cache = redis.NewManifestCache(client, cfg.Redis.ManifestTTL)
	}

	if cfg.Events.Enabled {
		pub, err := mq.NewPublisher(cfg.Events.URL, cfg.Events.Exchange, cfg.Events.ExchangeType, log)
		if err != nil {
			return err
		}
		defer pub.Close()
		deps.Publisher = pub
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      app.NewEngine(app.RouterOptions(cfg), deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("HTTP服务启动", "addr", srv.Addr, "mode", cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("启动服务失败: %w", err)
	case <-ctx.Done():
	}

	log.Infow("正在关闭服务...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("服务强制关闭", "error", err)
		return err
	}
	log.Infow("服务已退出")
	return nil
}

func newMigrateCommand() *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "数据库迁移",
		Long:  `执行嵌入的goose迁移脚本（仅mysql），sqlite请使用database.auto_migrate。`,
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "回滚迁移",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *migrations.Migrator) error { return m.Down(steps) })
		},
	}
	down.Flags().IntVarP(&steps, "steps", "n", 1, "回滚的版本数")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "执行全部未执行的迁移",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator((*migrations.Migrator).Up)
			},
		},
		down,
		&cobra.Command{
			Use:   "status",
			Short: "查看迁移状态",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator((*migrations.Migrator).Status)
			},
		},
	)
	return cmd
}

func withMigrator(fn func(m *migrations.Migrator) error) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	// 迁移命令不走自动迁移
	cfg.Database.AutoMigrate = false

	db, err := mysql.NewDB(cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	m, err := migrations.NewMigrator(db, cfg.Database.Driver, log)
	if err != nil {
		return err
	}
	return fn(m)
}
