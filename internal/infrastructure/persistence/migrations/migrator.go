// Package migrations 内嵌的goose迁移脚本
//
// 生产环境（MySQL）使用这里的脚本建表；本地sqlite运行与测试使用GORM AutoMigrate。
package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"github.com/xiebiao/mediastore/pkg/logger"
)

//go:embed sql/*.sql
var scripts embed.FS

const scriptsDir = "sql"

// Migrator goose迁移执行器
type Migrator struct {
	db      *gorm.DB
	dialect string
	log     logger.Interface
}

// NewMigrator 创建迁移执行器，driver目前只支持mysql
func NewMigrator(db *gorm.DB, driver string, log logger.Interface) (*Migrator, error) {
	dialect, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	goose.SetBaseFS(scripts)
	goose.SetLogger(gooseLogger{log: log})
	return &Migrator{db: db, dialect: dialect, log: log.Named("migration")}, nil
}

func dialectFor(driver string) (string, error) {
	switch driver {
	case "mysql":
		return "mysql", nil
	default:
		return "", fmt.Errorf("迁移脚本只支持mysql，%s请使用database.auto_migrate", driver)
	}
}

// Up 执行全部未执行的迁移
func (m *Migrator) Up() error {
	sqlDB, err := m.prepare()
	if err != nil {
		return err
	}

	from, err := goose.GetDBVersion(sqlDB)
	if err != nil {
		return fmt.Errorf("获取迁移版本失败: %w", err)
	}

	if err := goose.Up(sqlDB, scriptsDir); err != nil {
		m.log.Errorw("迁移失败", "error", err)
		return fmt.Errorf("执行迁移失败: %w", err)
	}

	to, err := goose.GetDBVersion(sqlDB)
	if err != nil {
		return fmt.Errorf("获取迁移版本失败: %w", err)
	}
	m.log.Infow("迁移完成", "from_version", from, "to_version", to)
	return nil
}

// Down 回滚steps个版本
func (m *Migrator) Down(steps int) error {
	sqlDB, err := m.prepare()
	if err != nil {
		return err
	}
	for i := 0; i < steps; i++ {
		if err := goose.Down(sqlDB, scriptsDir); err != nil {
			return fmt.Errorf("回滚迁移失败: %w", err)
		}
	}
	m.log.Infow("回滚完成", "steps", steps)
	return nil
}

// Status 打印每个脚本的执行状态
func (m *Migrator) Status() error {
	sqlDB, err := m.prepare()
	if err != nil {
		return err
	}
	if err := goose.Status(sqlDB, scriptsDir); err != nil {
		return fmt.Errorf("获取迁移状态失败: %w", err)
	}
	return nil
}

// Version 当前数据库版本
func (m *Migrator) Version() (int64, error) {
	sqlDB, err := m.prepare()
	if err != nil {
		return 0, err
	}
	return goose.GetDBVersion(sqlDB)
}

func (m *Migrator) prepare() (*sql.DB, error) {
	if err := goose.SetDialect(m.dialect); err != nil {
		return nil, fmt.Errorf("设置goose方言失败: %w", err)
	}
	db, err := m.db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	return db, nil
}

// gooseLogger 把goose的输出转到应用日志
type gooseLogger struct {
	log logger.Interface
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.log.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.log.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
