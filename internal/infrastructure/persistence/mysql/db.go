package mysql

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/xiebiao/compactstock/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 设计说明：
// 1. 表都属于商城（PrestaShop），这里不做AutoMigrate
// 2. 默认MySQL；也可以指向Postgres镜像库（驱动由database.driver选择）
// 3. 商城表前缀通过NamingStrategy统一加上，模型本身不写TableName
// 4. GORM的SQL日志输出到zap
func NewDB(cfg *config.Config, zl *zap.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg.Database)
	if err != nil {
		return nil, err
	}

	db, err := Open(dialector, cfg.Database.TablePrefix, newGormLogger(zl, cfg.Database.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	// 防止数据库主动断开空闲连接
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	zl.Info("数据库连接成功",
		zap.String("driver", cfg.Database.Driver),
		zap.String("host", cfg.Database.Host),
		zap.String("table_prefix", cfg.Database.TablePrefix),
	)
	return db, nil
}

// Open 用给定方言打开连接（测试时传入sqlmock）
func Open(dialector gorm.Dialector, tablePrefix string, gl logger.Interface) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		Logger: gl,
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   tablePrefix,
			SingularTable: true, // 商城表名是单数：order_detail、stock_available
		},
		SkipDefaultTransaction: true, // 只有一条写语句，显式事务由TxManager控制
	})
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "mysql", "":
		return mysql.Open(cfg.DSN()), nil
	case "postgres":
		return postgres.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Driver)
	}
}

// newGormLogger 把GORM日志接到zap上
func newGormLogger(zl *zap.Logger, level string) logger.Interface {
	return logger.New(
		zap.NewStdLog(zl.Named("gorm")),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  parseGormLevel(level),
			IgnoreRecordNotFoundError: true,
		},
	)
}

func parseGormLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
