package database

import (
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/nsxzhou1114/movie-review-api/internal/config"
	"github.com/nsxzhou1114/movie-review-api/internal/logger"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var (
	db    *gorm.DB
	dbOne sync.Once
)

// gormLogLevel 将配置中的日志级别映射为gorm日志级别
func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "info":
		return gormlogger.Info
	case "warn":
		return gormlogger.Warn
	default:
		return gormlogger.Error
	}
}

// InitMySQL 初始化MySQL数据库连接，连接失败时按固定间隔重试
func InitMySQL(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true, // 使用单数表名
		},
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
	}

	var conn *gorm.DB
	err := retry.Do(
		func() error {
			var err error
			conn, err = gorm.Open(mysql.Open(cfg.DSN()), gormConfig)
			if err != nil {
				return fmt.Errorf("连接MySQL数据库失败: %w", err)
			}
			sqlDB, err := conn.DB()
			if err != nil {
				return fmt.Errorf("获取数据库连接池失败: %w", err)
			}
			if err := sqlDB.Ping(); err != nil {
				return fmt.Errorf("测试数据库连接失败: %w", err)
			}
			return nil
		},
		retry.Attempts(5),
		retry.Delay(time.Second),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("重试连接MySQL",
				zap.Uint("attempt", n+1),
				zap.String("error", err.Error()))
		}),
	)
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("获取数据库连接池失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	logger.Info("MySQL数据库连接成功", zap.String("host", cfg.Host), zap.String("database", cfg.Database))
	return conn, nil
}

// GetDB 获取数据库实例
func GetDB() *gorm.DB {
	var err error
	dbOne.Do(func() {
		db, err = InitMySQL(&config.GetConfig().MySQL)
		if err != nil {
			panic(fmt.Sprintf("MySQL数据库初始化失败: %v", err))
		}
	})
	return db
}
