package database

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dewei/SentimentRadar/pkg/config"
	"github.com/dewei/SentimentRadar/pkg/model"
)

// DB PostgreSQL 数据库连接
type DB struct {
	db *gorm.DB
}

// Open 创建数据库连接并迁移表结构
func Open(cfg *config.Config) (*DB, error) {
	dbCfg := cfg.Database.Postgres

	// 构建连接字符串
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=Asia/Shanghai",
		dbCfg.Host, dbCfg.Port, dbCfg.User, dbCfg.Password, dbCfg.DBName, dbCfg.SSLMode,
	)

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 设置连接池参数
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("获取数据库连接池失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(dbCfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(dbCfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(dbCfg.ConnMaxLifetime)

	// 测试连接
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("测试数据库连接失败: %w", err)
	}

	d := New(gdb)
	if err := d.AutoMigrate(); err != nil {
		return nil, err
	}
	return d, nil
}

// New 包装已有的 gorm 连接
func New(gdb *gorm.DB) *DB {
	return &DB{db: gdb}
}

// AutoMigrate 迁移全部表结构
func (d *DB) AutoMigrate() error {
	err := d.db.AutoMigrate(
		&model.MarketSnapshot{},
		&model.LimitStock{},
		&model.YesterdayLimitPerformance{},
		&model.HotConcept{},
		&model.EmotionStageRecord{},
		&model.PremiumScore{},
		&model.BacktestRecord{},
	)
	if err != nil {
		return fmt.Errorf("迁移表结构失败: %w", err)
	}
	return nil
}

// Ping 检查连接
func (d *DB) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭数据库连接
func (d *DB) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// paginate 分页，pageSize<=0 时不分页
func paginate(page, pageSize int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if pageSize <= 0 {
			return db
		}
		if page < 1 {
			page = 1
		}
		return db.Offset((page - 1) * pageSize).Limit(pageSize)
	}
}
