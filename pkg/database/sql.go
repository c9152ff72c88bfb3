package database

import (
	"fmt"
	"time"

	"kb-chatbot-go/pkg/log"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DialectSQLite = "sqlite"
	DialectMySQL  = "mysql"
)

// OpenSQL 按方言打开一个 gorm 连接，用于只读地加载知识库表。
func OpenSQL(dialect, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch dialect {
	case DialectSQLite:
		dialector = sqlite.Open(dsn)
	case DialectMySQL:
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect %s database: %w", dialect, err)
	}

	// 配置连接池，知识库只在启动或显式重载时读取一次
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Infof("%s database connected for knowledge base loading", dialect)
	return db, nil
}

// CloseSQL 关闭 gorm 底层连接。
func CloseSQL(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
