package repo

import (
	"errors"

	"github.com/KNICEX/spot-trader/internal/entity"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	ErrTraderNotFound = errors.New("trader not found")
	ErrDuplicateId    = errors.New("duplicate trader id")
	ErrTradeNotFound  = errors.New("trade not found")
)

// OpenSQLite 打开 sqlite 数据库, 单连接保证写入串行
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(&entity.Trader{}, &entity.Trade{}, &entity.Decision{})
}
