package ioc

import (
	"os"
	"path/filepath"

	"github.com/KNICEX/spot-trader/internal/repo"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

func InitDB() *gorm.DB {
	type Config struct {
		DSN string `mapstructure:"dsn"`
	}
	cfg := Config{DSN: "./data/trader.db"}
	if err := viper.UnmarshalKey("db", &cfg); err != nil {
		panic(err)
	}
	if dir := filepath.Dir(cfg.DSN); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			panic(err)
		}
	}

	db, err := repo.OpenSQLite(cfg.DSN)
	if err != nil {
		panic(err)
	}
	if err = repo.InitTables(db); err != nil {
		panic(err)
	}
	return db
}
