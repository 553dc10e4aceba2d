package db

import (
	"fmt"
	"os"

	"florist/internal/config"
	"florist/internal/domain/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect(cfg config.Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{}
	if cfg.GoEnv == "prod" {
		gcfg.Logger = logger.Default.LogMode(logger.Error)
	}

	// DATABASE_URL があれば最優先で使う
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return gorm.Open(postgres.Open(dsn), gcfg)
	}

	return gorm.Open(postgres.Open(DSN(cfg)), gcfg)
}

func DSN(cfg config.Config) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDB, cfg.PostgresSSLMode,
	)
}

// テーブル作成・変更
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.InventoryAdjustment{},
		&model.CartItem{},
		&model.CartCoupon{},
		&model.Order{},
		&model.OrderItem{},
		&model.CheckoutSession{},
		&model.Review{},
		&model.AuditLog{},
	)
}
