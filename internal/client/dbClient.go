package client

import (
	"fmt"
	"lounge-portal/internal/config"
	"lounge-portal/internal/model"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const activeCartIndex = "idx_carts_active_user"

func InitDBClient(cfg config.Database) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.URL)
	case "mysql":
		dialector = mysql.Open(cfg.URL)
	case "sqlite":
		dialector = sqlite.Open(cfg.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Connection pool (important for webhooks)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// AutoMigrate creates or alters every table. The one-active-cart index is
// created separately by EnsureActiveCartIndex once duplicates are merged.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.MenuItem{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.RoomBooking{},
		&model.EventRegistration{},
		&model.PartyRequest{},
		&model.SavedCard{},
		&model.Notification{},
		&model.ProcessedPayment{},
		&model.ChatRoom{},
		&model.ChatMessage{},
	)
}

func EnsureActiveCartIndex(db *gorm.DB) error {
	if db.Migrator().HasIndex(&model.Cart{}, activeCartIndex) {
		return nil
	}
	return db.Exec("CREATE UNIQUE INDEX " + activeCartIndex + " ON carts (active_user_id)").Error
}
