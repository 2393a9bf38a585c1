package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-storefront/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned by the stores when a lookup matches nothing.
var ErrNotFound = errors.New("record not found")

// Connect opens MySQL, retrying while the database container starts,
// and syncs the schema.
func Connect(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("database: empty DSN")
	}

	var (
		db  *gorm.DB
		err error
	)
	for i := 0; i < 5; i++ {
		db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Info),
			TranslateError: true,
		})
		if err == nil {
			break
		}
		zap.L().Warn("failed to connect to database, retrying in 2 seconds",
			zap.Int("attempt", i+1), zap.Error(err))
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect after 5 attempts: %w", err)
	}
	zap.L().Info("connected to MySQL")

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table the shop uses.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Discount{},
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Health checks the connection pool behind a *gorm.DB.
type Health struct {
	db *gorm.DB
}

func NewHealth(db *gorm.DB) Health {
	return Health{db: db}
}

func (h Health) Ping(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
