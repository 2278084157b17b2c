// internal/database/connection.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/NEBULA-33/nebula-1/internal/config"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := newGormConfig(cfg.LogLevel)

	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverSQLite:
		dialector = sqlite.Open(cfg.DSN())
	default:
		dialector = postgres.Open(cfg.DSN())
	}

	// Connect to database
	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool. SQLite allows a single writer.
	if cfg.Driver == DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)
	}

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithField("driver", cfg.Driver).Info("Database connection established")
	return db, nil
}

// OpenInMemory opens a private in-memory SQLite database. Each call gets its
// own database, which lives until the returned handle is closed.
func OpenInMemory() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), newGormConfig("silent"))
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func newGormConfig(level string) *gorm.Config {
	logLevel := logger.Warn
	switch level {
	case "silent":
		logLevel = logger.Silent
	case "error":
		logLevel = logger.Error
	case "info":
		logLevel = logger.Info
	}

	return &gorm.Config{
		Logger:                                   logger.Default.LogMode(logLevel),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed")
	}
}

// Driver names the dialect behind db, "postgres" or "sqlite".
func Driver(db *gorm.DB) string {
	return db.Dialector.Name()
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations")

	if Driver(db) == DriverPostgres {
		// Trigram search on product names; optional.
		if err := db.Exec("CREATE EXTENSION IF NOT EXISTS pg_trgm").Error; err != nil {
			logrus.WithError(err).Warn("pg_trgm extension unavailable, product search falls back to sequential scan")
		}
	}

	models := make([]interface{}, 0, len(Tables))
	for _, t := range Tables {
		models = append(models, t.Model)
	}
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	createIndexes(db)

	logrus.Info("Database migrations completed")
	return nil
}

func createIndexes(db *gorm.DB) {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_products_shop_name ON products(shop_id, name)",
		"CREATE INDEX IF NOT EXISTS idx_products_shop_barcode ON products(shop_id, barcode)",
		"CREATE INDEX IF NOT EXISTS idx_sales_shop_timestamp ON sales(shop_id, sale_timestamp DESC)",
		"CREATE INDEX IF NOT EXISTS idx_stock_in_history_shop_created ON stock_in_history(shop_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_wastage_history_shop_created ON wastage_history(shop_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_return_history_shop_created ON return_history(shop_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_butchering_history_shop_created ON butchering_history(shop_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_audit_log_shop_created ON audit_log(shop_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_debt_transactions_person_created ON debt_transactions(person_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_purchase_invoice_items_product_created ON purchase_invoice_items(product_id, created_at DESC)",
	}
	if Driver(db) == DriverPostgres {
		indexes = append(indexes,
			"CREATE INDEX IF NOT EXISTS idx_products_name_trgm ON products USING GIN (lower(name) gin_trgm_ops)",
		)
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			// Continue with other indexes instead of failing completely
			logrus.WithError(err).WithField("index", index).Warn("Failed to create index")
		}
	}
}

// WithTransaction runs fn in one database transaction. A returned error or a
// panic rolls everything back.
func WithTransaction(ctx context.Context, db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
