package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"clarita-backend/internal/config"
	logger "clarita-backend/pkg/logging"
)

var gdb *gorm.DB

// InitDBFromConfig opens the postgres connection described by the XML
// config and applies the pool settings.
func InitDBFromConfig(cfg *config.APIConfig) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.Username,
		cfg.DB.Password.Value,
		cfg.DB.Names.CLARITA,
		cfg.DB.SSLMode,
		cfg.Context.TimeZone,
	)

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		logger.Fatal("failed to connect to database: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		logger.Fatal("failed to access underlying sql.DB: %v", err)
	}
	if cfg.DB.Pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.DB.Pool.MaxOpenConns)
	}
	if cfg.DB.Pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.DB.Pool.MaxIdleConns)
	}
	if cfg.DB.Pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.DB.Pool.ConnMaxLifetime) * time.Second)
	}

	gdb = conn
	logger.Info("connected to database %s@%s:%d", cfg.DB.Names.CLARITA, cfg.DB.Host, cfg.DB.Port)
}

// GetDB returns the shared gorm handle.
func GetDB() *gorm.DB {
	return gdb
}

// SetDB swaps the shared handle. Used by tests to point the repositories
// at an in-memory database.
func SetDB(conn *gorm.DB) {
	gdb = conn
}
