package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"teamreports/models"
)

// ConnectDB opens the configured database, tunes the pool and migrates the schema.
// The handle is returned to the caller and injected from there; nothing keeps it globally.
func ConnectDB() (*gorm.DB, error) {
	logrus.Info("Attempting to connect to database...")

	var dialector gorm.Dialector
	switch AppConfig.DBDriver {
	case "sqlite":
		logrus.WithField("path", AppConfig.SQLitePath).Info("Using SQLite database")
		dialector = sqlite.Open(AppConfig.SQLitePath + "?_pragma=foreign_keys(1)")
	default:
		dsn := fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			AppConfig.DBHost,
			AppConfig.DBPort,
			AppConfig.DBUser,
			AppConfig.DBPassword,
			AppConfig.DBName,
			AppConfig.DBSSLMode,
		)
		logrus.WithField("dsn", maskPassword(dsn)).Info("Using PostgreSQL database")
		dialector = postgres.Open(dsn)
	}

	gormLogger := logger.Default.LogMode(logger.Warn)
	if AppConfig.Environment == "production" {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger, TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get DB instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(AppConfig.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(AppConfig.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	logrus.Info("Successfully connected to the database")

	logrus.Info("Starting database migration...")
	if err := models.Migrate(db); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	logrus.Info("Database migration completed")
	return db, nil
}

func maskPassword(dsn string) string {
	const passwordMarker = "password="
	startIdx := strings.Index(dsn, passwordMarker)
	if startIdx == -1 {
		return dsn
	}

	startIdx += len(passwordMarker)
	endIdx := strings.IndexAny(dsn[startIdx:], " ")
	if endIdx == -1 {
		return dsn[:startIdx] + "*****"
	}
	return dsn[:startIdx] + "*****" + dsn[startIdx+endIdx:]
}
