package config

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"alfredoptarigan/cv-screener/internal/models"
)

func InitDatabase(cfg *Config, log *zap.Logger) (*gorm.DB, error) {
	dsn := cfg.GetDatabaseDSN()

	logLevel := logger.Silent
	if cfg.Server.Env == "development" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("database connected", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.DBName))

	// Auto migrate
	if err := db.AutoMigrate(
		&models.Screening{},
		&models.CandidateRow{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info("database migration completed")

	return db, nil
}
