package db

import (
	"fmt"

	"servercv/dashboard/internal/logging"
	gormModels "servercv/dashboard/internal/models/gorm"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func InitPostgresORM(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := db.AutoMigrate(gormModels.AllModels()...); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	logging.Info("Connected to Postgres via GORM")
	return db, nil
}
