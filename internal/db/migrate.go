package db

import (
	"fmt"

	"github.com/zulandar/colloquy/internal/models"
	"gorm.io/gorm"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Persona{},
		&models.Provider{},
		&models.Chat{},
		&models.ChatParticipant{},
		&models.Message{},
		&models.RateWindow{},
		&models.DebateSession{},
		&models.Feedback{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
