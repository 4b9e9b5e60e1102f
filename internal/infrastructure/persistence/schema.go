package persistence

import (
	"github.com/bizdocs/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// AllModels lists every persisted model in dependency order
func AllModels() []any {
	return []any{
		&models.CompanySettingsModel{},
		&models.ClientModel{},
		&models.ContactModel{},
		&models.SupplierModel{},
		&models.DocumentModel{},
		&models.LineModel{},
		&models.DocumentCCModel{},
	}
}

// AutoMigrate creates or updates tables for every model
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
