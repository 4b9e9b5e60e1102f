package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/bizdocs/backend/internal/domain/company"
	"github.com/bizdocs/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSettingsRepository implements SettingsRepository using GORM
type GormSettingsRepository struct {
	db *gorm.DB
}

// NewGormSettingsRepository creates a new GormSettingsRepository
func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

// Get returns the stored settings or the defaults when none were saved
func (r *GormSettingsRepository) Get(ctx context.Context) (*company.Settings, error) {
	var model models.CompanySettingsModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", models.CompanySettingsID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return company.DefaultSettings(), nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save writes the single settings row
func (r *GormSettingsRepository) Save(ctx context.Context, settings *company.Settings) error {
	settings.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(models.CompanySettingsModelFromDomain(settings)).Error
}

// Ensure GormSettingsRepository implements SettingsRepository
var _ company.SettingsRepository = (*GormSettingsRepository)(nil)
