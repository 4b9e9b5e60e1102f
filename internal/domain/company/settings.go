package company

import (
	"context"
	"strings"
	"time"

	"github.com/bizdocs/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Settings is the single company profile printed on documents
type Settings struct {
	Name           string
	Address        string
	PostalCode     string
	City           string
	Email          string
	Phone          string
	SIRET          string
	VATNumber      string
	IBAN           string
	PaymentTerms   string
	Footer         string
	DefaultVATRate decimal.Decimal
	UpdatedAt      time.Time
}

// DefaultSettings is used until the company profile is filled in
func DefaultSettings() *Settings {
	return &Settings{
		Name:           "Ma Société",
		PaymentTerms:   "Paiement à 30 jours",
		DefaultVATRate: decimal.NewFromInt(20),
	}
}

// Validate checks the settings before they are stored
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return shared.NewValidationError("company name is required")
	}
	if s.DefaultVATRate.IsNegative() || s.DefaultVATRate.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewValidationError("default VAT rate must be between 0 and 100")
	}
	return nil
}

// VATRateOrDefault returns the default VAT rate, falling back to 20% without settings.
func (s *Settings) VATRateOrDefault() decimal.Decimal {
	if s == nil {
		return decimal.NewFromInt(20)
	}
	return s.DefaultVATRate
}

// SettingsRepository loads and stores the company settings
type SettingsRepository interface {
	// Get returns the stored settings or DefaultSettings when none exist
	Get(ctx context.Context) (*Settings, error)
	Save(ctx context.Context, settings *Settings) error
}
