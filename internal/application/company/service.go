package company

import (
	"context"
	"time"

	"github.com/bizdocs/backend/internal/domain/company"
	"github.com/bizdocs/backend/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SettingsRequest replaces the company profile printed on documents
type SettingsRequest struct {
	Name           string           `json:"name" binding:"required,max=200"`
	Address        string           `json:"address"`
	PostalCode     string           `json:"postal_code" binding:"max=20"`
	City           string           `json:"city" binding:"max=100"`
	Email          string           `json:"email" binding:"omitempty,email"`
	Phone          string           `json:"phone" binding:"max=50"`
	SIRET          string           `json:"siret" binding:"max=20"`
	VATNumber      string           `json:"vat_number" binding:"max=20"`
	IBAN           string           `json:"iban" binding:"max=40"`
	PaymentTerms   string           `json:"payment_terms" binding:"max=500"`
	Footer         string           `json:"footer" binding:"max=1000"`
	DefaultVATRate *decimal.Decimal `json:"default_vat_rate"`
}

// SettingsResponse represents the company settings in API responses
type SettingsResponse struct {
	Name           string          `json:"name"`
	Address        string          `json:"address"`
	PostalCode     string          `json:"postal_code"`
	City           string          `json:"city"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone"`
	SIRET          string          `json:"siret"`
	VATNumber      string          `json:"vat_number"`
	IBAN           string          `json:"iban"`
	PaymentTerms   string          `json:"payment_terms"`
	Footer         string          `json:"footer"`
	DefaultVATRate decimal.Decimal `json:"default_vat_rate"`
	UpdatedAt      *time.Time      `json:"updated_at,omitempty"`
}

// ToSettingsResponse converts company settings to a response
func ToSettingsResponse(s *company.Settings) SettingsResponse {
	resp := SettingsResponse{
		Name:           s.Name,
		Address:        s.Address,
		PostalCode:     s.PostalCode,
		City:           s.City,
		Email:          s.Email,
		Phone:          s.Phone,
		SIRET:          s.SIRET,
		VATNumber:      s.VATNumber,
		IBAN:           s.IBAN,
		PaymentTerms:   s.PaymentTerms,
		Footer:         s.Footer,
		DefaultVATRate: s.DefaultVATRate,
	}
	if !s.UpdatedAt.IsZero() {
		updatedAt := s.UpdatedAt
		resp.UpdatedAt = &updatedAt
	}
	return resp
}

// SettingsService reads and replaces the company settings
type SettingsService struct {
	repo   company.SettingsRepository
	logger *zap.Logger
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(repo company.SettingsRepository, log *zap.Logger) *SettingsService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SettingsService{repo: repo, logger: log}
}

// Get returns the stored settings, or the defaults before the first save
func (s *SettingsService) Get(ctx context.Context) (*SettingsResponse, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	resp := ToSettingsResponse(settings)
	return &resp, nil
}

// Update replaces the settings. A missing default VAT rate keeps the current one.
func (s *SettingsService) Update(ctx context.Context, req SettingsRequest) (*SettingsResponse, error) {
	current, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	settings := &company.Settings{
		Name:           req.Name,
		Address:        req.Address,
		PostalCode:     req.PostalCode,
		City:           req.City,
		Email:          req.Email,
		Phone:          req.Phone,
		SIRET:          req.SIRET,
		VATNumber:      req.VATNumber,
		IBAN:           req.IBAN,
		PaymentTerms:   req.PaymentTerms,
		Footer:         req.Footer,
		DefaultVATRate: current.VATRateOrDefault(),
		UpdatedAt:      time.Now(),
	}
	if req.DefaultVATRate != nil {
		settings.DefaultVATRate = *req.DefaultVATRate
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, settings); err != nil {
		return nil, err
	}
	logger.WithLogger(ctx, s.logger).Info("Company settings updated",
		zap.String("name", settings.Name), zap.String("default_vat_rate", settings.DefaultVATRate.String()))
	resp := ToSettingsResponse(settings)
	return &resp, nil
}
