package models

import (
	"time"

	"github.com/bizdocs/backend/internal/domain/company"
	"github.com/shopspring/decimal"
)

// CompanySettingsID is the key of the single settings row
const CompanySettingsID = 1

// CompanySettingsModel is the persistence model for the company settings.
type CompanySettingsModel struct {
	ID             int             `gorm:"primaryKey;autoIncrement:false"`
	Name           string          `gorm:"type:varchar(200);not null"`
	Address        string          `gorm:"type:text"`
	PostalCode     string          `gorm:"type:varchar(20)"`
	City           string          `gorm:"type:varchar(100)"`
	Email          string          `gorm:"type:varchar(200)"`
	Phone          string          `gorm:"type:varchar(50)"`
	SIRET          string          `gorm:"column:siret;type:varchar(14)"`
	VATNumber      string          `gorm:"column:vat_number;type:varchar(20)"`
	IBAN           string          `gorm:"column:iban;type:varchar(34)"`
	PaymentTerms   string          `gorm:"type:varchar(200)"`
	Footer         string          `gorm:"type:text"`
	DefaultVATRate decimal.Decimal `gorm:"column:default_vat_rate;type:decimal(5,2);not null;default:20"`
	UpdatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CompanySettingsModel) TableName() string {
	return "company_settings"
}

// ToDomain converts the persistence model to domain Settings.
func (m *CompanySettingsModel) ToDomain() *company.Settings {
	return &company.Settings{
		Name:           m.Name,
		Address:        m.Address,
		PostalCode:     m.PostalCode,
		City:           m.City,
		Email:          m.Email,
		Phone:          m.Phone,
		SIRET:          m.SIRET,
		VATNumber:      m.VATNumber,
		IBAN:           m.IBAN,
		PaymentTerms:   m.PaymentTerms,
		Footer:         m.Footer,
		DefaultVATRate: m.DefaultVATRate,
		UpdatedAt:      m.UpdatedAt,
	}
}

// CompanySettingsModelFromDomain creates the settings row from domain Settings.
func CompanySettingsModelFromDomain(s *company.Settings) *CompanySettingsModel {
	return &CompanySettingsModel{
		ID:             CompanySettingsID,
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
		UpdatedAt:      s.UpdatedAt,
	}
}
