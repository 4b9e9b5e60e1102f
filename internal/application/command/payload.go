package command

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	appparty "github.com/bizdocs/backend/internal/application/party"
	"github.com/bizdocs/backend/internal/domain/shared"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

const dateLayout = "2006-01-02"

type lineData struct {
	Designation string              `json:"designation" validate:"required,max=500"`
	Category    string              `json:"category"`
	Quantity    decimal.NullDecimal `json:"quantity"`
	UnitPrice   decimal.NullDecimal `json:"unit_price"`
}

type createDocumentData struct {
	Type            string           `json:"type" validate:"required"`
	ClientID        *uuid.UUID       `json:"client_id"`
	ClientName      string           `json:"client_name"`
	SupplierID      *uuid.UUID       `json:"supplier_id"`
	Date            string           `json:"date"`
	VATRate         *decimal.Decimal `json:"vat_rate"`
	ReverseCharge   bool             `json:"reverse_charge"`
	ClientReference string           `json:"client_reference" validate:"max=30"`
	SiteReference   string           `json:"site_reference" validate:"max=50"`
	Lines           []lineData       `json:"lines" validate:"dive"`
}

type addLineData struct {
	DocumentNumber string `json:"document_number"`
	lineData
}

type convertDocumentData struct {
	DocumentNumber  string  `json:"document_number"`
	SourceNumber    string  `json:"source_number"`
	ClientReference *string `json:"client_reference" validate:"omitempty,max=30"`
}

func (d convertDocumentData) number() string {
	if d.DocumentNumber != "" {
		return d.DocumentNumber
	}
	return d.SourceNumber
}

type documentRefData struct {
	DocumentNumber string `json:"document_number"`
}

// partyData creates a client or a supplier
type partyData struct {
	CompanyName string `json:"company_name" validate:"required,max=200"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	PostalCode  string `json:"postal_code"`
	City        string `json:"city"`
}

func (d partyData) toRequest() appparty.ProfileRequest {
	return appparty.ProfileRequest{
		CompanyName: d.CompanyName,
		Email:       d.Email,
		Phone:       d.Phone,
		Address:     d.Address,
		PostalCode:  d.PostalCode,
		City:        d.City,
	}
}

type listPartiesData struct {
	Search string `json:"search"`
	City   string `json:"city"`
	Limit  int    `json:"limit" validate:"omitempty,min=1,max=100"`
}

type addContactData struct {
	ClientID   *uuid.UUID `json:"client_id"`
	ClientName string     `json:"client_name"`
	Name       string     `json:"name" validate:"max=100"`
	FirstName  string     `json:"first_name" validate:"max=50"`
	LastName   string     `json:"last_name" validate:"max=50"`
	Email      string     `json:"email" validate:"required,email"`
	Role       string     `json:"role" validate:"max=100"`
}

// fullName prefers the explicit name, then first and last name
func (d addContactData) fullName() string {
	if name := strings.TrimSpace(d.Name); name != "" {
		return name
	}
	if name := strings.TrimSpace(d.FirstName + " " + d.LastName); name != "" {
		return name
	}
	return "Contact"
}

type calculateTotalsData struct {
	DocumentNumber string           `json:"document_number"`
	Lines          []lineData       `json:"lines" validate:"dive"`
	VATRate        *decimal.Decimal `json:"vat_rate"`
	ReverseCharge  bool             `json:"reverse_charge"`
}

type statsData struct {
	Period    string `json:"period"`
	Timeframe string `json:"timeframe"`
}

func (d statsData) period() string {
	if d.Period != "" {
		return d.Period
	}
	return d.Timeframe
}

type recentActivityData struct {
	Limit int `json:"limit" validate:"omitempty,min=1,max=20"`
}

type listDocumentsData struct {
	Type       string `json:"type"`
	ClientName string `json:"client_name"`
	Paid       *bool  `json:"paid"`
	Search     string `json:"search"`
	Limit      int    `json:"limit" validate:"omitempty,min=1,max=100"`
}

type sendEmailData struct {
	DocumentNumber  string   `json:"document_number"`
	RecipientEmail  string   `json:"recipient_email" validate:"omitempty,email"`
	ExtraRecipients []string `json:"extra_recipients" validate:"omitempty,dive,email"`
	Subject         string   `json:"subject" validate:"max=200"`
	Body            string   `json:"body" validate:"max=5000"`
}

// decode reads the action payload into dst and validates it. An absent payload decodes as {}.
func decode(raw json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return shared.NewValidationError("invalid command data: %v", err)
	}
	if err := validate.Struct(dst); err != nil {
		return shared.NewValidationError("invalid command data: %v", err)
	}
	return nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	date, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, shared.NewValidationError("invalid date %q, expected YYYY-MM-DD", s)
	}
	return &date, nil
}
