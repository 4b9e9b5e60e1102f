package document

import (
	"time"

	"github.com/bizdocs/backend/internal/domain/document"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineRequest is one priced line in a create or update request.
// Missing or null quantity and price count as zero.
type LineRequest struct {
	Designation string              `json:"designation" binding:"required,max=500"`
	Category    string              `json:"category"`
	Quantity    decimal.NullDecimal `json:"quantity"`
	UnitPrice   decimal.NullDecimal `json:"unit_price"`
}

func (r LineRequest) toInput() document.LineInput {
	return document.LineInput{
		Designation: r.Designation,
		Category:    document.ParseLineCategory(r.Category),
		Quantity:    r.Quantity,
		UnitPrice:   r.UnitPrice,
	}
}

func toLineInputs(lines []LineRequest) []document.LineInput {
	inputs := make([]document.LineInput, len(lines))
	for i, l := range lines {
		inputs[i] = l.toInput()
	}
	return inputs
}

// CreateDocumentRequest represents a request to create a document
type CreateDocumentRequest struct {
	Type            string           `json:"type" binding:"required"`
	Date            *time.Time       `json:"date"`
	VATRate         *decimal.Decimal `json:"vat_rate"`
	ReverseCharge   bool             `json:"reverse_charge"`
	ClientID        *uuid.UUID       `json:"client_id"`
	SupplierID      *uuid.UUID       `json:"supplier_id"`
	ClientReference string           `json:"client_reference" binding:"max=30"`
	SiteReference   string           `json:"site_reference" binding:"max=50"`
	CCContactIDs    []uuid.UUID      `json:"cc_contact_ids"`
	Lines           []LineRequest    `json:"lines" binding:"dive"`
}

// UpdateDocumentRequest represents a form submission. Nil fields are left unchanged;
// a non-nil Lines replaces every line.
type UpdateDocumentRequest struct {
	Date            *time.Time       `json:"date"`
	VATRate         *decimal.Decimal `json:"vat_rate"`
	ReverseCharge   *bool            `json:"reverse_charge"`
	ClientID        *uuid.UUID       `json:"client_id"`
	SupplierID      *uuid.UUID       `json:"supplier_id"`
	ClientReference *string          `json:"client_reference" binding:"omitempty,max=30"`
	SiteReference   *string          `json:"site_reference" binding:"omitempty,max=50"`
	CCContactIDs    *[]uuid.UUID     `json:"cc_contact_ids"`
	Lines           *[]LineRequest   `json:"lines"`
}

func (r UpdateDocumentRequest) headerUpdate() document.HeaderUpdate {
	return document.HeaderUpdate{
		VATRate:         r.VATRate,
		ReverseCharge:   r.ReverseCharge,
		ClientReference: r.ClientReference,
		SiteReference:   r.SiteReference,
		ClientID:        r.ClientID,
		SupplierID:      r.SupplierID,
		CCContactIDs:    r.CCContactIDs,
	}
}

// UpdateDateRequest changes the document date alone
type UpdateDateRequest struct {
	Date time.Time `json:"date" binding:"required"`
}

// ConvertToInvoiceRequest converts a quote into an invoice
type ConvertToInvoiceRequest struct {
	ClientReference string `json:"client_reference" binding:"required,max=30"`
}

// SetPaidRequest toggles the payment flag of an invoice
type SetPaidRequest struct {
	Paid *bool `json:"paid" binding:"required"`
}

// SendDocumentRequest delivers a document by email
type SendDocumentRequest struct {
	ExtraRecipients []string `json:"extra_recipients" binding:"omitempty,dive,email"`
	Subject         string   `json:"subject" binding:"max=200"`
	Body            string   `json:"body" binding:"max=5000"`
}

// DocumentListFilter represents filter options for document list
type DocumentListFilter struct {
	Search     string     `form:"search"`
	Type       string     `form:"type"`
	Paid       *bool      `form:"paid"`
	ClientID   *uuid.UUID `form:"client_id"`
	SupplierID *uuid.UUID `form:"supplier_id"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// LineResponse represents a document line in API responses
type LineResponse struct {
	ID          uuid.UUID       `json:"id"`
	Position    int             `json:"position"`
	Designation string          `json:"designation"`
	Category    string          `json:"category"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// DocumentResponse represents a document in API responses
type DocumentResponse struct {
	ID                uuid.UUID       `json:"id"`
	Type              string          `json:"type"`
	TypeLabel         string          `json:"type_label"`
	Number            string          `json:"number"`
	Date              time.Time       `json:"date"`
	VATRate           decimal.Decimal `json:"vat_rate"`
	ReverseCharge     bool            `json:"reverse_charge"`
	Paid              bool            `json:"paid"`
	SentAt            *time.Time      `json:"sent_at,omitempty"`
	ClientReference   string          `json:"client_reference"`
	SiteReference     string          `json:"site_reference"`
	ClientID          *uuid.UUID      `json:"client_id,omitempty"`
	SupplierID        *uuid.UUID      `json:"supplier_id,omitempty"`
	SourceDocumentID  *uuid.UUID      `json:"source_document_id,omitempty"`
	CCContactIDs      []uuid.UUID     `json:"cc_contact_ids"`
	HasArtifact       bool            `json:"has_artifact"`
	Lines             []LineResponse  `json:"lines"`
	AmountNet         decimal.Decimal `json:"amount_net"`
	AmountVAT         decimal.Decimal `json:"amount_vat"`
	AmountGross       decimal.Decimal `json:"amount_gross"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	CreatedBy         *uuid.UUID      `json:"created_by,omitempty"`
	UpdatedBy         *uuid.UUID      `json:"updated_by,omitempty"`
	Version           int             `json:"version"`
	ReplacedDocuments []string        `json:"replaced_documents,omitempty"`
	Warnings          []string        `json:"warnings,omitempty"`
}

// DocumentListItemResponse represents a document in list responses (less detail)
type DocumentListItemResponse struct {
	ID               uuid.UUID       `json:"id"`
	Type             string          `json:"type"`
	Number           string          `json:"number"`
	Date             time.Time       `json:"date"`
	Paid             bool            `json:"paid"`
	SentAt           *time.Time      `json:"sent_at,omitempty"`
	ClientReference  string          `json:"client_reference"`
	ClientID         *uuid.UUID      `json:"client_id,omitempty"`
	SupplierID       *uuid.UUID      `json:"supplier_id,omitempty"`
	SourceDocumentID *uuid.UUID      `json:"source_document_id,omitempty"`
	AmountNet        decimal.Decimal `json:"amount_net"`
	AmountGross      decimal.Decimal `json:"amount_gross"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// RenderResult is a rendered document ready for download
type RenderResult struct {
	Document    *DocumentResponse
	Filename    string
	ContentType string
	Content     []byte
	VerifyURL   string
}

// VerificationResponse is the public, read-only view of a document reached by its token
type VerificationResponse struct {
	Valid       bool            `json:"valid"`
	Number      string          `json:"number"`
	Type        string          `json:"type"`
	TypeLabel   string          `json:"type_label"`
	Date        time.Time       `json:"date"`
	IssuerName  string          `json:"issuer_name"`
	PartyName   string          `json:"party_name,omitempty"`
	AmountNet   decimal.Decimal `json:"amount_net"`
	AmountVAT   decimal.Decimal `json:"amount_vat"`
	AmountGross decimal.Decimal `json:"amount_gross"`
	Paid        bool            `json:"paid"`
	SentAt      *time.Time      `json:"sent_at,omitempty"`
}

// ToDocumentResponse converts a domain Document to a DocumentResponse
func ToDocumentResponse(d *document.Document) DocumentResponse {
	lines := make([]LineResponse, len(d.Lines))
	for i, l := range d.Lines {
		lines[i] = LineResponse{
			ID:          l.ID,
			Position:    l.Position,
			Designation: l.Designation,
			Category:    string(l.Category),
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			LineTotal:   l.LineTotal,
		}
	}
	ccIDs := d.CCContactIDs
	if ccIDs == nil {
		ccIDs = []uuid.UUID{}
	}
	return DocumentResponse{
		ID:               d.ID,
		Type:             string(d.Type),
		TypeLabel:        d.Type.Label(),
		Number:           d.Number,
		Date:             d.Date,
		VATRate:          d.VATRate,
		ReverseCharge:    d.ReverseCharge,
		Paid:             d.Paid,
		SentAt:           d.SentAt,
		ClientReference:  d.ClientReference,
		SiteReference:    d.SiteReference,
		ClientID:         d.ClientID,
		SupplierID:       d.SupplierID,
		SourceDocumentID: d.SourceDocumentID,
		CCContactIDs:     ccIDs,
		HasArtifact:      d.ArtifactPath != "",
		Lines:            lines,
		AmountNet:        d.AmountNet,
		AmountVAT:        d.AmountVAT,
		AmountGross:      d.AmountGross,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
		CreatedBy:        d.CreatedBy,
		UpdatedBy:        d.UpdatedBy,
		Version:          d.Version,
	}
}

// ToDocumentListItemResponse converts a domain Document to a list item response
func ToDocumentListItemResponse(d *document.Document) DocumentListItemResponse {
	return DocumentListItemResponse{
		ID:               d.ID,
		Type:             string(d.Type),
		Number:           d.Number,
		Date:             d.Date,
		Paid:             d.Paid,
		SentAt:           d.SentAt,
		ClientReference:  d.ClientReference,
		ClientID:         d.ClientID,
		SupplierID:       d.SupplierID,
		SourceDocumentID: d.SourceDocumentID,
		AmountNet:        d.AmountNet,
		AmountGross:      d.AmountGross,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

// ToDocumentListItemResponses converts a slice of domain Documents to list item responses
func ToDocumentListItemResponses(docs []document.Document) []DocumentListItemResponse {
	responses := make([]DocumentListItemResponse, len(docs))
	for i := range docs {
		responses[i] = ToDocumentListItemResponse(&docs[i])
	}
	return responses
}

// Stats periods
const (
	PeriodThisMonth = "this_month"
	PeriodThisYear  = "this_year"
	PeriodAll       = "all"
)

// PreviewTotalsRequest prices lines without creating a document
type PreviewTotalsRequest struct {
	Lines         []LineRequest    `json:"lines" binding:"dive"`
	VATRate       *decimal.Decimal `json:"vat_rate"`
	ReverseCharge bool             `json:"reverse_charge"`
}

// TotalsResponse is the outcome of a pricing preview
type TotalsResponse struct {
	LineTotals    []decimal.Decimal `json:"line_totals"`
	VATRate       decimal.Decimal   `json:"vat_rate"`
	ReverseCharge bool              `json:"reverse_charge"`
	AmountNet     decimal.Decimal   `json:"amount_net"`
	AmountVAT     decimal.Decimal   `json:"amount_vat"`
	AmountGross   decimal.Decimal   `json:"amount_gross"`
}

// TypeTotalsResponse aggregates the documents of one type
type TypeTotalsResponse struct {
	Count       int64           `json:"count"`
	AmountNet   decimal.Decimal `json:"amount_net"`
	AmountVAT   decimal.Decimal `json:"amount_vat"`
	AmountGross decimal.Decimal `json:"amount_gross"`
}

// ClientRevenueResponse is the net amount invoiced to one client
type ClientRevenueResponse struct {
	ClientID    uuid.UUID       `json:"client_id"`
	CompanyName string          `json:"company_name"`
	AmountNet   decimal.Decimal `json:"amount_net"`
}

// StatsResponse summarises activity over a period
type StatsResponse struct {
	Period          string                        `json:"period"`
	Since           *time.Time                    `json:"since,omitempty"`
	ByType          map[string]TypeTotalsResponse `json:"by_type"`
	InvoicesPaid    decimal.Decimal               `json:"invoices_paid"`
	InvoicesUnpaid  decimal.Decimal               `json:"invoices_unpaid"`
	QuotesConverted int64                         `json:"quotes_converted"`
	ConversionRate  decimal.Decimal               `json:"conversion_rate"`
	TopClients      []ClientRevenueResponse       `json:"top_clients"`
}

// ToStatsResponse converts domain Stats to a StatsResponse. Every type is present, empty or not.
func ToStatsResponse(period string, s *document.Stats) StatsResponse {
	byType := make(map[string]TypeTotalsResponse, len(document.AllTypes()))
	for _, t := range document.AllTypes() {
		totals := s.Totals(t)
		byType[string(t)] = TypeTotalsResponse{
			Count:       totals.Count,
			AmountNet:   totals.Net,
			AmountVAT:   totals.VAT,
			AmountGross: totals.Gross,
		}
	}
	top := make([]ClientRevenueResponse, len(s.TopClients))
	for i, c := range s.TopClients {
		top[i] = ClientRevenueResponse{ClientID: c.ClientID, CompanyName: c.CompanyName, AmountNet: c.Net}
	}
	return StatsResponse{
		Period:          period,
		Since:           s.Since,
		ByType:          byType,
		InvoicesPaid:    s.InvoicesPaid,
		InvoicesUnpaid:  s.InvoicesUnpaid(),
		QuotesConverted: s.QuotesConverted,
		ConversionRate:  s.ConversionRate(),
		TopClients:      top,
	}
}
