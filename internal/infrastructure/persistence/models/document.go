package models

import (
	"time"

	"github.com/bizdocs/backend/internal/domain/document"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentModel is the persistence model for the Document aggregate root.
type DocumentModel struct {
	AuditedAggregateModel
	Type             document.DocumentType `gorm:"type:varchar(20);not null;index"`
	Number           string                `gorm:"type:varchar(20);not null;uniqueIndex"`
	Date             time.Time             `gorm:"not null"`
	VATRate          decimal.Decimal       `gorm:"column:vat_rate;type:decimal(5,2);not null;default:20"`
	ReverseCharge    bool                  `gorm:"not null;default:false"`
	Paid             bool                  `gorm:"not null;default:false;index"`
	SentAt           *time.Time            `gorm:"index"`
	ClientReference  string                `gorm:"type:varchar(30)"`
	SiteReference    string                `gorm:"type:varchar(50)"`
	ClientID         *uuid.UUID            `gorm:"type:uuid;index"`
	SupplierID       *uuid.UUID            `gorm:"type:uuid;index"`
	SourceDocumentID *uuid.UUID            `gorm:"type:uuid;index"`
	SecurityToken    *string               `gorm:"type:varchar(64);uniqueIndex"`
	ArtifactPath     string                `gorm:"type:varchar(500)"`
	AmountNet        decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	AmountVAT        decimal.Decimal       `gorm:"column:amount_vat;type:decimal(18,2);not null;default:0"`
	AmountGross      decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	Lines            []LineModel           `gorm:"foreignKey:DocumentID;references:ID"`
	CCContacts       []DocumentCCModel     `gorm:"foreignKey:DocumentID;references:ID"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "documents"
}

// ToDomain converts the persistence model to a domain Document.
// Lines and courtesy copies are included when they were preloaded.
func (m *DocumentModel) ToDomain() *document.Document {
	doc := &document.Document{
		AuditedAggregateRoot: m.ToDomainAuditedAggregateRoot(),
		Type:                 m.Type,
		Number:               m.Number,
		Date:                 m.Date,
		VATRate:              m.VATRate,
		ReverseCharge:        m.ReverseCharge,
		Paid:                 m.Paid,
		SentAt:               m.SentAt,
		ClientReference:      m.ClientReference,
		SiteReference:        m.SiteReference,
		ClientID:             m.ClientID,
		SupplierID:           m.SupplierID,
		SourceDocumentID:     m.SourceDocumentID,
		SecurityToken:        m.SecurityToken,
		ArtifactPath:         m.ArtifactPath,
		AmountNet:            m.AmountNet,
		AmountVAT:            m.AmountVAT,
		AmountGross:          m.AmountGross,
		Lines:                make([]document.Line, len(m.Lines)),
		CCContactIDs:         make([]uuid.UUID, len(m.CCContacts)),
	}
	for i := range m.Lines {
		doc.Lines[i] = *m.Lines[i].ToDomain()
	}
	for i, cc := range m.CCContacts {
		doc.CCContactIDs[i] = cc.ContactID
	}
	return doc
}

// FromDomain populates the header columns. Lines and courtesy copies are written separately.
func (m *DocumentModel) FromDomain(d *document.Document) {
	m.FromDomainAuditedAggregateRoot(d.AuditedAggregateRoot)
	m.Type = d.Type
	m.Number = d.Number
	m.Date = d.Date
	m.VATRate = d.VATRate
	m.ReverseCharge = d.ReverseCharge
	m.Paid = d.Paid
	m.SentAt = d.SentAt
	m.ClientReference = d.ClientReference
	m.SiteReference = d.SiteReference
	m.ClientID = d.ClientID
	m.SupplierID = d.SupplierID
	m.SourceDocumentID = d.SourceDocumentID
	m.SecurityToken = d.SecurityToken
	m.ArtifactPath = d.ArtifactPath
	m.AmountNet = d.AmountNet
	m.AmountVAT = d.AmountVAT
	m.AmountGross = d.AmountGross
}

// DocumentModelFromDomain creates a new persistence model from a domain Document.
func DocumentModelFromDomain(d *document.Document) *DocumentModel {
	m := &DocumentModel{}
	m.FromDomain(d)
	return m
}

// LineModel is the persistence model for a document line.
type LineModel struct {
	ID          uuid.UUID             `gorm:"type:uuid;primary_key"`
	DocumentID  uuid.UUID             `gorm:"type:uuid;not null;index"`
	Position    int                   `gorm:"not null"`
	Designation string                `gorm:"type:varchar(500);not null"`
	Category    document.LineCategory `gorm:"type:varchar(20);not null;default:'goods'"`
	Quantity    decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	UnitPrice   decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	LineTotal   decimal.Decimal       `gorm:"type:decimal(24,8);not null;default:0"`
}

// TableName returns the table name for GORM
func (LineModel) TableName() string {
	return "document_lines"
}

// ToDomain converts the persistence model to a domain Line.
func (m *LineModel) ToDomain() *document.Line {
	return &document.Line{
		ID:          m.ID,
		DocumentID:  m.DocumentID,
		Position:    m.Position,
		Designation: m.Designation,
		Category:    m.Category,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		LineTotal:   m.LineTotal,
	}
}

// LineModelFromDomain creates a new persistence model from a domain Line.
func LineModelFromDomain(l *document.Line) *LineModel {
	return &LineModel{
		ID:          l.ID,
		DocumentID:  l.DocumentID,
		Position:    l.Position,
		Designation: l.Designation,
		Category:    l.Category,
		Quantity:    l.Quantity,
		UnitPrice:   l.UnitPrice,
		LineTotal:   l.LineTotal,
	}
}

// DocumentCCModel links a document to a client contact receiving a courtesy copy.
type DocumentCCModel struct {
	DocumentID uuid.UUID `gorm:"type:uuid;primaryKey"`
	ContactID  uuid.UUID `gorm:"type:uuid;primaryKey"`
}

// TableName returns the table name for GORM
func (DocumentCCModel) TableName() string {
	return "document_cc_contacts"
}
