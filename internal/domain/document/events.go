package document

import (
	"github.com/bizdocs/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventTypeDocumentCreated   = "DocumentCreated"
	EventTypeDocumentUpdated   = "DocumentUpdated"
	EventTypeDocumentDeleted   = "DocumentDeleted"
	EventTypeDocumentConverted = "DocumentConverted"
	EventTypeInvoicePaid       = "InvoicePaid"
	EventTypeDocumentSent      = "DocumentSent"
)

// DocumentCreatedEvent is raised when a numbered document is first stored
type DocumentCreatedEvent struct {
	shared.BaseDomainEvent
	Number       string          `json:"number"`
	DocumentType DocumentType    `json:"document_type"`
	AmountGross  decimal.Decimal `json:"amount_gross"`
}

// NewDocumentCreatedEvent creates a new DocumentCreatedEvent
func NewDocumentCreatedEvent(d *Document) *DocumentCreatedEvent {
	return &DocumentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentCreated, AggregateTypeDocument, d.ID),
		Number:          d.Number,
		DocumentType:    d.Type,
		AmountGross:     d.AmountGross,
	}
}

// DocumentUpdatedEvent is raised after a content edit
type DocumentUpdatedEvent struct {
	shared.BaseDomainEvent
	Number       string          `json:"number"`
	DocumentType DocumentType    `json:"document_type"`
	AmountGross  decimal.Decimal `json:"amount_gross"`
}

// NewDocumentUpdatedEvent creates a new DocumentUpdatedEvent
func NewDocumentUpdatedEvent(d *Document) *DocumentUpdatedEvent {
	return &DocumentUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentUpdated, AggregateTypeDocument, d.ID),
		Number:          d.Number,
		DocumentType:    d.Type,
		AmountGross:     d.AmountGross,
	}
}

// DocumentDeletedEvent is raised when a document is removed
type DocumentDeletedEvent struct {
	shared.BaseDomainEvent
	Number       string       `json:"number"`
	DocumentType DocumentType `json:"document_type"`
	Replaced     bool         `json:"replaced"`
}

// NewDocumentDeletedEvent creates a new DocumentDeletedEvent.
// replaced marks invoices removed by a quote regeneration.
func NewDocumentDeletedEvent(d *Document, replaced bool) *DocumentDeletedEvent {
	return &DocumentDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentDeleted, AggregateTypeDocument, d.ID),
		Number:          d.Number,
		DocumentType:    d.Type,
		Replaced:        replaced,
	}
}

// DocumentConvertedEvent links a source document to the document derived from it
type DocumentConvertedEvent struct {
	shared.BaseDomainEvent
	SourceID     uuid.UUID    `json:"source_id"`
	SourceNumber string       `json:"source_number"`
	TargetNumber string       `json:"target_number"`
	TargetType   DocumentType `json:"target_type"`
}

// NewDocumentConvertedEvent creates a new DocumentConvertedEvent
func NewDocumentConvertedEvent(source, target *Document) *DocumentConvertedEvent {
	return &DocumentConvertedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentConverted, AggregateTypeDocument, target.ID),
		SourceID:        source.ID,
		SourceNumber:    source.Number,
		TargetNumber:    target.Number,
		TargetType:      target.Type,
	}
}

// InvoicePaidEvent is raised when an invoice becomes paid
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	Number      string          `json:"number"`
	AmountGross decimal.Decimal `json:"amount_gross"`
}

// NewInvoicePaidEvent creates a new InvoicePaidEvent
func NewInvoicePaidEvent(d *Document) *InvoicePaidEvent {
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaid, AggregateTypeDocument, d.ID),
		Number:          d.Number,
		AmountGross:     d.AmountGross,
	}
}

// DocumentSentEvent is raised after a successful delivery
type DocumentSentEvent struct {
	shared.BaseDomainEvent
	Number       string       `json:"number"`
	DocumentType DocumentType `json:"document_type"`
}

// NewDocumentSentEvent creates a new DocumentSentEvent
func NewDocumentSentEvent(d *Document) *DocumentSentEvent {
	return &DocumentSentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentSent, AggregateTypeDocument, d.ID),
		Number:          d.Number,
		DocumentType:    d.Type,
	}
}
