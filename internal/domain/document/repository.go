package document

import (
	"context"
	"time"

	"github.com/bizdocs/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter keys understood by DocumentRepository.FindAll
const (
	FilterType       = "type"
	FilterPaid       = "paid"
	FilterClientID   = "client_id"
	FilterSupplierID = "supplier_id"
	FilterSourceID   = "source_document_id"
)

// DocumentRepository defines the interface for document persistence
type DocumentRepository interface {
	NumberSource

	// FindByID finds a document with its lines and courtesy copies
	FindByID(ctx context.Context, id uuid.UUID) (*Document, error)

	// FindByNumber finds a document by its unique number
	FindByNumber(ctx context.Context, number string) (*Document, error)

	// FindBySecurityToken finds a document by its verification token
	FindBySecurityToken(ctx context.Context, token string) (*Document, error)

	// FindDerived lists documents whose source is sourceID, oldest first
	FindDerived(ctx context.Context, sourceID uuid.UUID) ([]Document, error)

	// FindLatest returns the most recently created document, optionally restricted by type
	FindLatest(ctx context.Context, docType DocumentType) (*Document, error)

	// FindAll lists documents with filtering and pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]Document, error)

	// Count counts documents matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save creates or updates a document together with its lines and courtesy copies
	Save(ctx context.Context, doc *Document) error

	// Delete removes a document and its lines
	Delete(ctx context.Context, id uuid.UUID) error

	// SetSecurityToken stores the token without touching the audit timestamp
	SetSecurityToken(ctx context.Context, id uuid.UUID, token string) error

	// SetArtifactPath stores the rendered artifact path without touching the audit timestamp
	SetArtifactPath(ctx context.Context, id uuid.UUID, path string) error

	// SetSentAt stores the delivery time without touching the audit timestamp
	SetSentAt(ctx context.Context, id uuid.UUID, sentAt time.Time) error

	// Stats aggregates amounts per type for documents dated since (all when nil),
	// ranking at most topClients clients by invoiced net amount
	Stats(ctx context.Context, since *time.Time, topClients int) (*Stats, error)
}
