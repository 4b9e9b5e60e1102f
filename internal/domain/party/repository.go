package party

import (
	"context"

	"github.com/bizdocs/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ClientRepository defines the interface for client persistence
type ClientRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Client, error)
	FindByEmail(ctx context.Context, email string) (*Client, error)
	// SearchByName matches a case-insensitive fragment of the company name, best match first
	SearchByName(ctx context.Context, fragment string, limit int) ([]Client, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Client, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	Save(ctx context.Context, client *Client) error
	Delete(ctx context.Context, id uuid.UUID) error

	SaveContact(ctx context.Context, contact *Contact) error
	FindContacts(ctx context.Context, clientID uuid.UUID) ([]Contact, error)
	FindContactsByIDs(ctx context.Context, ids []uuid.UUID) ([]Contact, error)
}

// SupplierRepository defines the interface for supplier persistence
type SupplierRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Supplier, error)
	SearchByName(ctx context.Context, fragment string, limit int) ([]Supplier, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Supplier, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	Save(ctx context.Context, supplier *Supplier) error
	Delete(ctx context.Context, id uuid.UUID) error
}
