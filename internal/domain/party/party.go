package party

import (
	"net/mail"
	"strings"
	"time"

	"github.com/bizdocs/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Profile holds the identity and postal details shared by clients and suppliers
type Profile struct {
	CompanyName string
	Email       string
	Phone       string
	Address     string
	PostalCode  string
	City        string
	SIRET       string
	VATNumber   string
}

// Normalize trims every field and lowercases the email
func (p Profile) Normalize() Profile {
	p.CompanyName = strings.TrimSpace(p.CompanyName)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Phone = strings.TrimSpace(p.Phone)
	p.Address = strings.TrimSpace(p.Address)
	p.PostalCode = strings.TrimSpace(p.PostalCode)
	p.City = strings.TrimSpace(p.City)
	p.SIRET = strings.ReplaceAll(strings.TrimSpace(p.SIRET), " ", "")
	p.VATNumber = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(p.VATNumber), " ", ""))
	return p
}

// Validate checks required fields and formats
func (p Profile) Validate() error {
	if p.CompanyName == "" {
		return shared.NewValidationError("company name is required")
	}
	if len(p.CompanyName) > 200 {
		return shared.NewValidationError("company name cannot exceed 200 characters")
	}
	if p.Email != "" {
		if _, err := mail.ParseAddress(p.Email); err != nil {
			return shared.NewValidationError("invalid email %q", p.Email)
		}
	}
	if p.SIRET != "" && len(p.SIRET) != 14 {
		return shared.NewValidationError("SIRET must have 14 digits")
	}
	return nil
}

// Client is a customer receiving quotes, invoices and credit notes
type Client struct {
	shared.AuditedAggregateRoot
	Profile
	Contacts []Contact
}

// NewClient creates a client from a validated profile
func NewClient(p Profile, createdBy *uuid.UUID) (*Client, error) {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(createdBy),
		Profile:              p,
	}, nil
}

// Update replaces the client profile
func (c *Client) Update(p Profile, updatedBy *uuid.UUID) error {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return err
	}
	c.Profile = p
	c.Touch(updatedBy)
	return nil
}

// Supplier is the counterparty of purchase orders
type Supplier struct {
	shared.AuditedAggregateRoot
	Profile
}

// NewSupplier creates a supplier from a validated profile
func NewSupplier(p Profile, createdBy *uuid.UUID) (*Supplier, error) {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Supplier{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(createdBy),
		Profile:              p,
	}, nil
}

// Update replaces the supplier profile
func (s *Supplier) Update(p Profile, updatedBy *uuid.UUID) error {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return err
	}
	s.Profile = p
	s.Touch(updatedBy)
	return nil
}

// Contact is a person at a client who may receive courtesy copies
type Contact struct {
	ID        uuid.UUID
	ClientID  uuid.UUID
	Name      string
	Email     string
	Role      string
	CreatedAt time.Time
}

// NewContact creates a contact for a client. An email is required since contacts only exist as recipients.
func NewContact(clientID uuid.UUID, name, email, role string) (*Contact, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if clientID == uuid.Nil {
		return nil, shared.NewValidationError("contact must belong to a client")
	}
	if name == "" {
		return nil, shared.NewValidationError("contact name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, shared.NewValidationError("invalid contact email %q", email)
	}
	return &Contact{
		ID:        uuid.New(),
		ClientID:  clientID,
		Name:      name,
		Email:     email,
		Role:      strings.TrimSpace(role),
		CreatedAt: time.Now(),
	}, nil
}
