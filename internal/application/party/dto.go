package party

import (
	"time"

	"github.com/bizdocs/backend/internal/domain/party"
	"github.com/google/uuid"
)

// ProfileRequest carries the identity fields shared by clients and suppliers
type ProfileRequest struct {
	CompanyName string `json:"company_name" binding:"required,max=200"`
	Email       string `json:"email" binding:"omitempty,email,max=200"`
	Phone       string `json:"phone" binding:"max=50"`
	Address     string `json:"address"`
	PostalCode  string `json:"postal_code" binding:"max=20"`
	City        string `json:"city" binding:"max=100"`
	SIRET       string `json:"siret" binding:"max=20"`
	VATNumber   string `json:"vat_number" binding:"max=20"`
}

func (r ProfileRequest) toProfile() party.Profile {
	return party.Profile{
		CompanyName: r.CompanyName,
		Email:       r.Email,
		Phone:       r.Phone,
		Address:     r.Address,
		PostalCode:  r.PostalCode,
		City:        r.City,
		SIRET:       r.SIRET,
		VATNumber:   r.VATNumber,
	}
}

// CreateContactRequest adds a courtesy-copy contact to a client
type CreateContactRequest struct {
	Name  string `json:"name" binding:"required,max=100"`
	Email string `json:"email" binding:"required,email,max=200"`
	Role  string `json:"role" binding:"max=100"`
}

// PartyListFilter represents filter options for client and supplier lists
type PartyListFilter struct {
	Search   string `form:"search"`
	City     string `form:"city"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ProfileResponse is the identity part of client and supplier responses
type ProfileResponse struct {
	CompanyName string `json:"company_name"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
	City        string `json:"city,omitempty"`
	SIRET       string `json:"siret,omitempty"`
	VATNumber   string `json:"vat_number,omitempty"`
}

// ContactResponse represents a client contact in API responses
type ContactResponse struct {
	ID        uuid.UUID `json:"id"`
	ClientID  uuid.UUID `json:"client_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ClientResponse represents a client in API responses
type ClientResponse struct {
	ID uuid.UUID `json:"id"`
	ProfileResponse
	Contacts  []ContactResponse `json:"contacts,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Version   int               `json:"version"`
}

// SupplierResponse represents a supplier in API responses
type SupplierResponse struct {
	ID uuid.UUID `json:"id"`
	ProfileResponse
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

func toProfileResponse(p party.Profile) ProfileResponse {
	return ProfileResponse(p)
}

// ToContactResponse converts a domain Contact to a ContactResponse
func ToContactResponse(c *party.Contact) ContactResponse {
	return ContactResponse{
		ID:        c.ID,
		ClientID:  c.ClientID,
		Name:      c.Name,
		Email:     c.Email,
		Role:      c.Role,
		CreatedAt: c.CreatedAt,
	}
}

// ToClientResponse converts a domain Client to a ClientResponse
func ToClientResponse(c *party.Client) ClientResponse {
	contacts := make([]ContactResponse, len(c.Contacts))
	for i := range c.Contacts {
		contacts[i] = ToContactResponse(&c.Contacts[i])
	}
	return ClientResponse{
		ID:              c.ID,
		ProfileResponse: toProfileResponse(c.Profile),
		Contacts:        contacts,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
		Version:         c.Version,
	}
}

// ToSupplierResponse converts a domain Supplier to a SupplierResponse
func ToSupplierResponse(s *party.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:              s.ID,
		ProfileResponse: toProfileResponse(s.Profile),
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
		Version:         s.Version,
	}
}
