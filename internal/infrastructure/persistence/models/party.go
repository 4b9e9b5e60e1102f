package models

import (
	"time"

	"github.com/bizdocs/backend/internal/domain/party"
	"github.com/google/uuid"
)

// ProfileColumns holds the identity columns shared by clients and suppliers.
type ProfileColumns struct {
	CompanyName string `gorm:"type:varchar(200);not null;index"`
	Email       string `gorm:"type:varchar(200);index"`
	Phone       string `gorm:"type:varchar(50)"`
	Address     string `gorm:"type:text"`
	PostalCode  string `gorm:"type:varchar(20)"`
	City        string `gorm:"type:varchar(100)"`
	SIRET       string `gorm:"column:siret;type:varchar(14)"`
	VATNumber   string `gorm:"column:vat_number;type:varchar(20)"`
}

func profileColumnsFromDomain(p party.Profile) ProfileColumns {
	return ProfileColumns(p)
}

func (c ProfileColumns) toDomain() party.Profile {
	return party.Profile(c)
}

// ClientModel is the persistence model for the Client aggregate root.
type ClientModel struct {
	AuditedAggregateModel
	ProfileColumns
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts the persistence model to a domain Client. Contacts are loaded separately.
func (m *ClientModel) ToDomain() *party.Client {
	return &party.Client{
		AuditedAggregateRoot: m.ToDomainAuditedAggregateRoot(),
		Profile:              m.ProfileColumns.toDomain(),
	}
}

// ClientModelFromDomain creates a new persistence model from a domain Client.
func ClientModelFromDomain(c *party.Client) *ClientModel {
	m := &ClientModel{ProfileColumns: profileColumnsFromDomain(c.Profile)}
	m.FromDomainAuditedAggregateRoot(c.AuditedAggregateRoot)
	return m
}

// SupplierModel is the persistence model for the Supplier aggregate root.
type SupplierModel struct {
	AuditedAggregateModel
	ProfileColumns
}

// TableName returns the table name for GORM
func (SupplierModel) TableName() string {
	return "suppliers"
}

// ToDomain converts the persistence model to a domain Supplier.
func (m *SupplierModel) ToDomain() *party.Supplier {
	return &party.Supplier{
		AuditedAggregateRoot: m.ToDomainAuditedAggregateRoot(),
		Profile:              m.ProfileColumns.toDomain(),
	}
}

// SupplierModelFromDomain creates a new persistence model from a domain Supplier.
func SupplierModelFromDomain(s *party.Supplier) *SupplierModel {
	m := &SupplierModel{ProfileColumns: profileColumnsFromDomain(s.Profile)}
	m.FromDomainAuditedAggregateRoot(s.AuditedAggregateRoot)
	return m
}

// ContactModel is the persistence model for a client contact.
type ContactModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	ClientID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(100);not null"`
	Email     string    `gorm:"type:varchar(200);not null"`
	Role      string    `gorm:"type:varchar(100)"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ContactModel) TableName() string {
	return "client_contacts"
}

// ToDomain converts the persistence model to a domain Contact.
func (m *ContactModel) ToDomain() *party.Contact {
	return &party.Contact{
		ID:        m.ID,
		ClientID:  m.ClientID,
		Name:      m.Name,
		Email:     m.Email,
		Role:      m.Role,
		CreatedAt: m.CreatedAt,
	}
}

// ContactModelFromDomain creates a new persistence model from a domain Contact.
func ContactModelFromDomain(c *party.Contact) *ContactModel {
	return &ContactModel{
		ID:        c.ID,
		ClientID:  c.ClientID,
		Name:      c.Name,
		Email:     c.Email,
		Role:      c.Role,
		CreatedAt: c.CreatedAt,
	}
}
