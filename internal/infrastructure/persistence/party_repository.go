package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/bizdocs/backend/internal/domain/party"
	"github.com/bizdocs/backend/internal/domain/shared"
	"github.com/bizdocs/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormClientRepository implements ClientRepository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// FindByID finds a client with its contacts
func (r *GormClientRepository) FindByID(ctx context.Context, id uuid.UUID) (*party.Client, error) {
	var model models.ClientModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("client %s not found", id)
		}
		return nil, err
	}
	client := model.ToDomain()
	contacts, err := r.FindContacts(ctx, id)
	if err != nil {
		return nil, err
	}
	client.Contacts = contacts
	return client, nil
}

// FindByEmail finds a client by email
func (r *GormClientRepository) FindByEmail(ctx context.Context, email string) (*party.Client, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, shared.NewValidationError("email cannot be empty")
	}
	var model models.ClientModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("no client with email %s", email)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SearchByName matches a case-insensitive fragment of the company name.
// Exact matches come first, then prefixes, then the shortest names.
func (r *GormClientRepository) SearchByName(ctx context.Context, fragment string, limit int) ([]party.Client, error) {
	var clientModels []models.ClientModel
	if err := searchByName(r.db.WithContext(ctx).Model(&models.ClientModel{}), fragment, limit).
		Find(&clientModels).Error; err != nil {
		return nil, err
	}
	clients := make([]party.Client, len(clientModels))
	for i := range clientModels {
		clients[i] = *clientModels[i].ToDomain()
	}
	return clients, nil
}

// FindAll finds all clients matching the filter
func (r *GormClientRepository) FindAll(ctx context.Context, filter shared.Filter) ([]party.Client, error) {
	var clientModels []models.ClientModel
	if err := applyPartyFilter(r.db.WithContext(ctx).Model(&models.ClientModel{}), filter, true).
		Find(&clientModels).Error; err != nil {
		return nil, err
	}
	clients := make([]party.Client, len(clientModels))
	for i := range clientModels {
		clients[i] = *clientModels[i].ToDomain()
	}
	return clients, nil
}

// Count counts clients matching the filter
func (r *GormClientRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := applyPartyFilter(r.db.WithContext(ctx).Model(&models.ClientModel{}), filter, false).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a client. Contacts are saved through SaveContact.
func (r *GormClientRepository) Save(ctx context.Context, client *party.Client) error {
	model := models.ClientModelFromDomain(client)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes a client and its contacts
func (r *GormClientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var used int64
		if err := tx.Model(&models.DocumentModel{}).Where("client_id = ?", id).Count(&used).Error; err != nil {
			return err
		}
		if used > 0 {
			return shared.NewStateConflictError("client %s is referenced by %d document(s)", id, used)
		}
		if err := tx.Where("client_id = ?", id).Delete(&models.ContactModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.ClientModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewNotFoundError("client %s not found", id)
		}
		return nil
	})
}

// SaveContact creates or updates a client contact
func (r *GormClientRepository) SaveContact(ctx context.Context, contact *party.Contact) error {
	return r.db.WithContext(ctx).Save(models.ContactModelFromDomain(contact)).Error
}

// FindContacts lists the contacts of a client by name
func (r *GormClientRepository) FindContacts(ctx context.Context, clientID uuid.UUID) ([]party.Contact, error) {
	var contactModels []models.ContactModel
	if err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("name ASC").
		Find(&contactModels).Error; err != nil {
		return nil, err
	}
	return toDomainContacts(contactModels), nil
}

// FindContactsByIDs loads the given contacts, ignoring unknown ids
func (r *GormClientRepository) FindContactsByIDs(ctx context.Context, ids []uuid.UUID) ([]party.Contact, error) {
	if len(ids) == 0 {
		return []party.Contact{}, nil
	}
	var contactModels []models.ContactModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&contactModels).Error; err != nil {
		return nil, err
	}
	return toDomainContacts(contactModels), nil
}

func toDomainContacts(contactModels []models.ContactModel) []party.Contact {
	contacts := make([]party.Contact, len(contactModels))
	for i := range contactModels {
		contacts[i] = *contactModels[i].ToDomain()
	}
	return contacts
}

// GormSupplierRepository implements SupplierRepository using GORM
type GormSupplierRepository struct {
	db *gorm.DB
}

// NewGormSupplierRepository creates a new GormSupplierRepository
func NewGormSupplierRepository(db *gorm.DB) *GormSupplierRepository {
	return &GormSupplierRepository{db: db}
}

// FindByID finds a supplier by its ID
func (r *GormSupplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*party.Supplier, error) {
	var model models.SupplierModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("supplier %s not found", id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SearchByName matches a case-insensitive fragment of the company name
func (r *GormSupplierRepository) SearchByName(ctx context.Context, fragment string, limit int) ([]party.Supplier, error) {
	var supplierModels []models.SupplierModel
	if err := searchByName(r.db.WithContext(ctx).Model(&models.SupplierModel{}), fragment, limit).
		Find(&supplierModels).Error; err != nil {
		return nil, err
	}
	return toDomainSuppliers(supplierModels), nil
}

// FindAll finds all suppliers matching the filter
func (r *GormSupplierRepository) FindAll(ctx context.Context, filter shared.Filter) ([]party.Supplier, error) {
	var supplierModels []models.SupplierModel
	if err := applyPartyFilter(r.db.WithContext(ctx).Model(&models.SupplierModel{}), filter, true).
		Find(&supplierModels).Error; err != nil {
		return nil, err
	}
	return toDomainSuppliers(supplierModels), nil
}

// Count counts suppliers matching the filter
func (r *GormSupplierRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := applyPartyFilter(r.db.WithContext(ctx).Model(&models.SupplierModel{}), filter, false).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a supplier
func (r *GormSupplierRepository) Save(ctx context.Context, supplier *party.Supplier) error {
	return r.db.WithContext(ctx).Save(models.SupplierModelFromDomain(supplier)).Error
}

// Delete removes a supplier that no purchase order references
func (r *GormSupplierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var used int64
	if err := r.db.WithContext(ctx).Model(&models.DocumentModel{}).Where("supplier_id = ?", id).Count(&used).Error; err != nil {
		return err
	}
	if used > 0 {
		return shared.NewStateConflictError("supplier %s is referenced by %d document(s)", id, used)
	}
	result := r.db.WithContext(ctx).Delete(&models.SupplierModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("supplier %s not found", id)
	}
	return nil
}

func toDomainSuppliers(supplierModels []models.SupplierModel) []party.Supplier {
	suppliers := make([]party.Supplier, len(supplierModels))
	for i := range supplierModels {
		suppliers[i] = *supplierModels[i].ToDomain()
	}
	return suppliers
}

// searchByName ranks exact matches, then prefixes, then shorter names
func searchByName(query *gorm.DB, fragment string, limit int) *gorm.DB {
	needle := strings.ToLower(strings.TrimSpace(fragment))
	if limit <= 0 {
		limit = 10
	}
	return query.
		Where("LOWER(company_name) LIKE ?"+likeEscape, containsPattern(needle)).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "CASE WHEN LOWER(company_name) = ? THEN 0 WHEN LOWER(company_name) LIKE ?" + likeEscape + " THEN 1 ELSE 2 END, LENGTH(company_name), company_name",
			Vars:               []any{needle, prefixPattern(needle)},
			WithoutParentheses: true,
		}}).
		Limit(limit)
}

// applyPartyFilter applies search, ordering and, when paginate is set, pagination
func applyPartyFilter(query *gorm.DB, filter shared.Filter, paginate bool) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := containsPattern(search)
		query = query.Where("LOWER(company_name) LIKE ?"+likeEscape+
			" OR LOWER(email) LIKE ?"+likeEscape+
			" OR LOWER(city) LIKE ?"+likeEscape,
			pattern, pattern, pattern)
	}
	if city, ok := filter.Filters["city"]; ok {
		query = query.Where("city = ?", city)
	}
	if !paginate {
		return query
	}
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, PartySortFields, "company_name")
	orderDir := "ASC"
	if filter.OrderDir != "" {
		orderDir = ValidateSortOrder(filter.OrderDir)
	}
	return query.Order(orderBy + " " + orderDir)
}

// Ensure the GORM repositories implement the party interfaces
var (
	_ party.ClientRepository   = (*GormClientRepository)(nil)
	_ party.SupplierRepository = (*GormSupplierRepository)(nil)
)
