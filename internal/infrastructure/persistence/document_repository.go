package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bizdocs/backend/internal/domain/document"
	"github.com/bizdocs/backend/internal/domain/shared"
	"github.com/bizdocs/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDocumentRepository implements DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

func (r *GormDocumentRepository) withGraph(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("CCContacts")
}

func (r *GormDocumentRepository) findOne(query *gorm.DB, what string) (*document.Document, error) {
	var model models.DocumentModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("document %s not found", what)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID finds a document with its lines and courtesy copies
func (r *GormDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.Document, error) {
	return r.findOne(r.withGraph(ctx).Where("id = ?", id), id.String())
}

// FindByNumber finds a document by its unique number
func (r *GormDocumentRepository) FindByNumber(ctx context.Context, number string) (*document.Document, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	return r.findOne(r.withGraph(ctx).Where("number = ?", number), number)
}

// FindBySecurityToken finds a document by its verification token
func (r *GormDocumentRepository) FindBySecurityToken(ctx context.Context, token string) (*document.Document, error) {
	if token == "" {
		return nil, shared.NewNotFoundError("document not found")
	}
	return r.findOne(r.withGraph(ctx).Where("security_token = ?", token), "for this token")
}

// FindDerived lists documents whose source is sourceID, oldest first
func (r *GormDocumentRepository) FindDerived(ctx context.Context, sourceID uuid.UUID) ([]document.Document, error) {
	var docModels []models.DocumentModel
	if err := r.withGraph(ctx).
		Where("source_document_id = ?", sourceID).
		Order("created_at ASC").
		Find(&docModels).Error; err != nil {
		return nil, err
	}
	return toDomainDocuments(docModels), nil
}

// FindLatest returns the most recently created document, optionally restricted by type
func (r *GormDocumentRepository) FindLatest(ctx context.Context, docType document.DocumentType) (*document.Document, error) {
	query := r.withGraph(ctx).Order("created_at DESC")
	if docType != "" {
		query = query.Where("type = ?", docType)
	}
	return r.findOne(query, "latest")
}

// NumbersWithPrefix returns every stored number starting with prefix
func (r *GormDocumentRepository) NumbersWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	var numbers []string
	if err := r.db.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Where("number LIKE ?", prefix+"%").
		Pluck("number", &numbers).Error; err != nil {
		return nil, err
	}
	return numbers, nil
}

// NumberExists reports whether a document already carries number
func (r *GormDocumentRepository) NumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Where("number = ?", number).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindAll lists documents with filtering and pagination. Lines are not loaded.
func (r *GormDocumentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]document.Document, error) {
	var docModels []models.DocumentModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.DocumentModel{}), filter)
	if err := query.Find(&docModels).Error; err != nil {
		return nil, err
	}
	return toDomainDocuments(docModels), nil
}

// Count counts documents matching the filter
func (r *GormDocumentRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.DocumentModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a document together with its lines and courtesy copies.
// The line set and the courtesy copies are replaced as a whole. A duplicate number
// is reported as a NumberCollision error.
func (r *GormDocumentRepository) Save(ctx context.Context, doc *document.Document) error {
	model := models.DocumentModelFromDomain(doc)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.DocumentModel{}).Where("id = ?", doc.ID).Count(&existing).Error; err != nil {
			return err
		}

		if existing == 0 {
			if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return shared.NewNumberCollisionError("document number %s is already in use", doc.Number)
				}
				return err
			}
		} else {
			// timestamps come from the aggregate, so hooks are skipped
			if err := tx.Session(&gorm.Session{SkipHooks: true}).
				Model(&models.DocumentModel{}).
				Where("id = ?", doc.ID).
				Select("*").
				Omit(clause.Associations, "id", "created_at", "created_by").
				Updates(model).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("document_id = ?", doc.ID).Delete(&models.LineModel{}).Error; err != nil {
			return err
		}
		if len(doc.Lines) > 0 {
			lines := make([]models.LineModel, len(doc.Lines))
			for i := range doc.Lines {
				lines[i] = *models.LineModelFromDomain(&doc.Lines[i])
				lines[i].DocumentID = doc.ID
			}
			if err := tx.Create(&lines).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("document_id = ?", doc.ID).Delete(&models.DocumentCCModel{}).Error; err != nil {
			return err
		}
		if len(doc.CCContactIDs) > 0 {
			links := make([]models.DocumentCCModel, len(doc.CCContactIDs))
			for i, contactID := range doc.CCContactIDs {
				links[i] = models.DocumentCCModel{DocumentID: doc.ID, ContactID: contactID}
			}
			if err := tx.Create(&links).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a document, its lines and its courtesy copies
func (r *GormDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&models.LineModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("document_id = ?", id).Delete(&models.DocumentCCModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.DocumentModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewNotFoundError("document %s not found", id)
		}
		return nil
	})
}

// SetSecurityToken stores the token without touching the audit timestamp
func (r *GormDocumentRepository) SetSecurityToken(ctx context.Context, id uuid.UUID, token string) error {
	return r.updateColumn(ctx, id, "security_token", token)
}

// SetArtifactPath stores the rendered artifact path without touching the audit timestamp
func (r *GormDocumentRepository) SetArtifactPath(ctx context.Context, id uuid.UUID, path string) error {
	return r.updateColumn(ctx, id, "artifact_path", path)
}

// SetSentAt stores the delivery time without touching the audit timestamp
func (r *GormDocumentRepository) SetSentAt(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	return r.updateColumn(ctx, id, "sent_at", sentAt)
}

// notCancelled drops invoices that a credit note cancels
const notCancelled = "NOT (documents.type = ? AND documents.id IN " +
	"(SELECT cn.source_document_id FROM documents cn WHERE cn.type = ? AND cn.source_document_id IS NOT NULL))"

type typeTotalsRow struct {
	Type  string          `gorm:"column:type"`
	Count int64           `gorm:"column:count"`
	Net   decimal.Decimal `gorm:"column:net"`
	VAT   decimal.Decimal `gorm:"column:vat"`
	Gross decimal.Decimal `gorm:"column:gross"`
}

type clientRevenueRow struct {
	ClientID    uuid.UUID       `gorm:"column:client_id"`
	CompanyName string          `gorm:"column:company_name"`
	Net         decimal.Decimal `gorm:"column:net"`
}

// Stats aggregates amounts per type for documents dated since (all when nil)
func (r *GormDocumentRepository) Stats(ctx context.Context, since *time.Time, topClients int) (*document.Stats, error) {
	scoped := func() *gorm.DB {
		query := r.db.WithContext(ctx).
			Model(&models.DocumentModel{}).
			Where(notCancelled, document.TypeInvoice, document.TypeCreditNote)
		if since != nil {
			query = query.Where("documents.date >= ?", *since)
		}
		return query
	}

	var rows []typeTotalsRow
	if err := scoped().
		Select("documents.type AS type, COUNT(*) AS count, " +
			"COALESCE(SUM(documents.amount_net), 0) AS net, " +
			"COALESCE(SUM(documents.amount_vat), 0) AS vat, " +
			"COALESCE(SUM(documents.amount_gross), 0) AS gross").
		Group("documents.type").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("aggregate document totals: %w", err)
	}
	stats := &document.Stats{
		Since:  since,
		ByType: make(map[document.DocumentType]document.TypeTotals, len(rows)),
	}
	for _, row := range rows {
		stats.ByType[document.DocumentType(row.Type)] = document.TypeTotals{
			Count: row.Count,
			Net:   row.Net,
			VAT:   row.VAT,
			Gross: row.Gross,
		}
	}

	if err := scoped().
		Select("COALESCE(SUM(documents.amount_gross), 0)").
		Where("documents.type = ? AND documents.paid = ?", document.TypeInvoice, true).
		Row().Scan(&stats.InvoicesPaid); err != nil {
		return nil, fmt.Errorf("aggregate paid invoices: %w", err)
	}

	converted := r.db.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Where("documents.type = ?", document.TypeQuote).
		Where("documents.id IN (SELECT inv.source_document_id FROM documents inv WHERE inv.type = ? AND inv.source_document_id IS NOT NULL)",
			document.TypeInvoice)
	if since != nil {
		converted = converted.Where("documents.date >= ?", *since)
	}
	if err := converted.Count(&stats.QuotesConverted).Error; err != nil {
		return nil, fmt.Errorf("count converted quotes: %w", err)
	}

	if topClients > 0 {
		var ranking []clientRevenueRow
		if err := scoped().
			Select("clients.id AS client_id, clients.company_name AS company_name, SUM(documents.amount_net) AS net").
			Joins("JOIN clients ON clients.id = documents.client_id").
			Where("documents.type = ?", document.TypeInvoice).
			Group("clients.id, clients.company_name").
			Order("net DESC, company_name ASC").
			Limit(topClients).
			Scan(&ranking).Error; err != nil {
			return nil, fmt.Errorf("rank clients: %w", err)
		}
		stats.TopClients = make([]document.ClientRevenue, len(ranking))
		for i, row := range ranking {
			stats.TopClients[i] = document.ClientRevenue(row)
		}
	}
	return stats, nil
}

// updateColumn writes one column, skipping hooks and the updated_at bump
func (r *GormDocumentRepository) updateColumn(ctx context.Context, id uuid.UUID, column string, value any) error {
	result := r.db.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Where("id = ?", id).
		UpdateColumn(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("document %s not found", id)
	}
	return nil
}

// applyFilter applies filtering, ordering and pagination
func (r *GormDocumentRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, DocumentSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormDocumentRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := containsPattern(search)
		query = query.Where(
			"LOWER(number) LIKE ?"+likeEscape+
				" OR LOWER(client_reference) LIKE ?"+likeEscape+
				" OR LOWER(site_reference) LIKE ?"+likeEscape+
				" OR client_id IN (SELECT id FROM clients WHERE LOWER(company_name) LIKE ?"+likeEscape+")"+
				" OR supplier_id IN (SELECT id FROM suppliers WHERE LOWER(company_name) LIKE ?"+likeEscape+")",
			pattern, pattern, pattern, pattern, pattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case document.FilterType:
			query = query.Where("type = ?", value)
		case document.FilterPaid:
			query = query.Where("paid = ?", value)
		case document.FilterClientID:
			query = query.Where("client_id = ?", value)
		case document.FilterSupplierID:
			query = query.Where("supplier_id = ?", value)
		case document.FilterSourceID:
			query = query.Where("source_document_id = ?", value)
		}
	}
	return query
}

func toDomainDocuments(docModels []models.DocumentModel) []document.Document {
	docs := make([]document.Document, len(docModels))
	for i := range docModels {
		docs[i] = *docModels[i].ToDomain()
	}
	return docs
}

// Ensure GormDocumentRepository implements DocumentRepository
var _ document.DocumentRepository = (*GormDocumentRepository)(nil)
