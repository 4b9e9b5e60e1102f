package party

import (
	"context"
	"strings"

	"github.com/bizdocs/backend/internal/domain/party"
	"github.com/bizdocs/backend/internal/domain/shared"
	"github.com/bizdocs/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SupplierService handles supplier operations
type SupplierService struct {
	supplierRepo party.SupplierRepository
	logger       *zap.Logger
}

// NewSupplierService creates a new SupplierService
func NewSupplierService(supplierRepo party.SupplierRepository, log *zap.Logger) *SupplierService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SupplierService{supplierRepo: supplierRepo, logger: log}
}

// Create creates a new supplier
func (s *SupplierService) Create(ctx context.Context, actorID *uuid.UUID, req ProfileRequest) (*SupplierResponse, error) {
	supplier, err := party.NewSupplier(req.toProfile(), actorID)
	if err != nil {
		return nil, err
	}
	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		return nil, err
	}
	logger.WithLogger(ctx, s.logger).Info("Supplier created",
		zap.String("supplier_id", supplier.ID.String()), zap.String("company_name", supplier.CompanyName))
	response := ToSupplierResponse(supplier)
	return &response, nil
}

// GetByID retrieves a supplier
func (s *SupplierService) GetByID(ctx context.Context, id uuid.UUID) (*SupplierResponse, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToSupplierResponse(supplier)
	return &response, nil
}

// List retrieves suppliers with filtering and pagination
func (s *SupplierService) List(ctx context.Context, filter PartyListFilter) ([]SupplierResponse, int64, error) {
	domainFilter := toDomainFilter(filter)
	suppliers, err := s.supplierRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.supplierRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]SupplierResponse, len(suppliers))
	for i := range suppliers {
		responses[i] = ToSupplierResponse(&suppliers[i])
	}
	return responses, total, nil
}

// Update replaces the supplier profile
func (s *SupplierService) Update(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, req ProfileRequest) (*SupplierResponse, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := supplier.Update(req.toProfile(), actorID); err != nil {
		return nil, err
	}
	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		return nil, err
	}
	response := ToSupplierResponse(supplier)
	return &response, nil
}

// Delete removes a supplier no purchase order references
func (s *SupplierService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.supplierRepo.Delete(ctx, id)
}

// Search returns the suppliers whose name contains fragment, best matches first
func (s *SupplierService) Search(ctx context.Context, fragment string, limit int) ([]SupplierResponse, error) {
	if strings.TrimSpace(fragment) == "" {
		return nil, shared.NewValidationError("search text is required")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	suppliers, err := s.supplierRepo.SearchByName(ctx, fragment, limit)
	if err != nil {
		return nil, err
	}
	responses := make([]SupplierResponse, len(suppliers))
	for i := range suppliers {
		responses[i] = ToSupplierResponse(&suppliers[i])
	}
	return responses, nil
}
