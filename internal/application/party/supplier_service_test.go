package party

import (
	"context"
	"testing"

	"github.com/bizdocs/backend/internal/domain/party"
	"github.com/bizdocs/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSupplierRepository is a mock implementation of SupplierRepository
type MockSupplierRepository struct {
	mock.Mock
}

func (m *MockSupplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*party.Supplier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*party.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) SearchByName(ctx context.Context, fragment string, limit int) ([]party.Supplier, error) {
	args := m.Called(ctx, fragment, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]party.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) FindAll(ctx context.Context, filter shared.Filter) ([]party.Supplier, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]party.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSupplierRepository) Save(ctx context.Context, supplier *party.Supplier) error {
	return m.Called(ctx, supplier).Error(0)
}

func (m *MockSupplierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func TestSupplierService(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a supplier", func(t *testing.T) {
		repo := new(MockSupplierRepository)
		svc := NewSupplierService(repo, nil)
		repo.On("Save", ctx, mock.AnythingOfType("*party.Supplier")).Return(nil)

		resp, err := svc.Create(ctx, nil, ProfileRequest{CompanyName: "Point P", VATNumber: "fr 12 345"})
		require.NoError(t, err)
		assert.Equal(t, "Point P", resp.CompanyName)
		assert.Equal(t, "FR12345", resp.VATNumber)
	})

	t.Run("search requires text", func(t *testing.T) {
		svc := NewSupplierService(new(MockSupplierRepository), nil)
		_, err := svc.Search(ctx, " ", 0)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("search uses the default limit", func(t *testing.T) {
		repo := new(MockSupplierRepository)
		svc := NewSupplierService(repo, nil)
		repo.On("SearchByName", ctx, "point", defaultSearchLimit).Return([]party.Supplier{}, nil)

		results, err := svc.Search(ctx, "point", 0)
		require.NoError(t, err)
		assert.Empty(t, results)
		repo.AssertExpectations(t)
	})

	t.Run("delete surfaces the reference conflict", func(t *testing.T) {
		repo := new(MockSupplierRepository)
		svc := NewSupplierService(repo, nil)
		id := uuid.New()
		repo.On("Delete", ctx, id).Return(shared.NewStateConflictError("supplier referenced"))

		assert.ErrorIs(t, svc.Delete(ctx, id), shared.ErrStateConflict)
	})
}
