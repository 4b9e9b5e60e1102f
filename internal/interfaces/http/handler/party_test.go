package handler

import (
	"context"
	"net/http"
	"testing"

	appparty "github.com/bizdocs/backend/internal/application/party"
	"github.com/bizdocs/backend/internal/domain/shared"
	"github.com/bizdocs/backend/internal/interfaces/http/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClientService implements ClientService for testing
type MockClientService struct {
	mock.Mock
}

func (m *MockClientService) Create(ctx context.Context, actorID *uuid.UUID, req appparty.ProfileRequest) (*appparty.ClientResponse, error) {
	args := m.Called(ctx, actorID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appparty.ClientResponse), args.Error(1)
}

func (m *MockClientService) GetByID(ctx context.Context, id uuid.UUID) (*appparty.ClientResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appparty.ClientResponse), args.Error(1)
}

func (m *MockClientService) List(ctx context.Context, filter appparty.PartyListFilter) ([]appparty.ClientResponse, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]appparty.ClientResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockClientService) Update(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, req appparty.ProfileRequest) (*appparty.ClientResponse, error) {
	args := m.Called(ctx, actorID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appparty.ClientResponse), args.Error(1)
}

func (m *MockClientService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockClientService) Search(ctx context.Context, fragment string, limit int) ([]appparty.ClientResponse, error) {
	args := m.Called(ctx, fragment, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appparty.ClientResponse), args.Error(1)
}

func (m *MockClientService) AddContact(ctx context.Context, clientID uuid.UUID, req appparty.CreateContactRequest) (*appparty.ContactResponse, error) {
	args := m.Called(ctx, clientID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appparty.ContactResponse), args.Error(1)
}

func (m *MockClientService) ListContacts(ctx context.Context, clientID uuid.UUID) ([]appparty.ContactResponse, error) {
	args := m.Called(ctx, clientID)
	return args.Get(0).([]appparty.ContactResponse), args.Error(1)
}

// MockSupplierService implements SupplierService for testing
type MockSupplierService struct {
	mock.Mock
}

func (m *MockSupplierService) Create(ctx context.Context, actorID *uuid.UUID, req appparty.ProfileRequest) (*appparty.SupplierResponse, error) {
	args := m.Called(ctx, actorID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appparty.SupplierResponse), args.Error(1)
}

func (m *MockSupplierService) GetByID(ctx context.Context, id uuid.UUID) (*appparty.SupplierResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appparty.SupplierResponse), args.Error(1)
}

func (m *MockSupplierService) List(ctx context.Context, filter appparty.PartyListFilter) ([]appparty.SupplierResponse, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]appparty.SupplierResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockSupplierService) Update(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, req appparty.ProfileRequest) (*appparty.SupplierResponse, error) {
	args := m.Called(ctx, actorID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appparty.SupplierResponse), args.Error(1)
}

func (m *MockSupplierService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSupplierService) Search(ctx context.Context, fragment string, limit int) ([]appparty.SupplierResponse, error) {
	args := m.Called(ctx, fragment, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appparty.SupplierResponse), args.Error(1)
}

func TestClientHandler_CreateAndGet(t *testing.T) {
	svc := new(MockClientService)
	engine := mount(NewClientHandler(svc).Routes(withActor(testActor)))
	client := &appparty.ClientResponse{ID: uuid.New()}
	req := appparty.ProfileRequest{CompanyName: "Dupont Rénovation", Email: "contact@dupont.fr", City: "Lyon"}

	svc.On("Create", mock.Anything, testActor.ID, req).Return(client, nil)
	svc.On("GetByID", mock.Anything, client.ID).Return(client, nil)

	w := perform(engine, http.MethodPost, "/api/v1/clients", req)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = perform(engine, http.MethodGet, "/api/v1/clients/"+client.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(engine, http.MethodPost, "/api/v1/clients", appparty.ProfileRequest{CompanyName: "X", Email: "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	require.NotEmpty(t, env.Error.Details)
	assert.Equal(t, "email", env.Error.Details[0].Field)
	svc.AssertExpectations(t)
}

func TestClientHandler_ListAndSearch(t *testing.T) {
	svc := new(MockClientService)
	engine := mount(NewClientHandler(svc).Routes(withActor(testActor)))

	svc.On("List", mock.Anything, appparty.PartyListFilter{City: "Lyon", Page: 1, PageSize: 5}).
		Return([]appparty.ClientResponse{{ID: uuid.New()}}, int64(1), nil)
	svc.On("Search", mock.Anything, "dup", defaultSearchLimit).Return([]appparty.ClientResponse{{ID: uuid.New()}}, nil)
	svc.On("Search", mock.Anything, "", defaultSearchLimit).Return(nil, shared.NewValidationError("search text is required"))

	w := perform(engine, http.MethodGet, "/api/v1/clients?city=Lyon&page=1&page_size=5", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), decode(t, w).Meta.Total)

	// out-of-range limits fall back to the default
	w = perform(engine, http.MethodGet, "/api/v1/clients/search?q=dup&limit=500", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(engine, http.MethodGet, "/api/v1/clients/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, decode(t, w).Error.Code)
	svc.AssertExpectations(t)
}

func TestClientHandler_UpdateAndDelete(t *testing.T) {
	svc := new(MockClientService)
	engine := mount(NewClientHandler(svc).Routes(withActor(testActor)))
	id := uuid.New()
	referenced := uuid.New()
	req := appparty.ProfileRequest{CompanyName: "Dupont SARL"}

	svc.On("Update", mock.Anything, testActor.ID, id, req).Return(&appparty.ClientResponse{ID: id}, nil)
	svc.On("Delete", mock.Anything, id).Return(nil)
	svc.On("Delete", mock.Anything, referenced).Return(shared.NewStateConflictError("client is referenced by 3 documents"))

	w := perform(engine, http.MethodPut, "/api/v1/clients/"+id.String(), req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(engine, http.MethodDelete, "/api/v1/clients/"+id.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = perform(engine, http.MethodDelete, "/api/v1/clients/"+referenced.String(), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestClientHandler_Contacts(t *testing.T) {
	svc := new(MockClientService)
	engine := mount(NewClientHandler(svc).Routes(withActor(testActor)))
	clientID := uuid.New()
	req := appparty.CreateContactRequest{Name: "Paul Girard", Email: "paul@dupont.fr", Role: "comptable"}

	svc.On("AddContact", mock.Anything, clientID, req).Return(&appparty.ContactResponse{ID: uuid.New()}, nil)
	svc.On("ListContacts", mock.Anything, clientID).Return([]appparty.ContactResponse{{ID: uuid.New()}}, nil)

	w := perform(engine, http.MethodPost, "/api/v1/clients/"+clientID.String()+"/contacts", req)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = perform(engine, http.MethodGet, "/api/v1/clients/"+clientID.String()+"/contacts", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var contacts []appparty.ContactResponse
	decodeData(t, w, &contacts)
	assert.Len(t, contacts, 1)

	w = perform(engine, http.MethodPost, "/api/v1/clients/"+clientID.String()+"/contacts", appparty.CreateContactRequest{Name: "Sans mail"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertExpectations(t)
}

func TestSupplierHandler(t *testing.T) {
	svc := new(MockSupplierService)
	engine := mount(NewSupplierHandler(svc).Routes(withActor(testActor)))
	supplier := &appparty.SupplierResponse{ID: uuid.New()}
	req := appparty.ProfileRequest{CompanyName: "Matériaux du Rhône"}

	svc.On("Create", mock.Anything, testActor.ID, req).Return(supplier, nil)
	svc.On("GetByID", mock.Anything, supplier.ID).Return(nil, shared.NewNotFoundError("supplier not found"))
	svc.On("List", mock.Anything, appparty.PartyListFilter{}).Return([]appparty.SupplierResponse{*supplier}, int64(1), nil)
	svc.On("Search", mock.Anything, "rh", 3).Return([]appparty.SupplierResponse{*supplier}, nil)
	svc.On("Update", mock.Anything, testActor.ID, supplier.ID, req).Return(supplier, nil)
	svc.On("Delete", mock.Anything, supplier.ID).Return(nil)

	assert.Equal(t, http.StatusCreated, perform(engine, http.MethodPost, "/api/v1/suppliers", req).Code)
	assert.Equal(t, http.StatusNotFound, perform(engine, http.MethodGet, "/api/v1/suppliers/"+supplier.ID.String(), nil).Code)
	assert.Equal(t, http.StatusOK, perform(engine, http.MethodGet, "/api/v1/suppliers", nil).Code)
	assert.Equal(t, http.StatusOK, perform(engine, http.MethodGet, "/api/v1/suppliers/search?q=rh&limit=3", nil).Code)
	assert.Equal(t, http.StatusOK, perform(engine, http.MethodPut, "/api/v1/suppliers/"+supplier.ID.String(), req).Code)
	assert.Equal(t, http.StatusNoContent, perform(engine, http.MethodDelete, "/api/v1/suppliers/"+supplier.ID.String(), nil).Code)
	svc.AssertExpectations(t)
}
