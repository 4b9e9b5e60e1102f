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

// MockClientRepository is a mock implementation of ClientRepository
type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) FindByID(ctx context.Context, id uuid.UUID) (*party.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*party.Client), args.Error(1)
}

func (m *MockClientRepository) FindByEmail(ctx context.Context, email string) (*party.Client, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*party.Client), args.Error(1)
}

func (m *MockClientRepository) SearchByName(ctx context.Context, fragment string, limit int) ([]party.Client, error) {
	args := m.Called(ctx, fragment, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]party.Client), args.Error(1)
}

func (m *MockClientRepository) FindAll(ctx context.Context, filter shared.Filter) ([]party.Client, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]party.Client), args.Error(1)
}

func (m *MockClientRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockClientRepository) Save(ctx context.Context, client *party.Client) error {
	return m.Called(ctx, client).Error(0)
}

func (m *MockClientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockClientRepository) SaveContact(ctx context.Context, contact *party.Contact) error {
	return m.Called(ctx, contact).Error(0)
}

func (m *MockClientRepository) FindContacts(ctx context.Context, clientID uuid.UUID) ([]party.Contact, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]party.Contact), args.Error(1)
}

func (m *MockClientRepository) FindContactsByIDs(ctx context.Context, ids []uuid.UUID) ([]party.Contact, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]party.Contact), args.Error(1)
}

func newTestClient(t *testing.T, name, email string) *party.Client {
	t.Helper()
	client, err := party.NewClient(party.Profile{CompanyName: name, Email: email}, nil)
	require.NoError(t, err)
	return client
}

func TestClientService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a client with a normalized email", func(t *testing.T) {
		repo := new(MockClientRepository)
		svc := NewClientService(repo, nil)

		repo.On("FindByEmail", ctx, "contact@dupont.fr").Return(nil, shared.NewNotFoundError("none"))
		repo.On("Save", ctx, mock.AnythingOfType("*party.Client")).Return(nil)

		resp, err := svc.Create(ctx, nil, ProfileRequest{CompanyName: " Dupont ", Email: "Contact@Dupont.fr"})
		require.NoError(t, err)
		assert.Equal(t, "Dupont", resp.CompanyName)
		assert.Equal(t, "contact@dupont.fr", resp.Email)
		repo.AssertExpectations(t)
	})

	t.Run("refuses a duplicate email", func(t *testing.T) {
		repo := new(MockClientRepository)
		svc := NewClientService(repo, nil)

		repo.On("FindByEmail", ctx, "contact@dupont.fr").Return(newTestClient(t, "Dupont", "contact@dupont.fr"), nil)

		_, err := svc.Create(ctx, nil, ProfileRequest{CompanyName: "Dupont bis", Email: "contact@dupont.fr"})
		assert.ErrorIs(t, err, shared.ErrStateConflict)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("requires a company name", func(t *testing.T) {
		svc := NewClientService(new(MockClientRepository), nil)
		_, err := svc.Create(ctx, nil, ProfileRequest{})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestClientService_Update_KeepsOwnEmail(t *testing.T) {
	ctx := context.Background()
	repo := new(MockClientRepository)
	svc := NewClientService(repo, nil)
	client := newTestClient(t, "Dupont", "contact@dupont.fr")

	repo.On("FindByID", ctx, client.ID).Return(client, nil)
	repo.On("FindByEmail", ctx, "contact@dupont.fr").Return(client, nil)
	repo.On("Save", ctx, client).Return(nil)

	resp, err := svc.Update(ctx, nil, client.ID, ProfileRequest{CompanyName: "Dupont SARL", Email: "contact@dupont.fr", City: "Lyon"})
	require.NoError(t, err)
	assert.Equal(t, "Dupont SARL", resp.CompanyName)
	assert.Equal(t, "Lyon", resp.City)
	assert.Equal(t, 2, resp.Version)
}

func TestClientService_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the best match", func(t *testing.T) {
		repo := new(MockClientRepository)
		svc := NewClientService(repo, nil)
		martin := newTestClient(t, "Martin", "")
		repo.On("SearchByName", ctx, "martin", 1).Return([]party.Client{*martin}, nil)

		client, err := svc.Resolve(ctx, " martin ")
		require.NoError(t, err)
		assert.Equal(t, martin.ID, client.ID)
	})

	t.Run("a miss is not found", func(t *testing.T) {
		repo := new(MockClientRepository)
		svc := NewClientService(repo, nil)
		repo.On("SearchByName", ctx, "inconnu", 1).Return([]party.Client{}, nil)

		_, err := svc.Resolve(ctx, "inconnu")
		assert.ErrorIs(t, err, shared.ErrNotFound)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("an empty name is invalid", func(t *testing.T) {
		svc := NewClientService(new(MockClientRepository), nil)
		_, err := svc.Resolve(ctx, "  ")
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestClientService_Contacts(t *testing.T) {
	ctx := context.Background()
	repo := new(MockClientRepository)
	svc := NewClientService(repo, nil)
	client := newTestClient(t, "Dupont", "")

	repo.On("FindByID", ctx, client.ID).Return(client, nil)
	repo.On("SaveContact", ctx, mock.AnythingOfType("*party.Contact")).Return(nil)

	contact, err := svc.AddContact(ctx, client.ID, CreateContactRequest{Name: "Bob", Email: "BOB@dupont.fr", Role: "Chef de chantier"})
	require.NoError(t, err)
	assert.Equal(t, "bob@dupont.fr", contact.Email)
	assert.Equal(t, client.ID, contact.ClientID)

	t.Run("unknown client", func(t *testing.T) {
		missing := uuid.New()
		repo.On("FindByID", ctx, missing).Return(nil, shared.NewNotFoundError("client not found"))
		_, err := svc.AddContact(ctx, missing, CreateContactRequest{Name: "Bob", Email: "bob@dupont.fr"})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestClientService_List(t *testing.T) {
	ctx := context.Background()
	repo := new(MockClientRepository)
	svc := NewClientService(repo, nil)

	expected := shared.Filter{Page: 1, PageSize: 20, Search: "dup", Filters: map[string]interface{}{"city": "Lyon"}}
	repo.On("FindAll", ctx, expected).Return([]party.Client{*newTestClient(t, "Dupont", "")}, nil)
	repo.On("Count", ctx, expected).Return(int64(1), nil)

	clients, total, err := svc.List(ctx, PartyListFilter{Search: "dup", City: "Lyon"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, clients, 1)
	assert.Equal(t, "Dupont", clients[0].CompanyName)
}
