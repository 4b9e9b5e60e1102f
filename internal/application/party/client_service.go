package party

import (
	"context"
	"errors"
	"strings"

	"github.com/bizdocs/backend/internal/domain/party"
	"github.com/bizdocs/backend/internal/domain/shared"
	"github.com/bizdocs/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultSearchLimit = 10

// ClientService handles client and contact operations
type ClientService struct {
	clientRepo party.ClientRepository
	logger     *zap.Logger
}

// NewClientService creates a new ClientService
func NewClientService(clientRepo party.ClientRepository, log *zap.Logger) *ClientService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ClientService{clientRepo: clientRepo, logger: log}
}

// Create creates a new client. Emails are unique among clients.
func (s *ClientService) Create(ctx context.Context, actorID *uuid.UUID, req ProfileRequest) (*ClientResponse, error) {
	client, err := party.NewClient(req.toProfile(), actorID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, client.Email, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.clientRepo.Save(ctx, client); err != nil {
		return nil, err
	}
	logger.WithLogger(ctx, s.logger).Info("Client created",
		zap.String("client_id", client.ID.String()), zap.String("company_name", client.CompanyName))
	response := ToClientResponse(client)
	return &response, nil
}

// GetByID retrieves a client with its contacts
func (s *ClientService) GetByID(ctx context.Context, id uuid.UUID) (*ClientResponse, error) {
	client, err := s.clientRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToClientResponse(client)
	return &response, nil
}

// List retrieves clients with filtering and pagination
func (s *ClientService) List(ctx context.Context, filter PartyListFilter) ([]ClientResponse, int64, error) {
	domainFilter := toDomainFilter(filter)
	clients, err := s.clientRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.clientRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]ClientResponse, len(clients))
	for i := range clients {
		responses[i] = ToClientResponse(&clients[i])
	}
	return responses, total, nil
}

// Update replaces the client profile
func (s *ClientService) Update(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, req ProfileRequest) (*ClientResponse, error) {
	client, err := s.clientRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := client.Update(req.toProfile(), actorID); err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, client.Email, client.ID); err != nil {
		return nil, err
	}
	if err := s.clientRepo.Save(ctx, client); err != nil {
		return nil, err
	}
	response := ToClientResponse(client)
	return &response, nil
}

// Delete removes a client that no document references
func (s *ClientService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.clientRepo.Delete(ctx, id); err != nil {
		return err
	}
	logger.WithLogger(ctx, s.logger).Info("Client deleted", zap.String("client_id", id.String()))
	return nil
}

// Search returns the clients whose name contains fragment, best matches first
func (s *ClientService) Search(ctx context.Context, fragment string, limit int) ([]ClientResponse, error) {
	if strings.TrimSpace(fragment) == "" {
		return nil, shared.NewValidationError("search text is required")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	clients, err := s.clientRepo.SearchByName(ctx, fragment, limit)
	if err != nil {
		return nil, err
	}
	responses := make([]ClientResponse, len(clients))
	for i := range clients {
		responses[i] = ToClientResponse(&clients[i])
	}
	return responses, nil
}

// Resolve finds the single best client for a free-form name.
// A miss is a NotFound error; clients are never created implicitly.
func (s *ClientService) Resolve(ctx context.Context, name string) (*party.Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("client name is required")
	}
	matches, err := s.clientRepo.SearchByName(ctx, name, 1)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, shared.NewNotFoundError("no client matches %q", name)
	}
	return &matches[0], nil
}

// AddContact attaches a courtesy-copy contact to a client
func (s *ClientService) AddContact(ctx context.Context, clientID uuid.UUID, req CreateContactRequest) (*ContactResponse, error) {
	if _, err := s.clientRepo.FindByID(ctx, clientID); err != nil {
		return nil, err
	}
	contact, err := party.NewContact(clientID, req.Name, req.Email, req.Role)
	if err != nil {
		return nil, err
	}
	if err := s.clientRepo.SaveContact(ctx, contact); err != nil {
		return nil, err
	}
	response := ToContactResponse(contact)
	return &response, nil
}

// ListContacts lists the contacts of a client
func (s *ClientService) ListContacts(ctx context.Context, clientID uuid.UUID) ([]ContactResponse, error) {
	if _, err := s.clientRepo.FindByID(ctx, clientID); err != nil {
		return nil, err
	}
	contacts, err := s.clientRepo.FindContacts(ctx, clientID)
	if err != nil {
		return nil, err
	}
	responses := make([]ContactResponse, len(contacts))
	for i := range contacts {
		responses[i] = ToContactResponse(&contacts[i])
	}
	return responses, nil
}

func (s *ClientService) ensureEmailFree(ctx context.Context, email string, self uuid.UUID) error {
	if email == "" {
		return nil
	}
	existing, err := s.clientRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != self {
		return shared.NewStateConflictError("client %s already uses %s", existing.CompanyName, email)
	}
	return nil
}

func toDomainFilter(filter PartyListFilter) shared.Filter {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.City != "" {
		domainFilter.Filters["city"] = filter.City
	}
	return domainFilter
}
