package handler

import (
	"context"
	"strconv"

	appparty "github.com/bizdocs/backend/internal/application/party"
	"github.com/bizdocs/backend/internal/interfaces/http/middleware"
	"github.com/bizdocs/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const defaultSearchLimit = 10

// ClientService manages clients and their contacts
type ClientService interface {
	Create(ctx context.Context, actorID *uuid.UUID, req appparty.ProfileRequest) (*appparty.ClientResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*appparty.ClientResponse, error)
	List(ctx context.Context, filter appparty.PartyListFilter) ([]appparty.ClientResponse, int64, error)
	Update(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, req appparty.ProfileRequest) (*appparty.ClientResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, fragment string, limit int) ([]appparty.ClientResponse, error)
	AddContact(ctx context.Context, clientID uuid.UUID, req appparty.CreateContactRequest) (*appparty.ContactResponse, error)
	ListContacts(ctx context.Context, clientID uuid.UUID) ([]appparty.ContactResponse, error)
}

// SupplierService manages the suppliers purchase orders are addressed to
type SupplierService interface {
	Create(ctx context.Context, actorID *uuid.UUID, req appparty.ProfileRequest) (*appparty.SupplierResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*appparty.SupplierResponse, error)
	List(ctx context.Context, filter appparty.PartyListFilter) ([]appparty.SupplierResponse, int64, error)
	Update(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, req appparty.ProfileRequest) (*appparty.SupplierResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, fragment string, limit int) ([]appparty.SupplierResponse, error)
}

// ClientHandler handles client endpoints
type ClientHandler struct {
	BaseHandler
	clients ClientService
}

// NewClientHandler creates a new ClientHandler
func NewClientHandler(clients ClientService) *ClientHandler {
	return &ClientHandler{clients: clients}
}

// Routes builds the /clients route group
func (h *ClientHandler) Routes(actorMiddleware gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("clients", "/clients")
	group.Use(actorMiddleware)

	group.POST("", h.Create)
	group.GET("", h.List)
	group.GET("/search", h.Search)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)

	contacts := group.Group("contacts", "/:id/contacts")
	contacts.GET("", h.ListContacts)
	contacts.POST("", h.AddContact)

	return group
}

// Create creates a client
func (h *ClientHandler) Create(c *gin.Context) {
	var req appparty.ProfileRequest
	if !h.BindJSON(c, &req) {
		return
	}

	client, err := h.clients.Create(c.Request.Context(), middleware.GetActor(c).ID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, client)
}

// Get returns a client with its contacts
func (h *ClientHandler) Get(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	client, err := h.clients.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, client)
}

// List returns a paginated client list
func (h *ClientHandler) List(c *gin.Context) {
	var filter appparty.PartyListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	clients, total, err := h.clients.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, clients, total, filter.Page, filter.PageSize)
}

// Search matches clients by a fragment of their company name
func (h *ClientHandler) Search(c *gin.Context) {
	clients, err := h.clients.Search(c.Request.Context(), c.Query("q"), searchLimit(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, clients)
}

// Update replaces a client's profile
func (h *ClientHandler) Update(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req appparty.ProfileRequest
	if !h.BindJSON(c, &req) {
		return
	}

	client, err := h.clients.Update(c.Request.Context(), middleware.GetActor(c).ID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, client)
}

// Delete removes a client that no document references
func (h *ClientHandler) Delete(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.clients.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListContacts returns the courtesy-copy contacts of a client
func (h *ClientHandler) ListContacts(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	contacts, err := h.clients.ListContacts(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, contacts)
}

// AddContact adds a courtesy-copy contact to a client
func (h *ClientHandler) AddContact(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req appparty.CreateContactRequest
	if !h.BindJSON(c, &req) {
		return
	}

	contact, err := h.clients.AddContact(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, contact)
}

// SupplierHandler handles supplier endpoints
type SupplierHandler struct {
	BaseHandler
	suppliers SupplierService
}

// NewSupplierHandler creates a new SupplierHandler
func NewSupplierHandler(suppliers SupplierService) *SupplierHandler {
	return &SupplierHandler{suppliers: suppliers}
}

// Routes builds the /suppliers route group
func (h *SupplierHandler) Routes(actorMiddleware gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("suppliers", "/suppliers")
	group.Use(actorMiddleware)

	group.POST("", h.Create)
	group.GET("", h.List)
	group.GET("/search", h.Search)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)

	return group
}

// Create creates a supplier
func (h *SupplierHandler) Create(c *gin.Context) {
	var req appparty.ProfileRequest
	if !h.BindJSON(c, &req) {
		return
	}

	supplier, err := h.suppliers.Create(c.Request.Context(), middleware.GetActor(c).ID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, supplier)
}

// Get returns a supplier
func (h *SupplierHandler) Get(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	supplier, err := h.suppliers.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, supplier)
}

// List returns a paginated supplier list
func (h *SupplierHandler) List(c *gin.Context) {
	var filter appparty.PartyListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	suppliers, total, err := h.suppliers.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, suppliers, total, filter.Page, filter.PageSize)
}

// Search matches suppliers by a fragment of their company name
func (h *SupplierHandler) Search(c *gin.Context) {
	suppliers, err := h.suppliers.Search(c.Request.Context(), c.Query("q"), searchLimit(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, suppliers)
}

// Update replaces a supplier's profile
func (h *SupplierHandler) Update(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req appparty.ProfileRequest
	if !h.BindJSON(c, &req) {
		return
	}

	supplier, err := h.suppliers.Update(c.Request.Context(), middleware.GetActor(c).ID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, supplier)
}

// Delete removes a supplier that no purchase order references
func (h *SupplierHandler) Delete(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.suppliers.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func searchLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 || limit > 50 {
		return defaultSearchLimit
	}
	return limit
}
