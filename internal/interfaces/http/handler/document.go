package handler

import (
	"context"
	"mime"
	"net/http"
	"strconv"
	"time"

	appdoc "github.com/bizdocs/backend/internal/application/document"
	"github.com/bizdocs/backend/internal/domain/document"
	"github.com/bizdocs/backend/internal/interfaces/http/middleware"
	"github.com/bizdocs/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DocumentService is the document surface behind the form endpoints
type DocumentService interface {
	CreateDocument(ctx context.Context, actor document.Actor, req appdoc.CreateDocumentRequest) (*appdoc.DocumentResponse, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*appdoc.DocumentResponse, error)
	GetDocumentByNumber(ctx context.Context, number string) (*appdoc.DocumentResponse, error)
	ListDocuments(ctx context.Context, filter appdoc.DocumentListFilter) ([]appdoc.DocumentListItemResponse, int64, error)
	ListDerived(ctx context.Context, id uuid.UUID) ([]appdoc.DocumentListItemResponse, error)
	UpdateDocument(ctx context.Context, actor document.Actor, id uuid.UUID, req appdoc.UpdateDocumentRequest) (*appdoc.DocumentResponse, error)
	UpdateDate(ctx context.Context, actor document.Actor, id uuid.UUID, date time.Time) (*appdoc.DocumentResponse, error)
	AddLine(ctx context.Context, actor document.Actor, id uuid.UUID, req appdoc.LineRequest) (*appdoc.DocumentResponse, error)
	RemoveLine(ctx context.Context, actor document.Actor, id, lineID uuid.UUID) (*appdoc.DocumentResponse, error)
	SetPaid(ctx context.Context, actor document.Actor, id uuid.UUID, paid bool) (*appdoc.DocumentResponse, error)
	DeleteDocument(ctx context.Context, actor document.Actor, id uuid.UUID) error
	ConvertQuoteToInvoice(ctx context.Context, actor document.Actor, quoteID uuid.UUID, clientReference string) (*appdoc.DocumentResponse, error)
	CreateCreditNote(ctx context.Context, actor document.Actor, invoiceID uuid.UUID) (*appdoc.DocumentResponse, error)
	RenderDocument(ctx context.Context, id uuid.UUID) (*appdoc.RenderResult, error)
	SendDocument(ctx context.Context, actor document.Actor, id uuid.UUID, req appdoc.SendDocumentRequest) (*appdoc.DocumentResponse, error)
}

// DocumentHandler serves the form path of the document API
type DocumentHandler struct {
	BaseHandler
	documents DocumentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documents DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// Routes builds the /documents route group behind the actor middleware
func (h *DocumentHandler) Routes(actorMiddleware gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("documents", "/documents")
	group.Use(actorMiddleware)

	group.POST("", h.Create)
	group.GET("", h.List)
	group.GET("/by-number/:number", h.GetByNumber)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
	group.PATCH("/:id/date", h.UpdateDate)
	group.PATCH("/:id/paid", h.SetPaid)
	group.POST("/:id/lines", h.AddLine)
	group.DELETE("/:id/lines/:line_id", h.RemoveLine)

	// Conversions
	group.POST("/:id/invoice", h.ConvertToInvoice)
	group.POST("/:id/credit-note", h.CreateCreditNote)
	group.GET("/:id/derived", h.ListDerived)

	// Artifact and delivery
	group.GET("/:id/pdf", h.Download)
	group.POST("/:id/send", h.Send)

	return group
}

// Create creates a document from a form submission
func (h *DocumentHandler) Create(c *gin.Context) {
	var req appdoc.CreateDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.documents.CreateDocument(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}

// Get returns a document with its lines
func (h *DocumentHandler) Get(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	doc, err := h.documents.GetDocument(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// GetByNumber returns a document by its PREFIX-YEAR-NNNN number
func (h *DocumentHandler) GetByNumber(c *gin.Context) {
	doc, err := h.documents.GetDocumentByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// List returns a filtered, paginated document list
func (h *DocumentHandler) List(c *gin.Context) {
	var filter appdoc.DocumentListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	docs, total, err := h.documents.ListDocuments(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, docs, total, filter.Page, filter.PageSize)
}

// ListDerived returns the documents converted from this one
func (h *DocumentHandler) ListDerived(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	docs, err := h.documents.ListDerived(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, docs)
}

// Update applies a form edit; the document number never changes
func (h *DocumentHandler) Update(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req appdoc.UpdateDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.documents.UpdateDocument(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// UpdateDate changes the document date, the one edit a credit note accepts
func (h *DocumentHandler) UpdateDate(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req appdoc.UpdateDateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.documents.UpdateDate(c.Request.Context(), middleware.GetActor(c), id, req.Date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// AddLine appends a priced line
func (h *DocumentHandler) AddLine(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req appdoc.LineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.documents.AddLine(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}

// RemoveLine deletes one line
func (h *DocumentHandler) RemoveLine(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	lineID, ok := h.ParamID(c, "line_id")
	if !ok {
		return
	}

	doc, err := h.documents.RemoveLine(c.Request.Context(), middleware.GetActor(c), id, lineID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// SetPaid toggles the payment flag. When a credit note exists the flag is
// forced off and the response carries a warning instead of an error.
func (h *DocumentHandler) SetPaid(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req appdoc.SetPaidRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.documents.SetPaid(c.Request.Context(), middleware.GetActor(c), id, *req.Paid)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Delete removes a document and its lines
func (h *DocumentHandler) Delete(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.documents.DeleteDocument(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ConvertToInvoice creates the invoice of a quote
func (h *DocumentHandler) ConvertToInvoice(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req appdoc.ConvertToInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.documents.ConvertQuoteToInvoice(c.Request.Context(), middleware.GetActor(c), id, req.ClientReference)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}

// CreateCreditNote cancels an unpaid invoice with a credit note
func (h *DocumentHandler) CreateCreditNote(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	doc, err := h.documents.CreateCreditNote(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}

// Download streams the rendered PDF, inline unless ?download=true
func (h *DocumentHandler) Download(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	rendered, err := h.documents.RenderDocument(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	disposition := "inline"
	if attach, _ := strconv.ParseBool(c.Query("download")); attach {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": rendered.Filename}))
	c.Data(http.StatusOK, rendered.ContentType, rendered.Content)
}

// Send mails the document to its party and courtesy-copy contacts
func (h *DocumentHandler) Send(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req appdoc.SendDocumentRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.documents.SendDocument(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}
