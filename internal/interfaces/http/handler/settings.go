package handler

import (
	"context"

	"github.com/bizdocs/backend/internal/application/company"
	"github.com/bizdocs/backend/internal/interfaces/http/middleware"
	"github.com/bizdocs/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// SettingsService reads and replaces the issuing company settings
type SettingsService interface {
	Get(ctx context.Context) (*company.SettingsResponse, error)
	Update(ctx context.Context, req company.SettingsRequest) (*company.SettingsResponse, error)
}

// SettingsHandler handles the company settings endpoints
type SettingsHandler struct {
	BaseHandler
	settings SettingsService
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settings SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Routes builds the /settings route group
func (h *SettingsHandler) Routes(actorMiddleware gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("settings", "/settings")
	group.Use(actorMiddleware)

	group.GET("/company", h.Get)
	group.PUT("/company", h.Update)

	return group
}

// Get returns the company settings printed on every document
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, settings)
}

// Update replaces the company settings. Administrators only.
func (h *SettingsHandler) Update(c *gin.Context) {
	if !middleware.GetActor(c).Admin {
		h.Forbidden(c, "Only administrators can change company settings")
		return
	}
	var req company.SettingsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	settings, err := h.settings.Update(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, settings)
}
