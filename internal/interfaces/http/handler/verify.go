package handler

import (
	"context"

	appdoc "github.com/bizdocs/backend/internal/application/document"
	"github.com/bizdocs/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// Verifier resolves the public security token printed on a document
type Verifier interface {
	VerifyByToken(ctx context.Context, token string) (*appdoc.VerificationResponse, error)
}

// VerifyHandler serves the unauthenticated verification endpoint
type VerifyHandler struct {
	BaseHandler
	verifier Verifier
}

// NewVerifyHandler creates a new VerifyHandler
func NewVerifyHandler(verifier Verifier) *VerifyHandler {
	return &VerifyHandler{verifier: verifier}
}

// Routes builds the /verify route group. No actor is required; callers pass a rate limiter instead.
func (h *VerifyHandler) Routes(guards ...gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("verify", "/verify")
	group.Use(guards...)

	group.GET("/:token", h.Verify)

	return group
}

// Verify returns the public view of a document. Unknown tokens are a 404.
func (h *VerifyHandler) Verify(c *gin.Context) {
	result, err := h.verifier.VerifyByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
