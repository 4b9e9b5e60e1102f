package handler

import (
	"context"
	"net/http"

	"github.com/bizdocs/backend/internal/application/command"
	"github.com/bizdocs/backend/internal/domain/document"
	"github.com/bizdocs/backend/internal/interfaces/http/middleware"
	"github.com/bizdocs/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// maxSessionIDLength bounds the session key stored in the session store
const maxSessionIDLength = 128

// CommandExecutor runs the structured commands of the conversational agent
type CommandExecutor interface {
	Execute(ctx context.Context, sessionID string, actor document.Actor, cmd command.Command) (*command.Result, error)
	ResetSession(ctx context.Context, sessionID string) error
	Actions() []string
}

// CommandHandler serves the command path of the document API
type CommandHandler struct {
	BaseHandler
	executor CommandExecutor
}

// NewCommandHandler creates a new CommandHandler
func NewCommandHandler(executor CommandExecutor) *CommandHandler {
	return &CommandHandler{executor: executor}
}

// Routes builds the /commands route group
func (h *CommandHandler) Routes(actorMiddleware gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("commands", "/commands")
	group.Use(actorMiddleware)

	group.POST("", h.Execute)
	group.GET("/actions", h.ListActions)
	group.DELETE("/sessions/:session_id", h.ResetSession)

	return group
}

// Execute runs one command. A rejected command is still a 200: the agent reads
// the status and code of the result, not the HTTP status.
func (h *CommandHandler) Execute(c *gin.Context) {
	sessionID := c.GetHeader(middleware.HeaderSessionID)
	if len(sessionID) > maxSessionIDLength {
		h.BadRequest(c, "Session ID is too long")
		return
	}
	var cmd command.Command
	if !h.BindJSON(c, &cmd) {
		return
	}

	result, err := h.executor.Execute(c.Request.Context(), sessionID, middleware.GetActor(c), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListActions returns the actions the executor accepts
func (h *CommandHandler) ListActions(c *gin.Context) {
	h.Success(c, gin.H{"actions": h.executor.Actions()})
}

// ResetSession forgets the context of one conversation
func (h *CommandHandler) ResetSession(c *gin.Context) {
	sessionID := c.Param("session_id")
	if len(sessionID) > maxSessionIDLength {
		h.BadRequest(c, "Session ID is too long")
		return
	}

	if err := h.executor.ResetSession(c.Request.Context(), sessionID); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
