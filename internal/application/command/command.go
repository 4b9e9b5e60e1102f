package command

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bizdocs/backend/internal/domain/document"
	"github.com/google/uuid"
)

// Core actions handled by the executor itself
const (
	ActionCreateDocument  = "create_document"
	ActionAddLine         = "add_line"
	ActionConvertDocument = "convert_document"
	ActionDeleteDocument  = "delete_document"
	ActionReset           = "reset"
)

// Delegated actions registered by the caller
const (
	ActionCreateClient    = "create_client"
	ActionListClients     = "list_clients"
	ActionAddContact      = "add_contact"
	ActionCreateSupplier  = "create_supplier"
	ActionListSuppliers   = "list_suppliers"
	ActionListDocuments   = "list_documents"
	ActionSendEmail       = "send_email"
	ActionCalculateTotals = "calculate_totals"
	ActionGetStats        = "get_stats"
	ActionRecentActivity  = "get_recent_activity"
)

// Result statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Command is one instruction from the conversational agent
type Command struct {
	Action string          `json:"action" binding:"required"`
	Data   json.RawMessage `json:"data"`
}

// Result is what the agent receives back. Failures carry the error code of the domain error.
type Result struct {
	Status  string         `json:"status"`
	Code    string         `json:"code,omitempty"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func success(message string, data map[string]any) *Result {
	return &Result{Status: StatusSuccess, Message: message, Data: data}
}

// Session is the short-lived context carried across the commands of one conversation
type Session struct {
	LastClientID       *uuid.UUID `json:"last_client_id,omitempty"`
	LastDocumentID     *uuid.UUID `json:"last_document_id,omitempty"`
	LastDocumentNumber string     `json:"last_document_number,omitempty"`
}

// touchDocument makes doc the "current" document of the session
func (s *Session) touchDocument(id uuid.UUID, number string, clientID *uuid.UUID) {
	s.LastDocumentID = &id
	s.LastDocumentNumber = number
	if clientID != nil {
		s.LastClientID = clientID
	}
}

func (s *Session) forgetDocument(id uuid.UUID) {
	if s.LastDocumentID != nil && *s.LastDocumentID == id {
		s.LastDocumentID = nil
		s.LastDocumentNumber = ""
	}
}

// SessionStore keeps sessions between commands. Load returns an empty session for unknown ids.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (*Session, error)
	Save(ctx context.Context, sessionID string, session *Session, ttl time.Duration) error
	Clear(ctx context.Context, sessionID string) error
}

// Call is the input of an action handler. Handlers may update Session; the executor persists it.
type Call struct {
	Actor   document.Actor
	Data    json.RawMessage
	Session *Session
}

// Handler executes one action
type Handler func(ctx context.Context, call *Call) (*Result, error)
