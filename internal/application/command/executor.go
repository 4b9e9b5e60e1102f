package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	appdoc "github.com/bizdocs/backend/internal/application/document"
	"github.com/bizdocs/backend/internal/domain/document"
	"github.com/bizdocs/backend/internal/domain/party"
	"github.com/bizdocs/backend/internal/domain/shared"
	"github.com/bizdocs/backend/internal/infrastructure/logger"
	"github.com/bizdocs/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultSessionTTL = 30 * time.Minute
	// defaultClientReference is used when converting a quote that carries no client reference
	defaultClientReference = "REF-CHRONO"
)

// DocumentService is the document surface the executor drives. It is the same service the
// HTTP forms call, so pricing, numbering and transitions are never reimplemented here.
type DocumentService interface {
	CreateDocument(ctx context.Context, actor document.Actor, req appdoc.CreateDocumentRequest) (*appdoc.DocumentResponse, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*appdoc.DocumentResponse, error)
	GetDocumentByNumber(ctx context.Context, number string) (*appdoc.DocumentResponse, error)
	AddLine(ctx context.Context, actor document.Actor, id uuid.UUID, req appdoc.LineRequest) (*appdoc.DocumentResponse, error)
	Convert(ctx context.Context, actor document.Actor, sourceID uuid.UUID, clientReference string) (*appdoc.DocumentResponse, error)
	DeleteDocument(ctx context.Context, actor document.Actor, id uuid.UUID) error
	ListDocuments(ctx context.Context, filter appdoc.DocumentListFilter) ([]appdoc.DocumentListItemResponse, int64, error)
	SendDocument(ctx context.Context, actor document.Actor, id uuid.UUID, req appdoc.SendDocumentRequest) (*appdoc.DocumentResponse, error)
}

// ClientResolver finds a client by a free-form name
type ClientResolver interface {
	Resolve(ctx context.Context, name string) (*party.Client, error)
}

// Config configures the executor
type Config struct {
	SessionTTL time.Duration
}

// Executor runs agent commands against the document service
type Executor struct {
	docs     DocumentService
	clients  ClientResolver
	sessions SessionStore
	handlers map[string]Handler
	logger   *zap.Logger
	config   Config
}

// NewExecutor creates an executor with the core actions registered
func NewExecutor(docs DocumentService, clients ClientResolver, sessions SessionStore, log *zap.Logger, cfg Config) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	e := &Executor{
		docs:     docs,
		clients:  clients,
		sessions: sessions,
		handlers: make(map[string]Handler),
		logger:   log,
		config:   cfg,
	}
	e.Register(ActionCreateDocument, e.createDocument)
	e.Register(ActionAddLine, e.addLine)
	e.Register(ActionConvertDocument, e.convertDocument)
	e.Register(ActionDeleteDocument, e.deleteDocument)
	e.Register(ActionReset, e.reset)
	return e
}

// Register adds or replaces the handler of an action
func (e *Executor) Register(action string, h Handler) {
	e.handlers[action] = h
}

// Actions lists the registered action names
func (e *Executor) Actions() []string {
	actions := make([]string, 0, len(e.handlers))
	for name := range e.handlers {
		actions = append(actions, name)
	}
	return actions
}

// Execute runs one command within a session. Domain failures come back as error results;
// the returned error is reserved for infrastructure failures.
func (e *Executor) Execute(ctx context.Context, sessionID string, actor document.Actor, cmd Command) (*Result, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "command", cmd.Action)
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	if sessionID != "" {
		ctx = logger.WithSessionID(ctx, sessionID)
	}
	log := logger.WithLogger(ctx, e.logger)

	handler, ok := e.handlers[cmd.Action]
	if !ok {
		return errorResult(shared.NewValidationError("unknown action %q", cmd.Action)), nil
	}

	session := &Session{}
	if sessionID != "" {
		session, err = e.sessions.Load(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("load command session: %w", err)
		}
	}

	call := &Call{Actor: actor, Data: cmd.Data, Session: session}
	result, herr := handler(ctx, call)
	if herr != nil {
		var domainErr *shared.DomainError
		if errors.As(herr, &domainErr) {
			log.Warn("Command rejected",
				zap.String("action", cmd.Action), zap.String("code", domainErr.Code), zap.String("reason", domainErr.Message))
			return errorResult(domainErr), nil
		}
		err = herr
		log.Error("Command failed", zap.String("action", cmd.Action), zap.Error(herr))
		return nil, herr
	}

	if sessionID != "" {
		if err = e.sessions.Save(ctx, sessionID, call.Session, e.config.SessionTTL); err != nil {
			return nil, fmt.Errorf("save command session: %w", err)
		}
	}
	log.Info("Command executed", zap.String("action", cmd.Action))
	return result, nil
}

func errorResult(err *shared.DomainError) *Result {
	return &Result{Status: StatusError, Code: err.Code, Message: err.Message}
}

func (e *Executor) createDocument(ctx context.Context, call *Call) (*Result, error) {
	var data createDocumentData
	if err := decode(call.Data, &data); err != nil {
		return nil, err
	}
	docType, err := document.ParseDocumentType(data.Type)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(data.Date)
	if err != nil {
		return nil, err
	}

	req := appdoc.CreateDocumentRequest{
		Type:            string(docType),
		Date:            date,
		VATRate:         data.VATRate,
		ReverseCharge:   data.ReverseCharge,
		SupplierID:      data.SupplierID,
		ClientReference: data.ClientReference,
		SiteReference:   data.SiteReference,
		Lines:           make([]appdoc.LineRequest, len(data.Lines)),
	}
	for i, l := range data.Lines {
		req.Lines[i] = l.toRequest()
	}
	if !docType.UsesSupplier() {
		clientID, err := resolveClient(ctx, e.clients, call.Session, data.ClientID, data.ClientName)
		if err != nil {
			return nil, err
		}
		req.ClientID = &clientID
	}

	doc, err := e.docs.CreateDocument(ctx, call.Actor, req)
	if err != nil {
		return nil, err
	}
	call.Session.touchDocument(doc.ID, doc.Number, doc.ClientID)
	return success(fmt.Sprintf("%s %s créé.", doc.TypeLabel, doc.Number), documentData(doc)), nil
}

func (e *Executor) addLine(ctx context.Context, call *Call) (*Result, error) {
	var data addLineData
	if err := decode(call.Data, &data); err != nil {
		return nil, err
	}
	target, err := resolveDocument(ctx, e.docs, call.Session, data.DocumentNumber)
	if err != nil {
		return nil, err
	}
	doc, err := e.docs.AddLine(ctx, call.Actor, target.ID, data.lineData.toRequest())
	if err != nil {
		return nil, err
	}
	call.Session.touchDocument(doc.ID, doc.Number, doc.ClientID)
	return success(fmt.Sprintf("Ligne ajoutée à %s.", doc.Number), documentData(doc)), nil
}

func (e *Executor) convertDocument(ctx context.Context, call *Call) (*Result, error) {
	var data convertDocumentData
	if err := decode(call.Data, &data); err != nil {
		return nil, err
	}
	source, err := resolveDocument(ctx, e.docs, call.Session, data.number())
	if err != nil {
		return nil, err
	}

	clientReference := source.ClientReference
	if data.ClientReference != nil {
		clientReference = *data.ClientReference
	}
	if clientReference == "" {
		clientReference = defaultClientReference
	}

	converted, err := e.docs.Convert(ctx, call.Actor, source.ID, clientReference)
	if err != nil {
		return nil, err
	}
	call.Session.touchDocument(converted.ID, converted.Number, converted.ClientID)

	result := documentData(converted)
	result["source_number"] = source.Number
	if len(converted.ReplacedDocuments) > 0 {
		result["replaced_documents"] = converted.ReplacedDocuments
	}
	return success(fmt.Sprintf("%s %s converti en %s %s.",
		source.TypeLabel, source.Number, converted.TypeLabel, converted.Number), result), nil
}

func (e *Executor) deleteDocument(ctx context.Context, call *Call) (*Result, error) {
	var data documentRefData
	if err := decode(call.Data, &data); err != nil {
		return nil, err
	}
	target, err := resolveDocument(ctx, e.docs, call.Session, data.DocumentNumber)
	if err != nil {
		return nil, err
	}
	if err := e.docs.DeleteDocument(ctx, call.Actor, target.ID); err != nil {
		return nil, err
	}
	call.Session.forgetDocument(target.ID)
	return success(fmt.Sprintf("%s %s supprimé.", target.TypeLabel, target.Number),
		map[string]any{"document_number": target.Number}), nil
}

func (e *Executor) reset(ctx context.Context, call *Call) (*Result, error) {
	*call.Session = Session{}
	return success("Contexte réinitialisé.", nil), nil
}

// ResetSession clears the session of a conversation
func (e *Executor) ResetSession(ctx context.Context, sessionID string) error {
	return e.sessions.Clear(ctx, sessionID)
}

// resolveClient picks the client by id, then by fuzzy name, then from the session.
// A name that matches nothing is an error; no client is ever created here.
func resolveClient(ctx context.Context, clients ClientResolver, session *Session, id *uuid.UUID, name string) (uuid.UUID, error) {
	if id != nil && *id != uuid.Nil {
		return *id, nil
	}
	if name != "" {
		client, err := clients.Resolve(ctx, name)
		if err != nil {
			return uuid.Nil, err
		}
		session.LastClientID = &client.ID
		return client.ID, nil
	}
	if session.LastClientID != nil {
		return *session.LastClientID, nil
	}
	return uuid.Nil, shared.NewValidationError("a client is required: give client_id or client_name")
}

// resolveDocument picks the document by public number, then the last document of the session
func resolveDocument(ctx context.Context, docs DocumentService, session *Session, number string) (*appdoc.DocumentResponse, error) {
	if number != "" {
		return docs.GetDocumentByNumber(ctx, number)
	}
	if session.LastDocumentID != nil {
		return docs.GetDocument(ctx, *session.LastDocumentID)
	}
	return nil, shared.NewValidationError("a document number is required")
}

func (l lineData) toRequest() appdoc.LineRequest {
	return appdoc.LineRequest{
		Designation: l.Designation,
		Category:    l.Category,
		Quantity:    l.Quantity,
		UnitPrice:   l.UnitPrice,
	}
}

func documentData(doc *appdoc.DocumentResponse) map[string]any {
	data := map[string]any{
		"id":              doc.ID,
		"document_number": doc.Number,
		"type":            doc.Type,
		"amount_net":      doc.AmountNet,
		"amount_vat":      doc.AmountVAT,
		"amount_gross":    doc.AmountGross,
	}
	if len(doc.Warnings) > 0 {
		data["warnings"] = doc.Warnings
	}
	return data
}
