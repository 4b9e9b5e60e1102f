package document

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bizdocs/backend/internal/domain/company"
	"github.com/bizdocs/backend/internal/domain/document"
	"github.com/bizdocs/backend/internal/domain/party"
	"github.com/bizdocs/backend/internal/domain/shared"
	"github.com/bizdocs/backend/internal/infrastructure/logger"
	"github.com/bizdocs/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	defaultMaxAttempts = 5
	pdfContentType     = "application/pdf"
	statsTopClients    = 5
)

// Config holds service settings
type Config struct {
	// MaxAttempts bounds the whole-operation retries on a number collision
	MaxAttempts int
	// PublicBaseURL prefixes the verification link printed on documents
	PublicBaseURL string
}

// Service is the single entry point for document operations. HTTP form handlers
// and the command executor both call it, so pricing, numbering and lifecycle
// rules live in one place.
type Service struct {
	docRepo      document.DocumentRepository
	clientRepo   party.ClientRepository
	supplierRepo party.SupplierRepository
	settingsRepo company.SettingsRepository
	txScope      TransactionScope

	renderer       Renderer
	artifacts      ArtifactStore
	delivery       Delivery
	eventPublisher shared.EventPublisher

	logger *zap.Logger
	config Config
	now    Clock
}

// NewService creates a new document Service
func NewService(
	docRepo document.DocumentRepository,
	clientRepo party.ClientRepository,
	supplierRepo party.SupplierRepository,
	settingsRepo company.SettingsRepository,
	txScope TransactionScope,
	log *zap.Logger,
	cfg Config,
) *Service {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		docRepo:      docRepo,
		clientRepo:   clientRepo,
		supplierRepo: supplierRepo,
		settingsRepo: settingsRepo,
		txScope:      txScope,
		logger:       log,
		config:       cfg,
		now:          time.Now,
	}
}

// SetRenderer sets the artifact renderer
func (s *Service) SetRenderer(r Renderer) {
	s.renderer = r
}

// SetArtifactStore sets the storage for rendered artifacts
func (s *Service) SetArtifactStore(store ArtifactStore) {
	s.artifacts = store
}

// SetDelivery sets the delivery channel
func (s *Service) SetDelivery(d Delivery) {
	s.delivery = d
}

// SetEventPublisher sets the event publisher notified after each commit
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetClock overrides the time source used for numbering years and delivery stamps
func (s *Service) SetClock(now Clock) {
	s.now = now
}

// CreateDocument creates and numbers a new document
func (s *Service) CreateDocument(ctx context.Context, actor document.Actor, req CreateDocumentRequest) (*DocumentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "create", attribute.String("document.type", req.Type))
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	docType, err := document.ParseDocumentType(req.Type)
	if err != nil {
		return nil, err
	}
	vatRate, err := s.vatRateOrDefault(ctx, req.VATRate)
	if err != nil {
		return nil, err
	}
	date := s.now()
	if req.Date != nil {
		date = *req.Date
	}

	var doc *document.Document
	err = s.inTransaction(ctx, "create", func(repos TransactionalRepositories) error {
		doc, err = document.NewDocument(document.NewDocumentParams{
			Type:            docType,
			Date:            date,
			VATRate:         vatRate,
			ReverseCharge:   req.ReverseCharge,
			ClientID:        req.ClientID,
			SupplierID:      req.SupplierID,
			ClientReference: req.ClientReference,
			SiteReference:   req.SiteReference,
			CCContactIDs:    req.CCContactIDs,
			Actor:           actor,
		})
		if err != nil {
			return err
		}
		if err := checkParties(ctx, repos, doc); err != nil {
			return err
		}
		for _, line := range req.Lines {
			if _, err := doc.AddLine(actor, line.toInput()); err != nil {
				return err
			}
		}
		doc.ClearDomainEvents()
		if err := s.allocateNumber(ctx, repos.Documents(), doc); err != nil {
			return err
		}
		doc.AddDomainEvent(document.NewDocumentCreatedEvent(doc))
		return repos.Documents().Save(ctx, doc)
	})
	if err != nil {
		s.logRejection(ctx, "create", err)
		return nil, err
	}

	s.log(ctx).Info("Document created",
		zap.String("number", doc.Number),
		zap.String("type", string(doc.Type)),
		zap.String("amount_gross", doc.AmountGross.StringFixed(document.AmountScale)),
	)
	s.publishEvents(ctx, doc)
	response := ToDocumentResponse(doc)
	return &response, nil
}

// GetDocument retrieves a document by ID
func (s *Service) GetDocument(ctx context.Context, id uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.docRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToDocumentResponse(doc)
	return &response, nil
}

// GetDocumentByNumber retrieves a document by its public number
func (s *Service) GetDocumentByNumber(ctx context.Context, number string) (*DocumentResponse, error) {
	doc, err := s.docRepo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	response := ToDocumentResponse(doc)
	return &response, nil
}

// ListDocuments retrieves documents with filtering and pagination
func (s *Service) ListDocuments(ctx context.Context, filter DocumentListFilter) ([]DocumentListItemResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Type != "" {
		docType, err := document.ParseDocumentType(filter.Type)
		if err != nil {
			return nil, 0, err
		}
		domainFilter.Filters[document.FilterType] = string(docType)
	}
	if filter.Paid != nil {
		domainFilter.Filters[document.FilterPaid] = *filter.Paid
	}
	if filter.ClientID != nil {
		domainFilter.Filters[document.FilterClientID] = *filter.ClientID
	}
	if filter.SupplierID != nil {
		domainFilter.Filters[document.FilterSupplierID] = *filter.SupplierID
	}

	docs, err := s.docRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.docRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToDocumentListItemResponses(docs), total, nil
}

// ListDerived lists the documents generated from a document, oldest first
func (s *Service) ListDerived(ctx context.Context, id uuid.UUID) ([]DocumentListItemResponse, error) {
	if _, err := s.docRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	derived, err := s.docRepo.FindDerived(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToDocumentListItemResponses(derived), nil
}

// PreviewTotals prices lines with the rules of a saved document, storing nothing
func (s *Service) PreviewTotals(ctx context.Context, req PreviewTotalsRequest) (*TotalsResponse, error) {
	vatRate, err := s.vatRateOrDefault(ctx, req.VATRate)
	if err != nil {
		return nil, err
	}
	totals, err := document.PriceLines(toLineInputs(req.Lines), vatRate, req.ReverseCharge)
	if err != nil {
		return nil, err
	}
	return &TotalsResponse{
		LineTotals:    totals.Lines,
		VATRate:       vatRate,
		ReverseCharge: req.ReverseCharge,
		AmountNet:     totals.Net,
		AmountVAT:     totals.VAT,
		AmountGross:   totals.Gross,
	}, nil
}

// Stats summarises documents dated within period: this_month (default), this_year or all
func (s *Service) Stats(ctx context.Context, period string) (*StatsResponse, error) {
	now := s.now()
	var since *time.Time
	switch strings.ToLower(strings.TrimSpace(period)) {
	case "", PeriodThisMonth:
		period = PeriodThisMonth
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		since = &start
	case PeriodThisYear:
		period = PeriodThisYear
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		since = &start
	case PeriodAll:
		period = PeriodAll
	default:
		return nil, shared.NewValidationError("unknown period %q, expected %s, %s or %s",
			period, PeriodThisMonth, PeriodThisYear, PeriodAll)
	}

	stats, err := s.docRepo.Stats(ctx, since, statsTopClients)
	if err != nil {
		return nil, err
	}
	response := ToStatsResponse(period, stats)
	return &response, nil
}

// UpdateDocument applies a form submission: date, header fields and optionally the whole line set.
// The number never changes and any rendered artifact is invalidated.
func (s *Service) UpdateDocument(ctx context.Context, actor document.Actor, id uuid.UUID, req UpdateDocumentRequest) (*DocumentResponse, error) {
	return s.mutate(ctx, "update", id, func(repos TransactionalRepositories, doc *document.Document) error {
		if req.Date != nil {
			if err := doc.UpdateDate(actor, *req.Date); err != nil {
				return err
			}
		}
		header := req.headerUpdate()
		if !header.IsEmpty() {
			if err := doc.UpdateHeader(actor, header); err != nil {
				return err
			}
			if err := checkParties(ctx, repos, doc); err != nil {
				return err
			}
		}
		if req.Lines != nil {
			if err := doc.ReplaceLines(actor, toLineInputs(*req.Lines)); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateDate changes the document date, the only edit a credit note accepts
func (s *Service) UpdateDate(ctx context.Context, actor document.Actor, id uuid.UUID, date time.Time) (*DocumentResponse, error) {
	return s.mutate(ctx, "update_date", id, func(_ TransactionalRepositories, doc *document.Document) error {
		return doc.UpdateDate(actor, date)
	})
}

// AddLine appends a line to a document
func (s *Service) AddLine(ctx context.Context, actor document.Actor, id uuid.UUID, req LineRequest) (*DocumentResponse, error) {
	return s.mutate(ctx, "add_line", id, func(_ TransactionalRepositories, doc *document.Document) error {
		_, err := doc.AddLine(actor, req.toInput())
		return err
	})
}

// RemoveLine removes a line from a document
func (s *Service) RemoveLine(ctx context.Context, actor document.Actor, id, lineID uuid.UUID) (*DocumentResponse, error) {
	return s.mutate(ctx, "remove_line", id, func(_ TransactionalRepositories, doc *document.Document) error {
		return doc.RemoveLine(actor, lineID)
	})
}

// SetPaid toggles the payment flag of an invoice. An invoice with a credit note
// stays unpaid and the response carries a warning.
func (s *Service) SetPaid(ctx context.Context, actor document.Actor, id uuid.UUID, paid bool) (*DocumentResponse, error) {
	var warning string
	response, err := s.mutate(ctx, "set_paid", id, func(repos TransactionalRepositories, doc *document.Document) error {
		derived, err := repos.Documents().FindDerived(ctx, doc.ID)
		if err != nil {
			return err
		}
		warning, err = doc.SetPaid(actor, paid, document.HasCreditNote(derived))
		return err
	})
	if err != nil {
		return nil, err
	}
	if warning != "" {
		s.log(ctx).Warn("Paid flag downgraded", zap.String("number", response.Number), zap.String("reason", warning))
		response.Warnings = append(response.Warnings, warning)
	}
	return response, nil
}

// DeleteDocument removes a document, its lines and its artifact
func (s *Service) DeleteDocument(ctx context.Context, actor document.Actor, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "delete")
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	var doc *document.Document
	err = s.inTransaction(ctx, "delete", func(repos TransactionalRepositories) error {
		doc, err = repos.Documents().FindByID(ctx, id)
		if err != nil {
			return err
		}
		derived, err := repos.Documents().FindDerived(ctx, doc.ID)
		if err != nil {
			return err
		}
		if err := doc.Guard(document.OpDelete, actor, derived); err != nil {
			return err
		}
		return repos.Documents().Delete(ctx, doc.ID)
	})
	if err != nil {
		s.logRejection(ctx, "delete", err)
		return err
	}

	s.log(ctx).Info("Document deleted", zap.String("number", doc.Number))
	s.discardArtifacts(ctx, doc.ArtifactPath)
	s.publish(ctx, document.NewDocumentDeletedEvent(doc, false))
	return nil
}

// ConvertQuoteToInvoice issues an invoice from a quote.
//
// A quote converts again only when it changed after its latest invoice was issued;
// prior invoices that are neither paid, sent nor credited are then deleted together
// with their artifacts.
func (s *Service) ConvertQuoteToInvoice(ctx context.Context, actor document.Actor, quoteID uuid.UUID, clientReference string) (*DocumentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "convert_to_invoice")
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	var (
		quote    *document.Document
		invoice  *document.Document
		obsolete []*document.Document
	)
	err = s.inTransaction(ctx, "convert_to_invoice", func(repos TransactionalRepositories) error {
		quote, err = repos.Documents().FindByID(ctx, quoteID)
		if err != nil {
			return err
		}
		prior, err := priorInvoices(ctx, repos.Documents(), quote.ID)
		if err != nil {
			return err
		}
		obsolete, err = document.PlanInvoiceFromQuote(quote, clientReference, prior)
		if err != nil {
			return err
		}
		for _, old := range obsolete {
			if err := repos.Documents().Delete(ctx, old.ID); err != nil {
				return err
			}
		}

		invoice, err = quote.DeriveAs(document.TypeInvoice, actor, strings.TrimSpace(clientReference))
		if err != nil {
			return err
		}
		if err := s.allocateNumber(ctx, repos.Documents(), invoice); err != nil {
			return err
		}
		return repos.Documents().Save(ctx, invoice)
	})
	if err != nil {
		s.logRejection(ctx, "convert_to_invoice", err)
		return nil, err
	}

	response := ToDocumentResponse(invoice)
	paths := make([]string, 0, len(obsolete))
	for _, old := range obsolete {
		response.ReplacedDocuments = append(response.ReplacedDocuments, old.Number)
		paths = append(paths, old.ArtifactPath)
		s.publish(ctx, document.NewDocumentDeletedEvent(old, true))
	}
	s.discardArtifacts(ctx, paths...)
	s.publish(ctx,
		document.NewDocumentCreatedEvent(invoice),
		document.NewDocumentConvertedEvent(quote, invoice),
	)
	s.log(ctx).Info("Quote converted to invoice",
		zap.String("quote", quote.Number),
		zap.String("invoice", invoice.Number),
		zap.Strings("replaced", response.ReplacedDocuments),
	)
	return &response, nil
}

// CreateCreditNote issues the credit note cancelling an unpaid invoice
func (s *Service) CreateCreditNote(ctx context.Context, actor document.Actor, invoiceID uuid.UUID) (*DocumentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "create_credit_note")
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	var invoice, creditNote *document.Document
	err = s.inTransaction(ctx, "create_credit_note", func(repos TransactionalRepositories) error {
		invoice, err = repos.Documents().FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		derived, err := repos.Documents().FindDerived(ctx, invoice.ID)
		if err != nil {
			return err
		}
		if err := document.CheckCreditNote(invoice, derived); err != nil {
			return err
		}
		creditNote, err = invoice.DeriveAs(document.TypeCreditNote, actor, invoice.ClientReference)
		if err != nil {
			return err
		}
		if err := s.allocateNumber(ctx, repos.Documents(), creditNote); err != nil {
			return err
		}
		return repos.Documents().Save(ctx, creditNote)
	})
	if err != nil {
		s.logRejection(ctx, "create_credit_note", err)
		return nil, err
	}

	s.log(ctx).Info("Credit note issued",
		zap.String("invoice", invoice.Number),
		zap.String("credit_note", creditNote.Number),
	)
	s.publish(ctx,
		document.NewDocumentCreatedEvent(creditNote),
		document.NewDocumentConvertedEvent(invoice, creditNote),
	)
	response := ToDocumentResponse(creditNote)
	return &response, nil
}

// Convert derives the follow-up document of a source: an invoice from a quote,
// a credit note from an invoice. clientReference only applies to quotes.
func (s *Service) Convert(ctx context.Context, actor document.Actor, sourceID uuid.UUID, clientReference string) (*DocumentResponse, error) {
	source, err := s.docRepo.FindByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	target, err := document.ConversionTarget(source.Type)
	if err != nil {
		return nil, err
	}
	if target == document.TypeInvoice {
		return s.ConvertQuoteToInvoice(ctx, actor, sourceID, clientReference)
	}
	return s.CreateCreditNote(ctx, actor, sourceID)
}

// RenderDocument returns the printable artifact of a document, rendering and storing it
// when no current artifact exists. The security token is allocated on first render.
// Neither step changes the audit timestamp.
func (s *Service) RenderDocument(ctx context.Context, id uuid.UUID) (*RenderResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "render")
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	doc, err := s.docRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result, err := s.render(ctx, doc)
	return result, err
}

func (s *Service) render(ctx context.Context, doc *document.Document) (*RenderResult, error) {
	token, created := doc.EnsureSecurityToken()
	if created {
		if err := s.docRepo.SetSecurityToken(ctx, doc.ID, token); err != nil {
			return nil, fmt.Errorf("failed to store security token: %w", err)
		}
	}
	result := &RenderResult{
		Filename:    doc.Number + ".pdf",
		ContentType: pdfContentType,
		VerifyURL:   s.verifyURL(token),
	}

	if doc.ArtifactPath != "" && s.artifacts != nil {
		content, err := s.artifacts.Get(ctx, doc.ArtifactPath)
		if err == nil {
			response := ToDocumentResponse(doc)
			result.Document = &response
			result.Content = content
			return result, nil
		}
		s.log(ctx).Warn("Stored artifact unreadable, rendering again",
			zap.String("number", doc.Number), zap.String("path", doc.ArtifactPath), zap.Error(err))
	}

	if s.renderer == nil {
		return nil, errors.New("document renderer is not configured")
	}
	input, err := s.renderInput(ctx, doc, result.VerifyURL)
	if err != nil {
		return nil, err
	}
	content, err := s.renderer.Render(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", doc.Number, err)
	}

	if s.artifacts != nil {
		key := fmt.Sprintf("%s/%s-v%d.pdf", doc.Type, doc.Number, doc.Version)
		path, err := s.artifacts.Put(ctx, key, content, pdfContentType)
		if err != nil {
			return nil, fmt.Errorf("failed to store artifact of %s: %w", doc.Number, err)
		}
		if err := s.docRepo.SetArtifactPath(ctx, doc.ID, path); err != nil {
			return nil, fmt.Errorf("failed to record artifact of %s: %w", doc.Number, err)
		}
		doc.ArtifactPath = path
	}

	s.log(ctx).Info("Document rendered", zap.String("number", doc.Number), zap.Int("bytes", len(content)))
	response := ToDocumentResponse(doc)
	result.Document = &response
	result.Content = content
	return result, nil
}

// SendDocument renders the document if needed, mails it to the party and its
// courtesy-copy contacts, then records the delivery time.
func (s *Service) SendDocument(ctx context.Context, actor document.Actor, id uuid.UUID, req SendDocumentRequest) (*DocumentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "send")
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	if s.delivery == nil {
		err = errors.New("document delivery is not configured")
		return nil, err
	}
	doc, err := s.docRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	msg, err := s.buildMessage(ctx, doc, req)
	if err != nil {
		return nil, err
	}
	rendered, err := s.render(ctx, doc)
	if err != nil {
		return nil, err
	}
	msg.Attachments = []Attachment{{
		Filename:    rendered.Filename,
		ContentType: rendered.ContentType,
		Content:     rendered.Content,
	}}
	if err = s.delivery.Send(ctx, msg); err != nil {
		err = fmt.Errorf("failed to deliver %s: %w", doc.Number, err)
		return nil, err
	}

	// the first delivery date is kept on later sends
	if !doc.IsSent() {
		sentAt := s.now()
		if err = s.docRepo.SetSentAt(ctx, doc.ID, sentAt); err != nil {
			return nil, err
		}
		doc.MarkSent(sentAt)
	}
	s.log(ctx).Info("Document sent",
		zap.String("number", doc.Number),
		zap.Strings("to", msg.To),
		zap.Int("cc", len(msg.Cc)),
		zap.String("actor", actor.Name),
	)
	s.publishEvents(ctx, doc)
	response := ToDocumentResponse(doc)
	return &response, nil
}

// VerifyByToken returns the public view of the document carrying token
func (s *Service) VerifyByToken(ctx context.Context, token string) (*VerificationResponse, error) {
	doc, err := s.docRepo.FindBySecurityToken(ctx, strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	response := &VerificationResponse{
		Valid:       true,
		Number:      doc.Number,
		Type:        string(doc.Type),
		TypeLabel:   doc.Type.Label(),
		Date:        doc.Date,
		IssuerName:  settings.Name,
		AmountNet:   doc.AmountNet,
		AmountVAT:   doc.AmountVAT,
		AmountGross: doc.AmountGross,
		Paid:        doc.Paid,
		SentAt:      doc.SentAt,
	}
	if name, err := s.partyName(ctx, doc); err == nil {
		response.PartyName = name
	}
	return response, nil
}

// mutate loads a document, applies change and saves it in one transaction
func (s *Service) mutate(
	ctx context.Context,
	operation string,
	id uuid.UUID,
	change func(repos TransactionalRepositories, doc *document.Document) error,
) (*DocumentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", operation)
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	var (
		doc          *document.Document
		previousPath string
	)
	err = s.inTransaction(ctx, operation, func(repos TransactionalRepositories) error {
		doc, err = repos.Documents().FindByID(ctx, id)
		if err != nil {
			return err
		}
		previousPath = doc.ArtifactPath
		if err := change(repos, doc); err != nil {
			return err
		}
		return repos.Documents().Save(ctx, doc)
	})
	if err != nil {
		s.logRejection(ctx, operation, err)
		return nil, err
	}

	if previousPath != "" && doc.ArtifactPath == "" {
		s.discardArtifacts(ctx, previousPath)
	}
	s.log(ctx).Info("Document updated",
		zap.String("operation", operation),
		zap.String("number", doc.Number),
		zap.Int("version", doc.Version),
	)
	s.publishEvents(ctx, doc)
	response := ToDocumentResponse(doc)
	return &response, nil
}

// inTransaction runs fn in a transaction, running it again from scratch when the
// allocated number collides with a concurrent writer.
func (s *Service) inTransaction(ctx context.Context, operation string, fn func(repos TransactionalRepositories) error) error {
	var err error
	for attempt := 1; attempt <= s.config.MaxAttempts; attempt++ {
		err = s.txScope.Execute(ctx, fn)
		if err == nil || !errors.Is(err, shared.ErrNumberCollision) {
			return err
		}
		s.log(ctx).Warn("Document number collision, retrying",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	return shared.NewNumberCollisionError("no document number could be allocated after %d attempts: %v", s.config.MaxAttempts, err)
}

func (s *Service) allocateNumber(ctx context.Context, repo document.DocumentRepository, doc *document.Document) error {
	number, err := document.NextNumber(ctx, repo, doc.Type.Prefix(), s.now().Year())
	if err != nil {
		return err
	}
	return doc.AssignNumber(number)
}

func (s *Service) vatRateOrDefault(ctx context.Context, requested *decimal.Decimal) (decimal.Decimal, error) {
	if requested != nil {
		return *requested, nil
	}
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return settings.VATRateOrDefault(), nil
}

func (s *Service) renderInput(ctx context.Context, doc *document.Document, verifyURL string) (RenderInput, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return RenderInput{}, err
	}
	input := RenderInput{Document: doc, Company: settings, VerifyURL: verifyURL}
	if doc.ClientID != nil {
		if input.Client, err = s.clientRepo.FindByID(ctx, *doc.ClientID); err != nil {
			return RenderInput{}, err
		}
	}
	if doc.SupplierID != nil {
		if input.Supplier, err = s.supplierRepo.FindByID(ctx, *doc.SupplierID); err != nil {
			return RenderInput{}, err
		}
	}
	return input, nil
}

func (s *Service) buildMessage(ctx context.Context, doc *document.Document, req SendDocumentRequest) (Message, error) {
	var to []string
	switch {
	case doc.ClientID != nil:
		client, err := s.clientRepo.FindByID(ctx, *doc.ClientID)
		if err != nil {
			return Message{}, err
		}
		if client.Email != "" {
			to = append(to, client.Email)
		}
	case doc.SupplierID != nil:
		supplier, err := s.supplierRepo.FindByID(ctx, *doc.SupplierID)
		if err != nil {
			return Message{}, err
		}
		if supplier.Email != "" {
			to = append(to, supplier.Email)
		}
	}
	for _, extra := range req.ExtraRecipients {
		if extra = strings.TrimSpace(extra); extra != "" {
			to = append(to, extra)
		}
	}
	if len(to) == 0 {
		return Message{}, shared.NewValidationError("%s has no recipient email address", doc.Number)
	}

	contacts, err := s.clientRepo.FindContactsByIDs(ctx, doc.CCContactIDs)
	if err != nil {
		return Message{}, err
	}
	cc := make([]string, 0, len(contacts))
	for _, c := range contacts {
		cc = append(cc, c.Email)
	}

	subject := req.Subject
	if subject == "" {
		subject = fmt.Sprintf("%s %s", doc.Type.Label(), doc.Number)
	}
	body := req.Body
	if body == "" {
		body = fmt.Sprintf("Veuillez trouver ci-joint %s %s.", strings.ToLower(doc.Type.Label()), doc.Number)
	}
	return Message{To: to, Cc: cc, Subject: subject, Body: body}, nil
}

func (s *Service) partyName(ctx context.Context, doc *document.Document) (string, error) {
	if doc.ClientID != nil {
		client, err := s.clientRepo.FindByID(ctx, *doc.ClientID)
		if err != nil {
			return "", err
		}
		return client.CompanyName, nil
	}
	if doc.SupplierID != nil {
		supplier, err := s.supplierRepo.FindByID(ctx, *doc.SupplierID)
		if err != nil {
			return "", err
		}
		return supplier.CompanyName, nil
	}
	return "", shared.NewNotFoundError("%s has no party", doc.Number)
}

func (s *Service) verifyURL(token string) string {
	return strings.TrimRight(s.config.PublicBaseURL, "/") + "/verify/" + token
}

// discardArtifacts deletes stale artifacts. Failures are logged, the document change stands.
func (s *Service) discardArtifacts(ctx context.Context, paths ...string) {
	if s.artifacts == nil {
		return
	}
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := s.artifacts.Delete(ctx, path); err != nil {
			s.log(ctx).Error("Failed to delete stale artifact", zap.String("path", path), zap.Error(err))
		}
	}
}

func (s *Service) publishEvents(ctx context.Context, doc *document.Document) {
	events := doc.GetDomainEvents()
	doc.ClearDomainEvents()
	s.publish(ctx, events...)
}

func (s *Service) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.log(ctx).Error("Failed to publish document events", zap.Int("count", len(events)), zap.Error(err))
	}
}

func (s *Service) logRejection(ctx context.Context, operation string, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		s.log(ctx).Warn("Document operation rejected",
			zap.String("operation", operation),
			zap.String("code", domainErr.Code),
			zap.String("reason", domainErr.Message),
		)
		return
	}
	s.log(ctx).Error("Document operation failed", zap.String("operation", operation), zap.Error(err))
}

func (s *Service) log(ctx context.Context) *logger.ContextLogger {
	return logger.WithLogger(ctx, s.logger)
}

// priorInvoices lists the invoices derived from a quote with their credit-note status
func priorInvoices(ctx context.Context, repo document.DocumentRepository, quoteID uuid.UUID) ([]document.PriorInvoice, error) {
	derived, err := repo.FindDerived(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	prior := make([]document.PriorInvoice, 0, len(derived))
	for i := range derived {
		if derived[i].Type != document.TypeInvoice {
			continue
		}
		children, err := repo.FindDerived(ctx, derived[i].ID)
		if err != nil {
			return nil, err
		}
		prior = append(prior, document.PriorInvoice{
			Invoice:       &derived[i],
			HasCreditNote: document.HasCreditNote(children),
		})
	}
	return prior, nil
}

// checkParties verifies that the referenced party and courtesy-copy contacts exist
// and that the contacts belong to the document's client.
func checkParties(ctx context.Context, repos TransactionalRepositories, doc *document.Document) error {
	if doc.Type.UsesSupplier() {
		if doc.SupplierID == nil {
			return shared.NewValidationError("a %s requires a supplier", doc.Type)
		}
		if _, err := repos.Suppliers().FindByID(ctx, *doc.SupplierID); err != nil {
			return err
		}
		if len(doc.CCContactIDs) > 0 {
			return shared.NewValidationError("courtesy copies are only sent to client contacts")
		}
		return nil
	}

	if doc.ClientID == nil {
		return shared.NewValidationError("a %s requires a client", doc.Type)
	}
	if _, err := repos.Clients().FindByID(ctx, *doc.ClientID); err != nil {
		return err
	}
	if len(doc.CCContactIDs) == 0 {
		return nil
	}
	contacts, err := repos.Clients().FindContactsByIDs(ctx, doc.CCContactIDs)
	if err != nil {
		return err
	}
	if len(contacts) != len(doc.CCContactIDs) {
		return shared.NewNotFoundError("%d courtesy-copy contact(s) not found", len(doc.CCContactIDs)-len(contacts))
	}
	for _, c := range contacts {
		if c.ClientID != *doc.ClientID {
			return shared.NewValidationError("contact %s does not belong to the document client", c.Name)
		}
	}
	return nil
}
