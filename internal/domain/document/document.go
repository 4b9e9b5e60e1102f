package document

import (
	"strings"
	"time"

	"github.com/bizdocs/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeDocument is the aggregate type name carried by document events
const AggregateTypeDocument = "Document"

const (
	maxClientReferenceLength = 30
	maxSiteReferenceLength   = 50
)

// DefaultVATRate applies when neither the caller nor the company settings provide one.
var DefaultVATRate = decimal.NewFromInt(20)

// Document is the aggregate root for quotes, invoices, credit notes and purchase orders.
type Document struct {
	shared.AuditedAggregateRoot
	Type             DocumentType
	Number           string
	Date             time.Time
	VATRate          decimal.Decimal
	ReverseCharge    bool
	Paid             bool
	SentAt           *time.Time
	ClientReference  string
	SiteReference    string
	ClientID         *uuid.UUID
	SupplierID       *uuid.UUID
	SourceDocumentID *uuid.UUID
	SecurityToken    *string
	ArtifactPath     string
	CCContactIDs     []uuid.UUID
	Lines            []Line
	AmountNet        decimal.Decimal
	AmountVAT        decimal.Decimal
	AmountGross      decimal.Decimal
}

var _ shared.AggregateRoot = (*Document)(nil)

// NewDocumentParams holds the values a document starts with
type NewDocumentParams struct {
	Type             DocumentType
	Date             time.Time
	VATRate          decimal.Decimal
	ReverseCharge    bool
	ClientID         *uuid.UUID
	SupplierID       *uuid.UUID
	ClientReference  string
	SiteReference    string
	CCContactIDs     []uuid.UUID
	SourceDocumentID *uuid.UUID
	Actor            Actor
}

// NewDocument creates an empty, unnumbered document.
func NewDocument(p NewDocumentParams) (*Document, error) {
	if !p.Type.IsValid() {
		return nil, shared.NewValidationError("unknown document type %q", p.Type)
	}
	if err := validateParty(p.Type, p.ClientID, p.SupplierID); err != nil {
		return nil, err
	}
	if err := validateVATRate(p.VATRate); err != nil {
		return nil, err
	}
	clientRef := strings.TrimSpace(p.ClientReference)
	siteRef := strings.TrimSpace(p.SiteReference)
	if err := validateReferences(clientRef, siteRef); err != nil {
		return nil, err
	}

	date := p.Date
	if date.IsZero() {
		date = time.Now()
	}

	doc := &Document{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(p.Actor.ID),
		Type:                 p.Type,
		Date:                 truncateToDay(date),
		VATRate:              p.VATRate,
		ReverseCharge:        p.ReverseCharge,
		ClientID:             p.ClientID,
		SupplierID:           p.SupplierID,
		ClientReference:      clientRef,
		SiteReference:        siteRef,
		CCContactIDs:         dedupeIDs(p.CCContactIDs),
		SourceDocumentID:     p.SourceDocumentID,
		Lines:                make([]Line, 0),
	}
	doc.Recalculate()
	return doc, nil
}

// AssignNumber sets the number allocated for this document. A number is never reassigned.
func (d *Document) AssignNumber(number string) error {
	if d.Number != "" {
		return shared.NewStateConflictError("document already numbered %s", d.Number)
	}
	if !ValidNumber(number) || !strings.HasPrefix(number, d.Type.Prefix()+"-") {
		return shared.NewValidationError("number %q does not fit a %s", number, d.Type)
	}
	d.Number = number
	return nil
}

// AddLine appends a priced line and recomputes the totals.
func (d *Document) AddLine(actor Actor, in LineInput) (*Line, error) {
	if err := d.Guard(OpEdit, actor, nil); err != nil {
		return nil, err
	}
	line, err := NewLine(d.ID, d.nextPosition(), in)
	if err != nil {
		return nil, err
	}
	d.Lines = append(d.Lines, *line)
	d.contentChanged(actor)
	return line, nil
}

// RemoveLine drops a line and recomputes the totals.
func (d *Document) RemoveLine(actor Actor, lineID uuid.UUID) error {
	if err := d.Guard(OpEdit, actor, nil); err != nil {
		return err
	}
	for i, l := range d.Lines {
		if l.ID == lineID {
			d.Lines = append(d.Lines[:i], d.Lines[i+1:]...)
			d.renumberLines()
			d.contentChanged(actor)
			return nil
		}
	}
	return shared.NewNotFoundError("line %s not found on %s", lineID, d.Number)
}

// ReplaceLines swaps the whole line set, as a form submission does.
func (d *Document) ReplaceLines(actor Actor, inputs []LineInput) error {
	if err := d.Guard(OpEdit, actor, nil); err != nil {
		return err
	}
	lines := make([]Line, 0, len(inputs))
	for i, in := range inputs {
		line, err := NewLine(d.ID, i+1, in)
		if err != nil {
			return err
		}
		lines = append(lines, *line)
	}
	d.Lines = lines
	d.contentChanged(actor)
	return nil
}

// HeaderUpdate lists editable header fields. Nil fields are left unchanged.
type HeaderUpdate struct {
	VATRate         *decimal.Decimal
	ReverseCharge   *bool
	ClientReference *string
	SiteReference   *string
	ClientID        *uuid.UUID
	SupplierID      *uuid.UUID
	CCContactIDs    *[]uuid.UUID
}

// IsEmpty reports whether the update changes nothing
func (u HeaderUpdate) IsEmpty() bool {
	return u.VATRate == nil && u.ReverseCharge == nil && u.ClientReference == nil &&
		u.SiteReference == nil && u.ClientID == nil && u.SupplierID == nil && u.CCContactIDs == nil
}

// UpdateHeader applies header changes. The number is kept.
func (d *Document) UpdateHeader(actor Actor, u HeaderUpdate) error {
	if u.IsEmpty() {
		return nil
	}
	if err := d.Guard(OpEdit, actor, nil); err != nil {
		return err
	}

	vatRate := d.VATRate
	if u.VATRate != nil {
		vatRate = *u.VATRate
	}
	if err := validateVATRate(vatRate); err != nil {
		return err
	}
	clientRef, siteRef := d.ClientReference, d.SiteReference
	if u.ClientReference != nil {
		clientRef = strings.TrimSpace(*u.ClientReference)
	}
	if u.SiteReference != nil {
		siteRef = strings.TrimSpace(*u.SiteReference)
	}
	if err := validateReferences(clientRef, siteRef); err != nil {
		return err
	}
	clientID, supplierID := d.ClientID, d.SupplierID
	if u.ClientID != nil {
		clientID = u.ClientID
	}
	if u.SupplierID != nil {
		supplierID = u.SupplierID
	}
	if err := validateParty(d.Type, clientID, supplierID); err != nil {
		return err
	}

	d.VATRate = vatRate
	d.ClientReference = clientRef
	d.SiteReference = siteRef
	d.ClientID = clientID
	d.SupplierID = supplierID
	if u.ReverseCharge != nil {
		d.ReverseCharge = *u.ReverseCharge
	}
	if u.CCContactIDs != nil {
		d.CCContactIDs = dedupeIDs(*u.CCContactIDs)
	}
	d.contentChanged(actor)
	return nil
}

// UpdateDate changes the document date. This is the only edit a credit note accepts.
func (d *Document) UpdateDate(actor Actor, date time.Time) error {
	if err := d.Guard(OpEditDate, actor, nil); err != nil {
		return err
	}
	if date.IsZero() {
		return shared.NewValidationError("document date is required")
	}
	d.Date = truncateToDay(date)
	d.contentChanged(actor)
	return nil
}

// SetPaid toggles the payment flag of an invoice.
// An invoice cancelled by a credit note stays unpaid; the request is downgraded
// and a warning is returned instead of an error.
func (d *Document) SetPaid(actor Actor, paid, hasCreditNote bool) (string, error) {
	if d.Type != TypeInvoice {
		return "", shared.NewValidationError("only invoices can be marked paid, %s is a %s", d.Number, d.Type)
	}
	warning := ""
	if paid && hasCreditNote {
		paid = false
		warning = "invoice " + d.Number + " has a credit note and cannot be marked paid"
	}
	if d.Paid == paid {
		return warning, nil
	}
	d.Paid = paid
	// the rendered file prints the payment status
	d.InvalidateArtifact()
	d.touch(actor)
	if paid {
		d.AddDomainEvent(NewInvoicePaidEvent(d))
	}
	return warning, nil
}

// MarkSent records delivery. The content audit timestamp is left untouched.
func (d *Document) MarkSent(at time.Time) {
	d.SentAt = &at
	d.AddDomainEvent(NewDocumentSentEvent(d))
}

// EnsureSecurityToken returns the verification token, creating it on first call.
func (d *Document) EnsureSecurityToken() (string, bool) {
	if d.SecurityToken != nil && *d.SecurityToken != "" {
		return *d.SecurityToken, false
	}
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	d.SecurityToken = &token
	return token, true
}

// InvalidateArtifact forgets the rendered file and returns its previous path.
func (d *Document) InvalidateArtifact() string {
	previous := d.ArtifactPath
	d.ArtifactPath = ""
	return previous
}

// Recalculate refreshes line totals and document amounts.
func (d *Document) Recalculate() {
	items := make([]PricingItem, len(d.Lines))
	for i, l := range d.Lines {
		items[i] = l.pricingItem()
	}
	totals := ComputeTotals(items, d.VATRate, d.ReverseCharge)
	for i := range d.Lines {
		d.Lines[i].LineTotal = totals.Lines[i]
	}
	d.AmountNet = totals.Net
	d.AmountVAT = totals.VAT
	d.AmountGross = totals.Gross
}

// IsSent reports whether the document has been delivered
func (d *Document) IsSent() bool {
	return d.SentAt != nil
}

// DeriveAs builds a new document of the target type from this one.
// Party, VAT settings, references, courtesy copies and lines are copied; lines get new identities.
func (d *Document) DeriveAs(target DocumentType, actor Actor, clientReference string) (*Document, error) {
	derived, err := NewDocument(NewDocumentParams{
		Type:             target,
		VATRate:          d.VATRate,
		ReverseCharge:    d.ReverseCharge,
		ClientID:         d.ClientID,
		SupplierID:       d.SupplierID,
		ClientReference:  clientReference,
		SiteReference:    d.SiteReference,
		CCContactIDs:     d.CCContactIDs,
		SourceDocumentID: &d.ID,
		Actor:            actor,
	})
	if err != nil {
		return nil, err
	}
	for _, l := range d.Lines {
		derived.Lines = append(derived.Lines, l.clone(derived.ID))
	}
	derived.Recalculate()
	return derived, nil
}

func (d *Document) contentChanged(actor Actor) {
	d.Recalculate()
	d.InvalidateArtifact()
	d.touch(actor)
	d.AddDomainEvent(NewDocumentUpdatedEvent(d))
}

func (d *Document) touch(actor Actor) {
	d.Touch(actor.ID)
}

func (d *Document) nextPosition() int {
	return len(d.Lines) + 1
}

func (d *Document) renumberLines() {
	for i := range d.Lines {
		d.Lines[i].Position = i + 1
	}
}

func validateParty(t DocumentType, clientID, supplierID *uuid.UUID) error {
	if t.UsesSupplier() && clientID != nil {
		return shared.NewValidationError("a %s references a supplier, not a client", t)
	}
	if !t.UsesSupplier() && supplierID != nil {
		return shared.NewValidationError("a %s references a client, not a supplier", t)
	}
	return nil
}

// PriceLines validates lines as a document would and prices them without building one.
func PriceLines(inputs []LineInput, vatRate decimal.Decimal, reverseCharge bool) (Totals, error) {
	if err := validateVATRate(vatRate); err != nil {
		return Totals{}, err
	}
	items := make([]PricingItem, len(inputs))
	for i, in := range inputs {
		line, err := NewLine(uuid.Nil, i+1, in)
		if err != nil {
			return Totals{}, err
		}
		items[i] = line.pricingItem()
	}
	return ComputeTotals(items, vatRate, reverseCharge), nil
}

func validateVATRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return shared.NewValidationError("VAT rate must be between 0 and 100")
	}
	return nil
}

func validateReferences(clientRef, siteRef string) error {
	if len(clientRef) > maxClientReferenceLength {
		return shared.NewValidationError("client reference cannot exceed %d characters", maxClientReferenceLength)
	}
	if len(siteRef) > maxSiteReferenceLength {
		return shared.NewValidationError("site reference cannot exceed %d characters", maxSiteReferenceLength)
	}
	return nil
}

func truncateToDay(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, t.Location())
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
