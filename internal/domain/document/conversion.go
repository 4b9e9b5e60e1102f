package document

import (
	"strings"

	"github.com/bizdocs/backend/internal/domain/shared"
)

// PriorInvoice is an invoice already derived from a quote.
type PriorInvoice struct {
	Invoice       *Document
	HasCreditNote bool
}

// Locked reports whether the invoice must survive a regeneration.
func (p PriorInvoice) Locked() bool {
	return p.Invoice.Paid || p.Invoice.IsSent() || p.HasCreditNote
}

// PlanInvoiceFromQuote checks a quote to invoice conversion and returns the prior
// invoices it replaces.
//
// Converting again is only allowed when the quote changed after the latest invoice
// was issued. Replaced invoices are the unlocked ones; locked invoices are kept.
func PlanInvoiceFromQuote(quote *Document, clientReference string, prior []PriorInvoice) ([]*Document, error) {
	if quote.Type != TypeQuote {
		return nil, shared.NewValidationError("%s is a %s, only quotes convert to invoices", quote.Number, quote.Type)
	}
	ref := strings.TrimSpace(clientReference)
	if ref == "" {
		return nil, shared.NewValidationError("client reference is required to convert %s", quote.Number)
	}
	if err := validateReferences(ref, ""); err != nil {
		return nil, err
	}

	var latest *Document
	for _, p := range prior {
		if latest == nil || p.Invoice.CreatedAt.After(latest.CreatedAt) {
			latest = p.Invoice
		}
	}
	if latest != nil && !quote.UpdatedAt.After(latest.CreatedAt) {
		return nil, shared.NewStateConflictError("%s was already converted to %s and has not changed since", quote.Number, latest.Number)
	}

	obsolete := make([]*Document, 0, len(prior))
	for _, p := range prior {
		if !p.Locked() {
			obsolete = append(obsolete, p.Invoice)
		}
	}
	return obsolete, nil
}

// CheckCreditNote verifies that a credit note may be issued against invoice.
func CheckCreditNote(invoice *Document, derived []Document) error {
	if invoice.Type != TypeInvoice {
		return shared.NewValidationError("%s is a %s, credit notes are issued against invoices", invoice.Number, invoice.Type)
	}
	if invoice.Paid {
		return shared.NewStateConflictError("invoice %s is paid, a credit note cannot be issued", invoice.Number)
	}
	for _, d := range derived {
		if d.Type == TypeCreditNote {
			return shared.NewStateConflictError("invoice %s already has credit note %s", invoice.Number, d.Number)
		}
	}
	return nil
}

// HasCreditNote reports whether any of the derived documents is a credit note.
func HasCreditNote(derived []Document) bool {
	for _, d := range derived {
		if d.Type == TypeCreditNote {
			return true
		}
	}
	return false
}

// ConversionTarget returns the type a document converts to.
func ConversionTarget(t DocumentType) (DocumentType, error) {
	switch t {
	case TypeQuote:
		return TypeInvoice, nil
	case TypeInvoice:
		return TypeCreditNote, nil
	}
	return "", shared.NewValidationError("a %s cannot be converted", t)
}
