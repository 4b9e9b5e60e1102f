package document

import (
	"strings"

	"github.com/bizdocs/backend/internal/domain/shared"
)

// DocumentType identifies the kind of commercial document. It never changes after creation.
type DocumentType string

const (
	TypeQuote         DocumentType = "quote"
	TypeInvoice       DocumentType = "invoice"
	TypeCreditNote    DocumentType = "credit_note"
	TypePurchaseOrder DocumentType = "purchase_order"
)

var documentPrefixes = map[DocumentType]string{
	TypeQuote:         "D",
	TypeInvoice:       "F",
	TypeCreditNote:    "A",
	TypePurchaseOrder: "C",
}

var documentLabels = map[DocumentType]string{
	TypeQuote:         "Devis",
	TypeInvoice:       "Facture",
	TypeCreditNote:    "Avoir",
	TypePurchaseOrder: "Bon de commande",
}

// French names accepted from free-form callers.
var documentTypeAliases = map[string]DocumentType{
	"devis":           TypeQuote,
	"facture":         TypeInvoice,
	"avoir":           TypeCreditNote,
	"bon_de_commande": TypePurchaseOrder,
	"bon_commande":    TypePurchaseOrder,
}

// AllTypes returns every supported document type
func AllTypes() []DocumentType {
	return []DocumentType{TypeQuote, TypeInvoice, TypeCreditNote, TypePurchaseOrder}
}

// IsValid checks if the document type is supported
func (t DocumentType) IsValid() bool {
	_, ok := documentPrefixes[t]
	return ok
}

// Prefix returns the numbering prefix for the type
func (t DocumentType) Prefix() string {
	return documentPrefixes[t]
}

// Label returns the printable title of the type
func (t DocumentType) Label() string {
	return documentLabels[t]
}

// UsesSupplier reports whether the counterparty of this type is a supplier.
func (t DocumentType) UsesSupplier() bool {
	return t == TypePurchaseOrder
}

// String returns the string representation
func (t DocumentType) String() string {
	return string(t)
}

// ParseDocumentType accepts canonical names and French aliases.
func ParseDocumentType(s string) (DocumentType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	t := DocumentType(key)
	if t.IsValid() {
		return t, nil
	}
	if alias, ok := documentTypeAliases[key]; ok {
		return alias, nil
	}
	return "", shared.NewValidationError("unknown document type %q", s)
}

// LineCategory drives how a line total is computed.
type LineCategory string

const (
	CategoryGoods        LineCategory = "goods"
	CategoryService      LineCategory = "service"
	CategoryLabor        LineCategory = "labor"
	CategoryWasteRemoval LineCategory = "waste_removal"
)

var categoryAliases = map[string]LineCategory{
	"fourniture":         CategoryGoods,
	"prestation":         CategoryService,
	"main_doeuvre":       CategoryLabor,
	"main_d_oeuvre":      CategoryLabor,
	"evacuation_dechets": CategoryWasteRemoval,
}

// IsValid checks if the category is one of the known categories
func (c LineCategory) IsValid() bool {
	switch c {
	case CategoryGoods, CategoryService, CategoryLabor, CategoryWasteRemoval:
		return true
	}
	return false
}

// FlatPriced reports whether the line total equals the unit price regardless of quantity.
func (c LineCategory) FlatPriced() bool {
	return c == CategoryService || c == CategoryLabor || c == CategoryWasteRemoval
}

// ParseLineCategory maps a free-form category onto a known one.
// Unknown or empty values fall back to goods.
func ParseLineCategory(s string) LineCategory {
	key := strings.ToLower(strings.TrimSpace(s))
	c := LineCategory(key)
	if c.IsValid() {
		return c
	}
	if alias, ok := categoryAliases[key]; ok {
		return alias
	}
	return CategoryGoods
}
