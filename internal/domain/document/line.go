package document

import (
	"strings"

	"github.com/bizdocs/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxDesignationLength = 500

// Line is a priced entry owned by a document
type Line struct {
	ID          uuid.UUID
	DocumentID  uuid.UUID
	Position    int
	Designation string
	Category    LineCategory
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// LineInput carries caller-provided line values. Null quantity or price count as zero.
type LineInput struct {
	Designation string
	Category    LineCategory
	Quantity    decimal.NullDecimal
	UnitPrice   decimal.NullDecimal
}

// NewLine validates input and builds a priced line.
// Flat-priced categories store a quantity of one.
func NewLine(documentID uuid.UUID, position int, in LineInput) (*Line, error) {
	designation := strings.TrimSpace(in.Designation)
	if designation == "" {
		return nil, shared.NewValidationError("line designation is required")
	}
	if len(designation) > maxDesignationLength {
		return nil, shared.NewValidationError("line designation cannot exceed %d characters", maxDesignationLength)
	}
	category := in.Category
	if !category.IsValid() {
		category = CategoryGoods
	}

	quantity := valueOrZero(in.Quantity).Round(InputScale)
	price := valueOrZero(in.UnitPrice).Round(InputScale)
	if quantity.IsNegative() {
		return nil, shared.NewValidationError("line quantity cannot be negative")
	}
	if price.IsNegative() {
		return nil, shared.NewValidationError("line unit price cannot be negative")
	}
	if category.FlatPriced() {
		quantity = decimal.NewFromInt(1)
	}

	return &Line{
		ID:          uuid.New(),
		DocumentID:  documentID,
		Position:    position,
		Designation: designation,
		Category:    category,
		Quantity:    quantity,
		UnitPrice:   price,
		LineTotal:   LineTotal(category, decimal.NewNullDecimal(quantity), decimal.NewNullDecimal(price)),
	}, nil
}

func (l Line) pricingItem() PricingItem {
	return PricingItem{
		Category:  l.Category,
		Quantity:  decimal.NewNullDecimal(l.Quantity),
		UnitPrice: decimal.NewNullDecimal(l.UnitPrice),
	}
}

// clone copies the line values under a new identity for another document.
func (l Line) clone(documentID uuid.UUID) Line {
	l.ID = uuid.New()
	l.DocumentID = documentID
	return l
}
