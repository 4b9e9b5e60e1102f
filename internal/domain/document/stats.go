package document

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TypeTotals aggregates the documents of one type
type TypeTotals struct {
	Count int64
	Net   decimal.Decimal
	VAT   decimal.Decimal
	Gross decimal.Decimal
}

// ClientRevenue is the net amount invoiced to one client
type ClientRevenue struct {
	ClientID    uuid.UUID
	CompanyName string
	Net         decimal.Decimal
}

// Stats summarises activity from Since onwards (all time when nil).
// Invoices cancelled by a credit note are left out of the invoice figures and the client ranking.
type Stats struct {
	Since           *time.Time
	ByType          map[DocumentType]TypeTotals
	InvoicesPaid    decimal.Decimal
	QuotesConverted int64
	TopClients      []ClientRevenue
}

// Totals returns the figures of one type, zero when there is none.
func (s *Stats) Totals(t DocumentType) TypeTotals {
	if totals, ok := s.ByType[t]; ok {
		return totals
	}
	return TypeTotals{Net: decimal.Zero, VAT: decimal.Zero, Gross: decimal.Zero}
}

// InvoicesUnpaid is the gross amount still to be collected.
func (s *Stats) InvoicesUnpaid() decimal.Decimal {
	return s.Totals(TypeInvoice).Gross.Sub(s.InvoicesPaid)
}

// ConversionRate is the percentage of quotes turned into an invoice.
func (s *Stats) ConversionRate() decimal.Decimal {
	quotes := s.Totals(TypeQuote).Count
	if quotes == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(s.QuotesConverted).Mul(hundred).Div(decimal.NewFromInt(quotes)).Round(AmountScale)
}
