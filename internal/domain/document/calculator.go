package document

import "github.com/shopspring/decimal"

// Scale of stored quantities and unit prices.
const InputScale int32 = 4

// Scale of net, VAT and gross amounts.
const AmountScale int32 = 2

var hundred = decimal.NewFromInt(100)

// PricingItem is the calculator's view of a line. Null values count as zero.
type PricingItem struct {
	Category  LineCategory
	Quantity  decimal.NullDecimal
	UnitPrice decimal.NullDecimal
}

// Totals is the result of pricing a document.
type Totals struct {
	Lines []decimal.Decimal
	Net   decimal.Decimal
	VAT   decimal.Decimal
	Gross decimal.Decimal
}

func valueOrZero(v decimal.NullDecimal) decimal.Decimal {
	if !v.Valid {
		return decimal.Zero
	}
	return v.Decimal
}

// LineTotal prices a single line.
// Goods (and any unknown category) are quantity times unit price; flat-priced
// categories are worth their unit price whatever the quantity.
func LineTotal(category LineCategory, quantity, unitPrice decimal.NullDecimal) decimal.Decimal {
	price := valueOrZero(unitPrice)
	if category.FlatPriced() {
		return price
	}
	return valueOrZero(quantity).Mul(price)
}

// VATAmount computes the VAT due on a net amount, rounded to cents.
func VATAmount(net, vatRate decimal.Decimal, reverseCharge bool) decimal.Decimal {
	if reverseCharge {
		return decimal.Zero
	}
	return net.Mul(vatRate).Div(hundred).Round(AmountScale)
}

// ComputeTotals prices every item and aggregates net, VAT and gross.
// Line totals are exact; net and VAT are rounded once to cents, gross is their sum.
func ComputeTotals(items []PricingItem, vatRate decimal.Decimal, reverseCharge bool) Totals {
	lines := make([]decimal.Decimal, len(items))
	net := decimal.Zero
	for i, item := range items {
		lines[i] = LineTotal(item.Category, item.Quantity, item.UnitPrice)
		net = net.Add(lines[i])
	}
	net = net.Round(AmountScale)
	vat := VATAmount(net, vatRate, reverseCharge)
	return Totals{
		Lines: lines,
		Net:   net,
		VAT:   vat,
		Gross: net.Add(vat),
	}
}
