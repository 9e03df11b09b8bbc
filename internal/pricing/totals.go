package pricing

import (
	"github.com/shopspring/decimal"
)

// Line is a priced quantity contributing to a document total.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Totals aggregates a document's monetary summary. Tax is carried unrounded
// (persisted at four decimal places) so repeated aggregation does not drift;
// only the grand total is rounded for presentation and charging.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals sums the lines and applies the fractional tax rate
// (e.g. 0.13 for 13%). Line totals round to cents before summing.
func ComputeTotals(lines []Line, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		lineTotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
		subtotal = subtotal.Add(lineTotal)
	}

	tax := subtotal.Mul(taxRate)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// Rounded returns the totals with the grand total rounded to cents, the form
// presented to customers and sent to the payment gateway.
func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal: t.Subtotal.Round(2),
		Tax:      t.Tax.Round(4),
		Total:    t.Total.Round(2),
	}
}

// LineTotal returns the rounded extension for a single line.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}
