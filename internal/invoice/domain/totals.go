package domain

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineInput is an item as entered, before amounts are derived.
type LineInput struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Adjustments are the invoice-level tax and discount inputs. An explicit
// DiscountAmount applies only when DiscountPercentage is zero.
type Adjustments struct {
	TaxPercentage      decimal.Decimal
	DiscountPercentage decimal.Decimal
	DiscountAmount     decimal.Decimal
}

type Totals struct {
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
}

// LineAmount is quantity x unit price with both inputs held to cents.
func LineAmount(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Round(2).Mul(unitPrice.Round(2))
}

// ComputeTotals derives invoice totals. Tax and discount are rounded to
// cents; Total is then exactly Subtotal + TaxAmount - DiscountAmount.
func ComputeTotals(lines []LineInput, adj Adjustments) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(LineAmount(line.Quantity, line.UnitPrice))
	}

	tax := subtotal.Mul(adj.TaxPercentage).Div(hundred).Round(2)

	discount := adj.DiscountAmount.Round(2)
	if adj.DiscountPercentage.IsPositive() {
		discount = subtotal.Mul(adj.DiscountPercentage).Div(hundred).Round(2)
	}

	return Totals{
		Subtotal:       subtotal,
		TaxAmount:      tax,
		DiscountAmount: discount,
		Total:          subtotal.Add(tax).Sub(discount),
	}
}

// TotalsHold reports whether the stored totals satisfy the invoice arithmetic.
func (i Invoice) TotalsHold() bool {
	return i.Total.Equal(i.Subtotal.Add(i.TaxAmount).Sub(i.DiscountAmount))
}
