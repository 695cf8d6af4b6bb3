package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to InvoiceStatus
		want     bool
	}{
		{InvoiceStatusDraft, InvoiceStatusSent, true},
		{InvoiceStatusDraft, InvoiceStatusCancelled, true},
		{InvoiceStatusDraft, InvoiceStatusPaid, false},
		{InvoiceStatusSent, InvoiceStatusPaid, true},
		{InvoiceStatusSent, InvoiceStatusCancelled, true},
		{InvoiceStatusSent, InvoiceStatusDraft, false},
		{InvoiceStatusOverdue, InvoiceStatusPaid, true},
		{InvoiceStatusOverdue, InvoiceStatusCancelled, true},
		{InvoiceStatusPaid, InvoiceStatusCancelled, false},
		{InvoiceStatusPaid, InvoiceStatusSent, false},
		{InvoiceStatusCancelled, InvoiceStatusDraft, false},
		{InvoiceStatusCancelled, InvoiceStatusSent, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransition(tc.from, tc.to))
		})
	}
}

func TestEffectiveStatus(t *testing.T) {
	today := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	yesterday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	sameDay := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, InvoiceStatusOverdue, EffectiveStatus(InvoiceStatusSent, yesterday, today))
	assert.Equal(t, InvoiceStatusSent, EffectiveStatus(InvoiceStatusSent, sameDay, today))
	assert.Equal(t, InvoiceStatusDraft, EffectiveStatus(InvoiceStatusDraft, yesterday, today))
	assert.Equal(t, InvoiceStatusPaid, EffectiveStatus(InvoiceStatusPaid, yesterday, today))
	// a stored overdue that is no longer past due reads as sent
	assert.Equal(t, InvoiceStatusSent, EffectiveStatus(InvoiceStatusOverdue, sameDay, today))
}

func TestComputeTotals(t *testing.T) {
	d := decimal.RequireFromString
	lines := []LineInput{
		{Description: "Boat", Quantity: d("2"), UnitPrice: d("15000")},
		{Description: "Fuel", Quantity: d("1.5"), UnitPrice: d("333.33")},
	}

	got := ComputeTotals(lines, Adjustments{TaxPercentage: d("8"), DiscountPercentage: d("5")})
	assert.Equal(t, "30499.995", got.Subtotal.String())
	assert.Equal(t, "2440", got.TaxAmount.String())
	assert.Equal(t, "1525", got.DiscountAmount.String())
	assert.True(t, got.Total.Equal(got.Subtotal.Add(got.TaxAmount).Sub(got.DiscountAmount)))

	flat := ComputeTotals(lines[:1], Adjustments{DiscountAmount: d("500")})
	assert.Equal(t, "30000", flat.Subtotal.String())
	assert.Equal(t, "500", flat.DiscountAmount.String())
	assert.Equal(t, "29500", flat.Total.String())

	pct := ComputeTotals(lines[:1], Adjustments{TaxPercentage: d("12.5"), DiscountPercentage: d("10"), DiscountAmount: d("999")})
	assert.Equal(t, "3750", pct.TaxAmount.String())
	assert.Equal(t, "3000", pct.DiscountAmount.String())
	assert.Equal(t, "30750", pct.Total.String())
}
