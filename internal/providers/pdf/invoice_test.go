package pdf

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderInvoice(t *testing.T) {
	out, err := New().RenderInvoice(context.Background(), InvoiceDocument{
		CompanyName:   "FocalDive (Pvt) Ltd",
		InvoiceNumber: "FD-ZCW-2601-001",
		IssueDate:     "January 10, 2026",
		DueDate:       "January 24, 2026",
		BillToName:    "Zigzag Car Wash",
		Items: []InvoiceLine{
			{Description: "Website maintenance", Quantity: "1.00", UnitPrice: "LKR 25,000.00", Amount: "LKR 25,000.00"},
		},
		Subtotal:  "LKR 25,000.00",
		Total:     "LKR 25,000.00",
		AmountDue: "LKR 25,000.00",
		Notes:     "Thank you for your business.",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderInvoiceHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().RenderInvoice(ctx, InvoiceDocument{})
	assert.ErrorIs(t, err, context.Canceled)
}
