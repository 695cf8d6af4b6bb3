package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
)

type RecordPaymentRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   *time.Time      `json:"payment_date"`
	PaymentMethod string          `json:"payment_method"`
	Reference     string          `json:"reference"`
	Notes         string          `json:"notes"`
}

// RecordPaymentResult carries the invoice as it stands after the payment.
// MarkedPaid is set when this payment settled the invoice.
type RecordPaymentResult struct {
	Payment    Payment               `json:"payment"`
	Invoice    invoicedomain.Invoice `json:"invoice"`
	AmountPaid decimal.Decimal       `json:"amount_paid"`
	MarkedPaid bool                  `json:"marked_paid"`
}

type Service interface {
	Record(ctx context.Context, invoiceID string, req RecordPaymentRequest) (RecordPaymentResult, error)
	List(ctx context.Context, invoiceID string) ([]Payment, error)
}

var (
	ErrInvalidAmount        = errors.New("invalid_payment_amount")
	ErrInvalidPaymentMethod = errors.New("invalid_payment_method")
	ErrInvoiceClosed        = errors.New("invoice_closed_for_payments")
)
