package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	clientdomain "github.com/smallbiznis/invoicedesk/internal/client/domain"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	settingsdomain "github.com/smallbiznis/invoicedesk/internal/settings/domain"
)

// CreateRecurringRequest creates a template together with its first
// invoice. The date fields apply to that first invoice only.
type CreateRecurringRequest struct {
	ClientID           string                    `json:"client_id"`
	Currency           string                    `json:"currency"`
	TaxPercentage      *decimal.Decimal          `json:"tax_percentage"`
	DiscountPercentage decimal.Decimal           `json:"discount_percentage"`
	DiscountAmount     decimal.Decimal           `json:"discount_amount"`
	Notes              *string                   `json:"notes"`
	Category           string                    `json:"category"`
	DayOfMonth         int                       `json:"day_of_month"`
	AutoSendWhatsApp   bool                      `json:"auto_send_whatsapp"`
	Items              []invoicedomain.LineInput `json:"items"`
	DateOfIssue        *time.Time                `json:"date_of_issue"`
	DateDue            *time.Time                `json:"date_due"`
}

type RecurringDetail struct {
	RecurringInvoice
	Items  []RecurringInvoiceItem `json:"items"`
	Client *clientdomain.Client   `json:"client,omitempty"`
}

type CreateRecurringResult struct {
	Template RecurringDetail       `json:"template"`
	Invoice  invoicedomain.Invoice `json:"invoice"`
}

type ListRecurringFilter struct {
	ClientID   snowflake.ID
	ActiveOnly bool
}

// GeneratedInvoice links an invoice produced by GenerateDue to its template.
type GeneratedInvoice struct {
	TemplateID       snowflake.ID
	InvoiceID        snowflake.ID
	InvoiceNumber    string
	AutoSendWhatsApp bool
}

type GenerateResult struct {
	Generated []GeneratedInvoice
	Failed    int
	// Paused counts templates deactivated because their client is gone.
	Paused int
}

type Service interface {
	Create(ctx context.Context, settings settingsdomain.Settings, req CreateRecurringRequest) (CreateRecurringResult, error)
	Activate(ctx context.Context, id string) (RecurringInvoice, error)
	Pause(ctx context.Context, id string) (RecurringInvoice, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (RecurringDetail, error)
	List(ctx context.Context, filter ListRecurringFilter) ([]RecurringInvoice, error)
	// GenerateDue creates one invoice for each active template whose next
	// generation date has arrived, at most limit templates per call.
	GenerateDue(ctx context.Context, settings settingsdomain.Settings, limit int) (GenerateResult, error)
}

var (
	ErrInvalidID         = errors.New("invalid_recurring_invoice_id")
	ErrNotFound          = errors.New("recurring_invoice_not_found")
	ErrInvalidDayOfMonth = errors.New("invalid_day_of_month")
)
