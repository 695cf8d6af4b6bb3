package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	clientdomain "github.com/smallbiznis/invoicedesk/internal/client/domain"
	settingsdomain "github.com/smallbiznis/invoicedesk/internal/settings/domain"
	"github.com/smallbiznis/invoicedesk/pkg/db/pagination"
	"gorm.io/gorm"
)

// CreateInvoiceRequest describes a new invoice. Nil optional fields fall
// back to the Settings passed alongside the request.
type CreateInvoiceRequest struct {
	ClientID           string
	DateOfIssue        *time.Time
	DateDue            *time.Time
	Status             InvoiceStatus
	Items              []LineInput
	TaxPercentage      *decimal.Decimal
	DiscountPercentage decimal.Decimal
	DiscountAmount     decimal.Decimal
	Currency           string
	Notes              *string
	Category           string

	RecurringInvoiceID *snowflake.ID
	IsAutoGenerated    bool
}

// UpdateInvoiceRequest replaces the editable header fields and the whole
// item list. The invoice number never changes.
type UpdateInvoiceRequest struct {
	ClientID           string
	DateOfIssue        time.Time
	DateDue            time.Time
	Items              []LineInput
	TaxPercentage      decimal.Decimal
	DiscountPercentage decimal.Decimal
	DiscountAmount     decimal.Decimal
	Currency           string
	Notes              string
	Category           string
}

type ListInvoiceRequest struct {
	Pagination  pagination.Pagination
	Status      InvoiceStatus
	ClientID    string
	Category    string
	IssuedFrom  *time.Time
	IssuedTo    *time.Time
	RecurringID string
}

type ListInvoiceFilter struct {
	Status      InvoiceStatus
	ClientID    snowflake.ID
	Category    string
	IssuedFrom  *time.Time
	IssuedTo    *time.Time
	RecurringID snowflake.ID
	Today       time.Time
}

// InvoiceView is an invoice as read by users, with derived fields filled in.
type InvoiceView struct {
	Invoice
	EffectiveStatus InvoiceStatus   `json:"effective_status"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	AmountDue       decimal.Decimal `json:"amount_due"`
}

type InvoiceDetail struct {
	InvoiceView
	Items  []InvoiceItem        `json:"items"`
	Client *clientdomain.Client `json:"client,omitempty"`
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []InvoiceView `json:"invoices"`
}

type Service interface {
	Create(ctx context.Context, settings settingsdomain.Settings, req CreateInvoiceRequest) (InvoiceDetail, error)
	// CreateTx creates an invoice inside a caller-owned transaction. The
	// caller is responsible for retrying the transaction on a duplicate
	// invoice number.
	CreateTx(ctx context.Context, tx *gorm.DB, settings settingsdomain.Settings, req CreateInvoiceRequest) (Invoice, []InvoiceItem, error)
	Update(ctx context.Context, id string, req UpdateInvoiceRequest) (InvoiceDetail, error)
	Get(ctx context.Context, id string) (InvoiceDetail, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
	// PreviewNumber shows the number a new invoice would likely receive.
	// It reserves nothing.
	PreviewNumber(ctx context.Context, settings settingsdomain.Settings, clientID string, issuedAt time.Time) (string, error)

	MarkSent(ctx context.Context, id string) (Invoice, error)
	MarkPaid(ctx context.Context, id string) (Invoice, error)
	Cancel(ctx context.Context, id string) (Invoice, error)
	// MarkDelivered records a successful delivery on a channel and moves a
	// draft to sent.
	MarkDelivered(ctx context.Context, id snowflake.ID, channel string) (Invoice, error)

	// LockForUpdate loads an invoice inside tx, row-locked where supported.
	LockForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Invoice, error)
	// TransitionTx applies a status transition inside tx.
	TransitionTx(ctx context.Context, tx *gorm.DB, invoice *Invoice, to InvoiceStatus) error
}

var (
	ErrInvalidInvoiceID       = errors.New("invalid_invoice_id")
	ErrInvoiceNotFound        = errors.New("invoice_not_found")
	ErrInvalidClient          = errors.New("invalid_client")
	ErrMissingItems           = errors.New("missing_items")
	ErrInvalidItemDescription = errors.New("invalid_item_description")
	ErrInvalidItemQuantity    = errors.New("invalid_item_quantity")
	ErrInvalidItemUnitPrice   = errors.New("invalid_item_unit_price")
	ErrInvalidTaxPercentage   = errors.New("invalid_tax_percentage")
	ErrInvalidDiscount        = errors.New("invalid_discount")
	ErrInvalidCurrency        = errors.New("invalid_currency")
	ErrInvalidCategory        = errors.New("invalid_category")
	ErrInvalidStatus          = errors.New("invalid_status")
	ErrInvalidDates           = errors.New("invalid_dates")
	ErrInvalidTransition      = errors.New("invalid_status_transition")
	ErrInvoiceLocked          = errors.New("invoice_not_editable")
	ErrInvoiceNumberConflict  = errors.New("invoice_number_conflict")
	ErrNumberAllocation       = errors.New("invoice_number_allocation_failed")
)

const (
	DeliveryChannelEmail    = "email"
	DeliveryChannelWhatsApp = "whatsapp"
)
