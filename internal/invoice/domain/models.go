package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

type Invoice struct {
	ID                 snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceNumber      string          `gorm:"type:varchar(64);not null;uniqueIndex:ux_invoices_invoice_number" json:"invoice_number"`
	ClientID           snowflake.ID    `gorm:"not null;index" json:"client_id"`
	DateOfIssue        datatypes.Date  `gorm:"not null" json:"date_of_issue"`
	DateDue            datatypes.Date  `gorm:"not null" json:"date_due"`
	Status             InvoiceStatus   `gorm:"type:varchar(16);not null;default:'draft'" json:"status"`
	Subtotal           decimal.Decimal `gorm:"type:numeric(16,4);not null;default:0" json:"subtotal"`
	TaxPercentage      decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"tax_percentage"`
	TaxAmount          decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"tax_amount"`
	DiscountPercentage decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"discount_percentage"`
	DiscountAmount     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"discount_amount"`
	Total              decimal.Decimal `gorm:"type:numeric(16,4);not null;default:0" json:"total"`
	Currency           string          `gorm:"type:varchar(3);not null" json:"currency"`
	Notes              string          `gorm:"not null;default:''" json:"notes"`
	Category           string          `gorm:"not null;default:''" json:"category"`
	SentOnWhatsApp     bool            `gorm:"column:sent_on_whatsapp;not null;default:false" json:"sent_on_whatsapp"`
	SentOnEmail        bool            `gorm:"not null;default:false" json:"sent_on_email"`
	RecurringInvoiceID *snowflake.ID   `gorm:"index" json:"recurring_invoice_id,omitempty"`
	IsAutoGenerated    bool            `gorm:"not null;default:false" json:"is_auto_generated"`
	CreatedAt          time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Invoice) TableName() string { return "invoices" }

// InvoiceItem is owned by exactly one invoice. Amount is always
// Quantity x UnitPrice.
type InvoiceItem struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID   snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	Description string          `gorm:"not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"unit_price"`
	Amount      decimal.Decimal `gorm:"type:numeric(16,4);not null" json:"amount"`
	SortOrder   int             `gorm:"not null;default:0" json:"sort_order"`
}

func (InvoiceItem) TableName() string { return "invoice_items" }

// InvoiceNumberSequence is the per-series counter behind number allocation.
// Prefix is the rendered number up to the sequence, e.g. "FD-ABC-2601-".
type InvoiceNumberSequence struct {
	Prefix    string    `gorm:"type:varchar(64);primaryKey"`
	LastValue int64     `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (InvoiceNumberSequence) TableName() string { return "invoice_number_sequences" }
