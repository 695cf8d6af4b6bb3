package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// RecurringInvoice is a monthly template from which invoices are generated
// on DayOfMonth.
type RecurringInvoice struct {
	ID                 snowflake.ID    `gorm:"primaryKey" json:"id"`
	ClientID           snowflake.ID    `gorm:"not null;index" json:"client_id"`
	Currency           string          `gorm:"type:varchar(3);not null" json:"currency"`
	TaxPercentage      decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"tax_percentage"`
	DiscountPercentage decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"discount_percentage"`
	DiscountAmount     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"discount_amount"`
	Notes              string          `gorm:"not null;default:''" json:"notes"`
	Category           string          `gorm:"not null;default:''" json:"category"`
	DayOfMonth         int             `gorm:"not null" json:"day_of_month"`
	IsActive           bool            `gorm:"not null;default:true" json:"is_active"`
	AutoSendWhatsApp   bool            `gorm:"column:auto_send_whatsapp;not null;default:false" json:"auto_send_whatsapp"`
	GeneratedCount     int             `gorm:"not null;default:0" json:"generated_count"`
	NextGenerationDate datatypes.Date  `gorm:"not null;index" json:"next_generation_date"`
	CreatedAt          time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (RecurringInvoice) TableName() string { return "recurring_invoices" }

type RecurringInvoiceItem struct {
	ID                 snowflake.ID    `gorm:"primaryKey" json:"id"`
	RecurringInvoiceID snowflake.ID    `gorm:"not null;index" json:"recurring_invoice_id"`
	Description        string          `gorm:"not null" json:"description"`
	Quantity           decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"quantity"`
	UnitPrice          decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"unit_price"`
	Amount             decimal.Decimal `gorm:"type:numeric(16,4);not null" json:"amount"`
	SortOrder          int             `gorm:"not null;default:0" json:"sort_order"`
}

func (RecurringInvoiceItem) TableName() string { return "recurring_invoice_items" }
