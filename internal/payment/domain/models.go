package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Payment is money received against one invoice. Payments are never edited.
type Payment struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID     snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	PaymentDate   datatypes.Date  `gorm:"not null" json:"payment_date"`
	PaymentMethod string          `gorm:"type:varchar(32);not null" json:"payment_method"`
	Reference     string          `gorm:"not null;default:''" json:"reference,omitempty"`
	Notes         string          `gorm:"not null;default:''" json:"notes,omitempty"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Payment) TableName() string { return "payments" }
