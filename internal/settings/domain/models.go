package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SingletonID is the primary key of the only settings row.
const SingletonID = 1

// Settings holds company identity and invoicing defaults. It is read once
// per operation and passed to whatever needs it.
type Settings struct {
	ID                   int             `gorm:"primaryKey;autoIncrement:false" json:"-"`
	CompanyName          string          `gorm:"not null" json:"company_name"`
	CompanyEmail         string          `gorm:"not null;default:''" json:"company_email"`
	CompanyPhone         string          `gorm:"not null;default:''" json:"company_phone"`
	CompanyAddress       string          `gorm:"not null;default:''" json:"company_address"`
	CompanyWebsite       string          `gorm:"not null;default:''" json:"company_website"`
	InvoicePrefix        string          `gorm:"type:varchar(16);not null" json:"invoice_prefix"`
	InvoiceNumberDigits  int             `gorm:"not null" json:"invoice_number_digits"`
	DefaultCurrency      string          `gorm:"type:varchar(3);not null" json:"default_currency"`
	DefaultTaxPercentage decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"default_tax_percentage"`
	DefaultPaymentTerms  int             `gorm:"not null" json:"default_payment_terms"`
	DefaultNotes         string          `gorm:"not null;default:''" json:"default_notes"`
	UpdatedAt            time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Settings) TableName() string { return "settings" }

func Defaults() Settings {
	return Settings{
		ID:                   SingletonID,
		CompanyName:          "FocalDive (Pvt) Ltd",
		CompanyEmail:         "devfocaldive@gmail.com",
		CompanyPhone:         "+94 77 123 4567",
		CompanyAddress:       "Kurunegala, North Western Province, Sri Lanka",
		CompanyWebsite:       "focaldive.com",
		InvoicePrefix:        "FD",
		InvoiceNumberDigits:  3,
		DefaultCurrency:      "LKR",
		DefaultTaxPercentage: decimal.Zero,
		DefaultPaymentTerms:  14,
		DefaultNotes:         "",
	}
}

// DueDate is the default due date for an invoice issued on issuedAt.
func (s Settings) DueDate(issuedAt time.Time) time.Time {
	return issuedAt.AddDate(0, 0, s.DefaultPaymentTerms)
}
