package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type UpdateSettingsRequest struct {
	CompanyName          *string          `json:"company_name"`
	CompanyEmail         *string          `json:"company_email"`
	CompanyPhone         *string          `json:"company_phone"`
	CompanyAddress       *string          `json:"company_address"`
	CompanyWebsite       *string          `json:"company_website"`
	InvoicePrefix        *string          `json:"invoice_prefix"`
	InvoiceNumberDigits  *int             `json:"invoice_number_digits"`
	DefaultCurrency      *string          `json:"default_currency"`
	DefaultTaxPercentage *decimal.Decimal `json:"default_tax_percentage"`
	DefaultPaymentTerms  *int             `json:"default_payment_terms"`
	DefaultNotes         *string          `json:"default_notes"`
}

type Service interface {
	Get(ctx context.Context) (Settings, error)
	Update(ctx context.Context, req UpdateSettingsRequest) (Settings, error)
}

var (
	ErrInvalidCompanyName = errors.New("invalid_company_name")
	ErrInvalidPrefix      = errors.New("invalid_invoice_prefix")
	ErrInvalidDigits      = errors.New("invalid_invoice_number_digits")
	ErrInvalidCurrency    = errors.New("invalid_default_currency")
	ErrInvalidTax         = errors.New("invalid_default_tax_percentage")
	ErrInvalidTerms       = errors.New("invalid_default_payment_terms")
)
