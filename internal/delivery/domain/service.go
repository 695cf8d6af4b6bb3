package domain

import (
	"context"
	"errors"

	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	settingsdomain "github.com/smallbiznis/invoicedesk/internal/settings/domain"
)

type DeliveryResult struct {
	Log     DeliveryLog           `json:"log"`
	Invoice invoicedomain.Invoice `json:"invoice"`
}

type Service interface {
	SendEmail(ctx context.Context, settings settingsdomain.Settings, invoiceID string) (DeliveryResult, error)
	SendWhatsApp(ctx context.Context, settings settingsdomain.Settings, invoiceID string) (DeliveryResult, error)
	ListLogs(ctx context.Context, invoiceID string) ([]DeliveryLog, error)
	// RenderPDF returns the invoice PDF and its file name.
	RenderPDF(ctx context.Context, settings settingsdomain.Settings, invoiceID string) (string, []byte, error)
}

var (
	ErrMissingEmail   = errors.New("client_email_missing")
	ErrMissingPhone   = errors.New("client_phone_missing")
	ErrInvalidPhone   = errors.New("client_phone_invalid")
	ErrDeliveryFailed = errors.New("delivery_failed")
)
