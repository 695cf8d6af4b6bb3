package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicedesk/internal/clock"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"github.com/smallbiznis/invoicedesk/internal/delivery/domain"
	"github.com/smallbiznis/invoicedesk/internal/delivery/phone"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/observability/metrics"
	"github.com/smallbiznis/invoicedesk/internal/providers/email"
	"github.com/smallbiznis/invoicedesk/internal/providers/pdf"
	"github.com/smallbiznis/invoicedesk/internal/providers/whatsapp"
	settingsdomain "github.com/smallbiznis/invoicedesk/internal/settings/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const pdfContentType = "application/pdf"

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	InvoiceSvc invoicedomain.Service
	Catalog    *config.InvoicingConfigHolder
	Email      email.Provider
	WhatsApp   whatsapp.Provider
	PDF        pdf.Renderer
	Metrics    *metrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	invoiceSvc invoicedomain.Service
	catalog    *config.InvoicingConfigHolder
	email      email.Provider
	whatsapp   whatsapp.Provider
	pdf        pdf.Renderer
	metrics    *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("delivery.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		invoiceSvc: p.InvoiceSvc,
		catalog:    p.Catalog,
		email:      p.Email,
		whatsapp:   p.WhatsApp,
		pdf:        p.PDF,
		metrics:    p.Metrics,
	}
}

func (s *Service) SendEmail(ctx context.Context, settings settingsdomain.Settings, invoiceID string) (domain.DeliveryResult, error) {
	detail, err := s.invoiceSvc.Get(ctx, invoiceID)
	if err != nil {
		return domain.DeliveryResult{}, err
	}
	if detail.Client == nil || strings.TrimSpace(detail.Client.Email) == "" {
		return domain.DeliveryResult{}, domain.ErrMissingEmail
	}
	recipient := strings.TrimSpace(detail.Client.Email)
	catalog := s.catalogConfig()

	attempt := func() (string, error) {
		content, err := s.pdf.RenderInvoice(ctx, pdfDocument(settings, detail, catalog))
		if err != nil {
			return "", fmt.Errorf("render pdf: %w", err)
		}
		body, err := emailBody(settings, detail, catalog)
		if err != nil {
			return "", fmt.Errorf("render email: %w", err)
		}
		return s.email.Send(ctx, email.Message{
			From:    fmt.Sprintf("%s <%s>", companyName(settings), companyEmail(settings)),
			To:      []string{recipient},
			Subject: emailSubject(detail, catalog),
			HTML:    body,
			Attachments: []email.Attachment{{
				Filename:    detail.InvoiceNumber + ".pdf",
				Content:     base64.StdEncoding.EncodeToString(content),
				ContentType: pdfContentType,
			}},
		})
	}
	return s.deliver(ctx, detail, invoicedomain.DeliveryChannelEmail, recipient, attempt)
}

func (s *Service) SendWhatsApp(ctx context.Context, settings settingsdomain.Settings, invoiceID string) (domain.DeliveryResult, error) {
	detail, err := s.invoiceSvc.Get(ctx, invoiceID)
	if err != nil {
		return domain.DeliveryResult{}, err
	}
	if detail.Client == nil || strings.TrimSpace(detail.Client.Phone) == "" {
		return domain.DeliveryResult{}, domain.ErrMissingPhone
	}
	recipient := phone.Normalize(detail.Client.Phone)
	if !phone.IsValid(recipient) {
		return domain.DeliveryResult{}, domain.ErrInvalidPhone
	}
	catalog := s.catalogConfig()

	attempt := func() (string, error) {
		content, err := s.pdf.RenderInvoice(ctx, pdfDocument(settings, detail, catalog))
		if err != nil {
			return "", fmt.Errorf("render pdf: %w", err)
		}
		return s.whatsapp.SendDocument(ctx, whatsapp.Document{
			To:       recipient,
			Media:    "data:" + pdfContentType + ";base64," + base64.StdEncoding.EncodeToString(content),
			Filename: detail.InvoiceNumber + ".pdf",
			Caption:  whatsAppCaption(settings, detail, catalog),
		})
	}
	return s.deliver(ctx, detail, invoicedomain.DeliveryChannelWhatsApp, recipient, attempt)
}

// deliver runs one send attempt, records it in the delivery log and, on
// success, flags the invoice as delivered on channel.
func (s *Service) deliver(ctx context.Context, detail invoicedomain.InvoiceDetail, channel, recipient string, attempt func() (string, error)) (domain.DeliveryResult, error) {
	messageID, sendErr := attempt()

	entry := domain.DeliveryLog{
		ID:                s.genID.Generate(),
		InvoiceID:         detail.ID,
		Channel:           channel,
		Recipient:         recipient,
		Status:            domain.StatusSent,
		ExternalMessageID: messageID,
		Metadata:          datatypes.JSONMap{"invoice_number": detail.InvoiceNumber},
		CreatedAt:         s.clock.Now(),
	}
	if sendErr != nil {
		entry.Status = domain.StatusFailed
		entry.ErrorMessage = failureMessage(sendErr)
	}
	s.appendLog(ctx, entry)
	s.metrics.RecordDelivery(ctx, channel, entry.Status)

	if sendErr != nil {
		s.log.Warn("invoice delivery failed",
			zap.String("invoice_id", detail.ID.String()),
			zap.String("channel", channel),
			zap.Error(sendErr),
		)
		return domain.DeliveryResult{Log: entry, Invoice: detail.Invoice}, fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, sendErr)
	}

	invoice, err := s.invoiceSvc.MarkDelivered(ctx, detail.ID, channel)
	if err != nil {
		return domain.DeliveryResult{Log: entry, Invoice: detail.Invoice}, err
	}
	s.log.Info("invoice delivered",
		zap.String("invoice_id", detail.ID.String()),
		zap.String("channel", channel),
		zap.String("message_id", messageID),
	)
	return domain.DeliveryResult{Log: entry, Invoice: invoice}, nil
}

// appendLog never fails the caller; the log is an audit trail only.
func (s *Service) appendLog(ctx context.Context, entry domain.DeliveryLog) {
	if err := s.repo.Insert(ctx, s.db, &entry); err != nil {
		s.log.Warn("failed to write delivery log",
			zap.String("invoice_id", entry.InvoiceID.String()),
			zap.String("channel", entry.Channel),
			zap.Error(err),
		)
	}
}

func (s *Service) ListLogs(ctx context.Context, invoiceID string) ([]domain.DeliveryLog, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(invoiceID))
	if err != nil || id == 0 {
		return nil, invoicedomain.ErrInvalidInvoiceID
	}
	items, err := s.repo.ListByInvoice(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	logs := make([]domain.DeliveryLog, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		logs = append(logs, *item)
	}
	return logs, nil
}

func (s *Service) RenderPDF(ctx context.Context, settings settingsdomain.Settings, invoiceID string) (string, []byte, error) {
	detail, err := s.invoiceSvc.Get(ctx, invoiceID)
	if err != nil {
		return "", nil, err
	}
	content, err := s.pdf.RenderInvoice(ctx, pdfDocument(settings, detail, s.catalogConfig()))
	if err != nil {
		return "", nil, err
	}
	return detail.InvoiceNumber + ".pdf", content, nil
}

func (s *Service) catalogConfig() config.InvoicingConfig {
	if s.catalog == nil {
		return config.DefaultInvoicingConfig()
	}
	return s.catalog.Get()
}

func failureMessage(err error) string {
	var gwErr *whatsapp.GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Body
	}
	return err.Error()
}
