package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	clientdomain "github.com/smallbiznis/invoicedesk/internal/client/domain"
	clientrepo "github.com/smallbiznis/invoicedesk/internal/client/repository"
	"github.com/smallbiznis/invoicedesk/internal/clock"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"github.com/smallbiznis/invoicedesk/internal/delivery/domain"
	"github.com/smallbiznis/invoicedesk/internal/delivery/repository"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	invoicerepo "github.com/smallbiznis/invoicedesk/internal/invoice/repository"
	invoiceservice "github.com/smallbiznis/invoicedesk/internal/invoice/service"
	"github.com/smallbiznis/invoicedesk/internal/observability/metrics"
	"github.com/smallbiznis/invoicedesk/internal/providers/email"
	"github.com/smallbiznis/invoicedesk/internal/providers/pdf"
	"github.com/smallbiznis/invoicedesk/internal/providers/whatsapp"
	settingsdomain "github.com/smallbiznis/invoicedesk/internal/settings/domain"
	"github.com/smallbiznis/invoicedesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockEmail struct {
	mock.Mock
}

func (m *mockEmail) Send(ctx context.Context, msg email.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

type mockWhatsApp struct {
	mock.Mock
}

func (m *mockWhatsApp) SendDocument(ctx context.Context, doc whatsapp.Document) (string, error) {
	args := m.Called(ctx, doc)
	return args.String(0), args.Error(1)
}

type mockRenderer struct {
	mock.Mock
}

func (m *mockRenderer) RenderInvoice(ctx context.Context, doc pdf.InvoiceDocument) ([]byte, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type harness struct {
	svc      domain.Service
	invoices invoicedomain.Service
	email    *mockEmail
	whatsapp *mockWhatsApp
	renderer *mockRenderer
	clients  clientdomain.Repository
	settings settingsdomain.Settings
	newInv   func(t *testing.T, client clientdomain.Client) invoicedomain.InvoiceDetail
	newCli   func(t *testing.T, name, mail, phone string) clientdomain.Client
}

func newHarness(t *testing.T) harness {
	t.Helper()
	db := testutil.NewDB(t)
	node := testutil.NewNode(t)
	clk := clock.NewFakeClock(time.Date(2026, 5, 4, 11, 0, 0, 0, time.UTC))
	catalog := config.NewStaticInvoicingConfigHolder(config.DefaultInvoicingConfig())
	clients := clientrepo.Provide()

	invoices := invoiceservice.New(invoiceservice.Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   clk,
		Repo:    invoicerepo.Provide(),
		Clients: clients,
		Catalog: catalog,
		Metrics: metrics.NewNoop(),
	})

	h := harness{
		invoices: invoices,
		email:    &mockEmail{},
		whatsapp: &mockWhatsApp{},
		renderer: &mockRenderer{},
		clients:  clients,
		settings: settingsdomain.Defaults(),
	}
	h.svc = New(Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Clock:      clk,
		Repo:       repository.Provide(),
		InvoiceSvc: invoices,
		Catalog:    catalog,
		Email:      h.email,
		WhatsApp:   h.whatsapp,
		PDF:        h.renderer,
		Metrics:    metrics.NewNoop(),
	})
	h.newCli = func(t *testing.T, name, mail, phone string) clientdomain.Client {
		c := clientdomain.Client{ID: node.Generate(), Name: name, Email: mail, Phone: phone, CreatedAt: clk.Now(), UpdatedAt: clk.Now()}
		require.NoError(t, clients.Insert(context.Background(), db, &c))
		return c
	}
	h.newInv = func(t *testing.T, client clientdomain.Client) invoicedomain.InvoiceDetail {
		detail, err := invoices.Create(context.Background(), h.settings, invoicedomain.CreateInvoiceRequest{
			ClientID: client.ID.String(),
			Items: []invoicedomain.LineInput{
				{Description: "Domain renewal", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(4500)},
			},
		})
		require.NoError(t, err)
		return detail
	}
	return h
}

func TestSendEmailDeliversAndMarksSent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	client := h.newCli(t, "Galle Fort Hotel", "accounts@gallefort.lk", "")
	inv := h.newInv(t, client)

	h.renderer.On("RenderInvoice", mock.Anything, mock.MatchedBy(func(doc pdf.InvoiceDocument) bool {
		return doc.InvoiceNumber == inv.InvoiceNumber
	})).Return([]byte("%PDF-1.4"), nil).Once()
	h.email.On("Send", mock.Anything, mock.MatchedBy(func(msg email.Message) bool {
		return len(msg.To) == 1 && msg.To[0] == "accounts@gallefort.lk" &&
			strings.HasPrefix(msg.Subject, "Invoice "+inv.InvoiceNumber) &&
			len(msg.Attachments) == 1 && msg.Attachments[0].Filename == inv.InvoiceNumber+".pdf"
	})).Return("msg_123", nil).Once()

	res, err := h.svc.SendEmail(ctx, h.settings, inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSent, res.Log.Status)
	assert.Equal(t, "msg_123", res.Log.ExternalMessageID)
	assert.Equal(t, invoicedomain.InvoiceStatusSent, res.Invoice.Status)
	assert.True(t, res.Invoice.SentOnEmail)

	logs, err := h.svc.ListLogs(ctx, inv.ID.String())
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, invoicedomain.DeliveryChannelEmail, logs[0].Channel)
	assert.Equal(t, inv.InvoiceNumber, logs[0].Metadata["invoice_number"])

	h.email.AssertExpectations(t)
	h.renderer.AssertExpectations(t)
}

func TestSendEmailFailureIsLoggedAndLeavesInvoiceUntouched(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	client := h.newCli(t, "Galle Fort Hotel", "accounts@gallefort.lk", "")
	inv := h.newInv(t, client)

	h.renderer.On("RenderInvoice", mock.Anything, mock.Anything).Return([]byte("%PDF-1.4"), nil)
	h.email.On("Send", mock.Anything, mock.Anything).Return("", errors.New("resend: 422 invalid from")).Once()

	_, err := h.svc.SendEmail(ctx, h.settings, inv.ID.String())
	assert.ErrorIs(t, err, domain.ErrDeliveryFailed)

	logs, err := h.svc.ListLogs(ctx, inv.ID.String())
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.StatusFailed, logs[0].Status)
	assert.Contains(t, logs[0].ErrorMessage, "invalid from")

	got, err := h.invoices.Get(ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusDraft, got.Status)
	assert.False(t, got.SentOnEmail)
}

func TestSendEmailRequiresClientEmail(t *testing.T) {
	h := newHarness(t)
	client := h.newCli(t, "Walk In", "", "0771234567")
	inv := h.newInv(t, client)

	_, err := h.svc.SendEmail(context.Background(), h.settings, inv.ID.String())
	assert.ErrorIs(t, err, domain.ErrMissingEmail)
	h.email.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSendWhatsAppNormalizesPhone(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	client := h.newCli(t, "Colombo Cafe", "", "077 123 4567")
	inv := h.newInv(t, client)

	h.renderer.On("RenderInvoice", mock.Anything, mock.Anything).Return([]byte("%PDF-1.4"), nil).Once()
	h.whatsapp.On("SendDocument", mock.Anything, mock.MatchedBy(func(doc whatsapp.Document) bool {
		return doc.To == "94771234567" &&
			strings.HasPrefix(doc.Media, "data:application/pdf;base64,") &&
			strings.Contains(doc.Caption, inv.InvoiceNumber)
	})).Return("wamid.1", nil).Once()

	res, err := h.svc.SendWhatsApp(ctx, h.settings, inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "94771234567", res.Log.Recipient)
	assert.True(t, res.Invoice.SentOnWhatsApp)
	assert.Equal(t, invoicedomain.InvoiceStatusSent, res.Invoice.Status)
	h.whatsapp.AssertExpectations(t)
}

func TestSendWhatsAppGatewayErrorBodyIsRecorded(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	client := h.newCli(t, "Colombo Cafe", "", "0771234567")
	inv := h.newInv(t, client)

	h.renderer.On("RenderInvoice", mock.Anything, mock.Anything).Return([]byte("%PDF-1.4"), nil)
	h.whatsapp.On("SendDocument", mock.Anything, mock.Anything).
		Return("", &whatsapp.GatewayError{StatusCode: 400, Body: `{"error":"number not on whatsapp"}`}).Once()

	_, err := h.svc.SendWhatsApp(ctx, h.settings, inv.ID.String())
	assert.ErrorIs(t, err, domain.ErrDeliveryFailed)

	logs, err := h.svc.ListLogs(ctx, inv.ID.String())
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, `{"error":"number not on whatsapp"}`, logs[0].ErrorMessage)
}

func TestSendWhatsAppValidatesPhone(t *testing.T) {
	h := newHarness(t)
	missing := h.newInv(t, h.newCli(t, "No Phone Ltd", "a@b.lk", ""))
	short := h.newInv(t, h.newCli(t, "Short Phone", "", "12345"))

	_, err := h.svc.SendWhatsApp(context.Background(), h.settings, missing.ID.String())
	assert.ErrorIs(t, err, domain.ErrMissingPhone)
	_, err = h.svc.SendWhatsApp(context.Background(), h.settings, short.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidPhone)
	h.whatsapp.AssertNotCalled(t, "SendDocument", mock.Anything, mock.Anything)
}

func TestRenderPDFNamesFileAfterInvoice(t *testing.T) {
	h := newHarness(t)
	inv := h.newInv(t, h.newCli(t, "Print Shop", "", ""))
	h.renderer.On("RenderInvoice", mock.Anything, mock.Anything).Return([]byte("%PDF-1.4"), nil).Once()

	name, content, err := h.svc.RenderPDF(context.Background(), h.settings, inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, inv.InvoiceNumber+".pdf", name)
	assert.Equal(t, []byte("%PDF-1.4"), content)
}
