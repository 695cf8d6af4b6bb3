package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	clientdomain "github.com/smallbiznis/invoicedesk/internal/client/domain"
	clientrepo "github.com/smallbiznis/invoicedesk/internal/client/repository"
	"github.com/smallbiznis/invoicedesk/internal/clock"
	"github.com/smallbiznis/invoicedesk/internal/config"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	invoicerepo "github.com/smallbiznis/invoicedesk/internal/invoice/repository"
	invoiceservice "github.com/smallbiznis/invoicedesk/internal/invoice/service"
	"github.com/smallbiznis/invoicedesk/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/invoicedesk/internal/payment/domain"
	paymentrepo "github.com/smallbiznis/invoicedesk/internal/payment/repository"
	paymentservice "github.com/smallbiznis/invoicedesk/internal/payment/service"
	settingsdomain "github.com/smallbiznis/invoicedesk/internal/settings/domain"
	"github.com/smallbiznis/invoicedesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type harness struct {
	invoices invoicedomain.Service
	payments paymentdomain.Service
	client   clientdomain.Client
}

func newHarness(t *testing.T) harness {
	t.Helper()
	db := testutil.NewDB(t)
	node := testutil.NewNode(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	catalog := config.NewStaticInvoicingConfigHolder(config.DefaultInvoicingConfig())
	invoiceRepo := invoicerepo.Provide()
	clients := clientrepo.Provide()

	invoices := invoiceservice.New(invoiceservice.Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   clk,
		Repo:    invoiceRepo,
		Clients: clients,
		Catalog: catalog,
		Metrics: metrics.NewNoop(),
	})
	payments := paymentservice.New(paymentservice.Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clk,
		Repo:        paymentrepo.Provide(),
		InvoiceRepo: invoiceRepo,
		InvoiceSvc:  invoices,
		Catalog:     catalog,
	})

	client := clientdomain.Client{ID: node.Generate(), Name: "Lanka Traders", CreatedAt: clk.Now(), UpdatedAt: clk.Now()}
	require.NoError(t, clients.Insert(context.Background(), db, &client))

	return harness{invoices: invoices, payments: payments, client: client}
}

func (h harness) invoice(t *testing.T, status invoicedomain.InvoiceStatus, total string) invoicedomain.InvoiceDetail {
	t.Helper()
	detail, err := h.invoices.Create(context.Background(), settingsdomain.Defaults(), invoicedomain.CreateInvoiceRequest{
		ClientID: h.client.ID.String(),
		Status:   status,
		Items: []invoicedomain.LineInput{
			{Description: "Website hosting", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString(total)},
		},
	})
	require.NoError(t, err)
	return detail
}

func pay(amount string) paymentdomain.RecordPaymentRequest {
	return paymentdomain.RecordPaymentRequest{
		Amount:        decimal.RequireFromString(amount),
		PaymentMethod: "bank_transfer",
		Reference:     "TRX-1",
	}
}

func TestRecordMarksSentInvoicePaidWhenCovered(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	inv := h.invoice(t, invoicedomain.InvoiceStatusSent, "10000")

	partial, err := h.payments.Record(ctx, inv.ID.String(), pay("4000"))
	require.NoError(t, err)
	assert.False(t, partial.MarkedPaid)
	assert.Equal(t, invoicedomain.InvoiceStatusSent, partial.Invoice.Status)
	assert.True(t, decimal.NewFromInt(4000).Equal(partial.AmountPaid))

	rest, err := h.payments.Record(ctx, inv.ID.String(), pay("6000"))
	require.NoError(t, err)
	assert.True(t, rest.MarkedPaid)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, rest.Invoice.Status)

	detail, err := h.invoices.Get(ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, detail.Status)
	assert.True(t, detail.AmountDue.IsZero())

	list, err := h.payments.List(ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestRecordLeavesDraftUnpaid(t *testing.T) {
	h := newHarness(t)
	inv := h.invoice(t, invoicedomain.InvoiceStatusDraft, "500")

	res, err := h.payments.Record(context.Background(), inv.ID.String(), pay("500"))
	require.NoError(t, err)
	assert.False(t, res.MarkedPaid)
	assert.Equal(t, invoicedomain.InvoiceStatusDraft, res.Invoice.Status)
}

func TestRecordRejectsClosedInvoices(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	inv := h.invoice(t, invoicedomain.InvoiceStatusDraft, "500")
	_, err := h.invoices.Cancel(ctx, inv.ID.String())
	require.NoError(t, err)

	_, err = h.payments.Record(ctx, inv.ID.String(), pay("100"))
	assert.ErrorIs(t, err, paymentdomain.ErrInvoiceClosed)

	list, err := h.payments.List(ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRecordValidatesInput(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	inv := h.invoice(t, invoicedomain.InvoiceStatusSent, "500")

	_, err := h.payments.Record(ctx, inv.ID.String(), pay("0"))
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidAmount)

	req := pay("10")
	req.PaymentMethod = "cheque"
	_, err = h.payments.Record(ctx, inv.ID.String(), req)
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidPaymentMethod)

	_, err = h.payments.Record(ctx, "abc", pay("10"))
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidInvoiceID)

	_, err = h.payments.Record(ctx, "12345", pay("10"))
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceNotFound)
}
