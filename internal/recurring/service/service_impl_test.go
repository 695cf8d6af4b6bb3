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
	"github.com/smallbiznis/invoicedesk/internal/recurring/domain"
	"github.com/smallbiznis/invoicedesk/internal/recurring/repository"
	"github.com/smallbiznis/invoicedesk/internal/recurring/service"
	settingsdomain "github.com/smallbiznis/invoicedesk/internal/settings/domain"
	"github.com/smallbiznis/invoicedesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type harness struct {
	db       *gorm.DB
	clock    *clock.FakeClock
	invoices invoicedomain.Service
	svc      domain.Service
	client   clientdomain.Client
	settings settingsdomain.Settings
}

func newHarness(t *testing.T) harness {
	t.Helper()
	db := testutil.NewDB(t)
	node := testutil.NewNode(t)
	clk := clock.NewFakeClock(time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC))
	clients := clientrepo.Provide()

	invoices := invoiceservice.New(invoiceservice.Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   clk,
		Repo:    invoicerepo.Provide(),
		Clients: clients,
		Catalog: config.NewStaticInvoicingConfigHolder(config.DefaultInvoicingConfig()),
		Metrics: metrics.NewNoop(),
	})
	svc := service.New(service.Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Clock:      clk,
		Repo:       repository.Provide(),
		Clients:    clients,
		InvoiceSvc: invoices,
	})

	client := clientdomain.Client{ID: node.Generate(), Name: "Kandy Dental Care", CreatedAt: clk.Now(), UpdatedAt: clk.Now()}
	require.NoError(t, clients.Insert(context.Background(), db, &client))

	return harness{db: db, clock: clk, invoices: invoices, svc: svc, client: client, settings: settingsdomain.Defaults()}
}

func (h harness) create(t *testing.T, day int) domain.CreateRecurringResult {
	t.Helper()
	res, err := h.svc.Create(context.Background(), h.settings, domain.CreateRecurringRequest{
		ClientID:         h.client.ID.String(),
		Category:         "system_maintenance",
		DayOfMonth:       day,
		AutoSendWhatsApp: true,
		Items: []invoicedomain.LineInput{
			{Description: "Monthly maintenance", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(15000)},
		},
	})
	require.NoError(t, err)
	return res
}

func (h harness) generated(t *testing.T, templateID string) []invoicedomain.InvoiceView {
	t.Helper()
	list, err := h.invoices.List(context.Background(), invoicedomain.ListInvoiceRequest{RecurringID: templateID})
	require.NoError(t, err)
	return list.Invoices
}

func ymd(d datatypes.Date) string {
	return time.Time(d).Format("2006-01-02")
}

func TestCreateStoresTemplateWithFirstInvoice(t *testing.T) {
	h := newHarness(t)
	res := h.create(t, 15)

	assert.Equal(t, "FD-KDC-2601-001", res.Invoice.InvoiceNumber)
	assert.False(t, res.Invoice.IsAutoGenerated)
	require.NotNil(t, res.Invoice.RecurringInvoiceID)
	assert.Equal(t, res.Template.ID, *res.Invoice.RecurringInvoiceID)

	detail, err := h.svc.Get(context.Background(), res.Template.ID.String())
	require.NoError(t, err)
	assert.True(t, detail.IsActive)
	assert.True(t, detail.AutoSendWhatsApp)
	assert.Equal(t, 1, detail.GeneratedCount)
	assert.Equal(t, "2026-01-15", ymd(detail.NextGenerationDate))
	require.Len(t, detail.Items, 1)
	assert.True(t, decimal.NewFromInt(15000).Equal(detail.Items[0].Amount))
	require.NotNil(t, detail.Client)
	assert.Equal(t, h.client.ID, detail.Client.ID)
}

func TestCreateRejectsInvalidDayWithoutSideEffects(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Create(context.Background(), h.settings, domain.CreateRecurringRequest{
		ClientID:   h.client.ID.String(),
		DayOfMonth: 31,
		Items: []invoicedomain.LineInput{
			{Description: "Hosting", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100)},
		},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidDayOfMonth)

	var n int64
	require.NoError(t, h.db.Raw("SELECT COUNT(1) FROM invoices").Scan(&n).Error)
	assert.Zero(t, n)
}

func TestCreateRollsBackTemplateWhenInvoiceFails(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Create(context.Background(), h.settings, domain.CreateRecurringRequest{
		ClientID:   h.client.ID.String(),
		DayOfMonth: 5,
		Currency:   "XYZ",
		Items: []invoicedomain.LineInput{
			{Description: "Hosting", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100)},
		},
	})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidCurrency)

	list, err := h.svc.List(context.Background(), domain.ListRecurringFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGenerateDueCreatesOneInvoicePerDueTemplate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res := h.create(t, 15)

	nothing, err := h.svc.GenerateDue(ctx, h.settings, 10)
	require.NoError(t, err)
	assert.Empty(t, nothing.Generated)

	h.clock.Set(time.Date(2026, 1, 15, 0, 10, 0, 0, time.UTC))
	out, err := h.svc.GenerateDue(ctx, h.settings, 10)
	require.NoError(t, err)
	assert.Zero(t, out.Failed)
	require.Len(t, out.Generated, 1)
	assert.Equal(t, "FD-KDC-2601-002", out.Generated[0].InvoiceNumber)
	assert.True(t, out.Generated[0].AutoSendWhatsApp)

	inv, err := h.invoices.Get(ctx, out.Generated[0].InvoiceID.String())
	require.NoError(t, err)
	assert.True(t, inv.IsAutoGenerated)
	assert.Equal(t, invoicedomain.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, "2026-01-15", ymd(inv.DateOfIssue))
	assert.Equal(t, "2026-01-29", ymd(inv.DateDue))
	assert.Equal(t, "system_maintenance", inv.Category)
	require.Len(t, inv.Items, 1)

	template, err := h.svc.Get(ctx, res.Template.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 2, template.GeneratedCount)
	assert.Equal(t, "2026-02-15", ymd(template.NextGenerationDate))

	again, err := h.svc.GenerateDue(ctx, h.settings, 10)
	require.NoError(t, err)
	assert.Empty(t, again.Generated)
	assert.Len(t, h.generated(t, res.Template.ID.String()), 2)
}

func TestGenerateDueCatchesUpWithSingleInvoice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res := h.create(t, 15)

	h.clock.Set(time.Date(2026, 4, 20, 9, 0, 0, 0, time.UTC))
	out, err := h.svc.GenerateDue(ctx, h.settings, 10)
	require.NoError(t, err)
	require.Len(t, out.Generated, 1)
	assert.Equal(t, "FD-KDC-2604-001", out.Generated[0].InvoiceNumber)

	template, err := h.svc.Get(ctx, res.Template.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "2026-05-15", ymd(template.NextGenerationDate))
}

func TestGenerateDuePausesTemplateOfDeletedClient(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res := h.create(t, 15)
	require.NoError(t, h.db.Exec(`DELETE FROM clients WHERE id = ?`, h.client.ID).Error)

	h.clock.Set(time.Date(2026, 1, 15, 0, 10, 0, 0, time.UTC))
	out, err := h.svc.GenerateDue(ctx, h.settings, 10)
	require.NoError(t, err)
	assert.Empty(t, out.Generated)
	assert.Zero(t, out.Failed)
	assert.Equal(t, 1, out.Paused)

	template, err := h.svc.Get(ctx, res.Template.ID.String())
	require.NoError(t, err)
	assert.False(t, template.IsActive)
	assert.Equal(t, 1, template.GeneratedCount)
	assert.Equal(t, "2026-01-15", ymd(template.NextGenerationDate))

	again, err := h.svc.GenerateDue(ctx, h.settings, 10)
	require.NoError(t, err)
	assert.Zero(t, again.Paused)
	assert.Zero(t, again.Failed)
	assert.Len(t, h.generated(t, res.Template.ID.String()), 1)
}

func TestPauseAndActivate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res := h.create(t, 15)
	id := res.Template.ID.String()

	paused, err := h.svc.Pause(ctx, id)
	require.NoError(t, err)
	assert.False(t, paused.IsActive)

	h.clock.Set(time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC))
	out, err := h.svc.GenerateDue(ctx, h.settings, 10)
	require.NoError(t, err)
	assert.Empty(t, out.Generated)

	active, err := h.svc.List(ctx, domain.ListRecurringFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Empty(t, active)

	resumed, err := h.svc.Activate(ctx, id)
	require.NoError(t, err)
	assert.True(t, resumed.IsActive)
	assert.Equal(t, "2026-03-15", ymd(resumed.NextGenerationDate))

	_, err = h.svc.Pause(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
	_, err = h.svc.Activate(ctx, "42")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteKeepsGeneratedInvoices(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res := h.create(t, 15)
	id := res.Template.ID.String()

	require.NoError(t, h.svc.Delete(ctx, id))

	_, err := h.svc.Get(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, h.svc.Delete(ctx, id), domain.ErrNotFound)

	inv, err := h.invoices.Get(ctx, res.Invoice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, res.Invoice.InvoiceNumber, inv.InvoiceNumber)

	var n int64
	require.NoError(t, h.db.Raw("SELECT COUNT(1) FROM recurring_invoice_items").Scan(&n).Error)
	assert.Zero(t, n)
}
