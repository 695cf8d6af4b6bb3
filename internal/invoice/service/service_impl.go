package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	clientdomain "github.com/smallbiznis/invoicedesk/internal/client/domain"
	"github.com/smallbiznis/invoicedesk/internal/clock"
	"github.com/smallbiznis/invoicedesk/internal/config"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/invoice/numbering"
	"github.com/smallbiznis/invoicedesk/internal/observability/metrics"
	settingsdomain "github.com/smallbiznis/invoicedesk/internal/settings/domain"
	"github.com/smallbiznis/invoicedesk/pkg/db"
	"github.com/smallbiznis/invoicedesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    invoicedomain.Repository
	Clients clientdomain.Repository
	Catalog *config.InvoicingConfigHolder
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    invoicedomain.Repository
	clients clientdomain.Repository
	catalog *config.InvoicingConfigHolder
	metrics *metrics.Metrics
	numbers allocator
}

func New(p Params) invoicedomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("invoice.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		clients: p.Clients,
		catalog: p.Catalog,
		metrics: p.Metrics,
		numbers: allocator{repo: p.Repo},
	}
}

func (s *Service) Create(ctx context.Context, settings settingsdomain.Settings, req invoicedomain.CreateInvoiceRequest) (invoicedomain.InvoiceDetail, error) {
	var (
		invoice invoicedomain.Invoice
		items   []invoicedomain.InvoiceItem
	)
	err := db.RetryOnDuplicate(ctx, maxAllocationAttempts, func(attempt int) error {
		if attempt > 1 {
			s.metrics.RecordAllocationRetry(ctx)
			s.log.Warn("invoice number taken, retrying allocation", zap.Int("attempt", attempt))
		}
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			invoice, items, err = s.CreateTx(ctx, tx, settings, req)
			return err
		})
	})
	if errors.Is(err, db.ErrRetriesExhausted) {
		s.log.Error("invoice number allocation exhausted retries", zap.Error(err))
		return invoicedomain.InvoiceDetail{}, invoicedomain.ErrInvoiceNumberConflict
	}
	if err != nil {
		return invoicedomain.InvoiceDetail{}, err
	}

	source := "manual"
	if invoice.IsAutoGenerated {
		source = "recurring"
	}
	s.metrics.RecordInvoiceCreated(ctx, source)
	s.log.Info("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("client_id", invoice.ClientID.String()),
	)

	client, err := s.clients.FindByID(ctx, s.db, invoice.ClientID)
	if err != nil {
		return invoicedomain.InvoiceDetail{}, err
	}
	return invoicedomain.InvoiceDetail{
		InvoiceView: s.view(invoice, decimal.Zero),
		Items:       items,
		Client:      client,
	}, nil
}

func (s *Service) CreateTx(ctx context.Context, tx *gorm.DB, settings settingsdomain.Settings, req invoicedomain.CreateInvoiceRequest) (invoicedomain.Invoice, []invoicedomain.InvoiceItem, error) {
	clientID, err := parseClientID(req.ClientID)
	if err != nil {
		return invoicedomain.Invoice{}, nil, err
	}

	status := req.Status
	if status == "" {
		status = invoicedomain.InvoiceStatusDraft
	}
	if status != invoicedomain.InvoiceStatusDraft && status != invoicedomain.InvoiceStatusSent {
		return invoicedomain.Invoice{}, nil, invoicedomain.ErrInvalidStatus
	}

	issuedAt := clock.Today(s.clock)
	if req.DateOfIssue != nil && !req.DateOfIssue.IsZero() {
		issuedAt = clock.StartOfDay(*req.DateOfIssue)
	}
	dueAt := settings.DueDate(issuedAt)
	if req.DateDue != nil && !req.DateDue.IsZero() {
		dueAt = clock.StartOfDay(*req.DateDue)
	}
	if dueAt.Before(issuedAt) {
		return invoicedomain.Invoice{}, nil, invoicedomain.ErrInvalidDates
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = settings.DefaultCurrency
	}
	tax := settings.DefaultTaxPercentage
	if req.TaxPercentage != nil {
		tax = *req.TaxPercentage
	}
	notes := settings.DefaultNotes
	if req.Notes != nil {
		notes = strings.TrimSpace(*req.Notes)
	}
	category := strings.TrimSpace(req.Category)

	adj := invoicedomain.Adjustments{
		TaxPercentage:      tax,
		DiscountPercentage: req.DiscountPercentage,
		DiscountAmount:     req.DiscountAmount,
	}
	totals, err := s.validate(req.Items, adj, currency, category)
	if err != nil {
		return invoicedomain.Invoice{}, nil, err
	}

	client, err := s.clients.FindByID(ctx, tx, clientID)
	if err != nil {
		return invoicedomain.Invoice{}, nil, err
	}
	if client == nil {
		return invoicedomain.Invoice{}, nil, invoicedomain.ErrInvalidClient
	}

	number, err := s.allocateNumber(ctx, tx, settings, client.Abbreviation(), issuedAt)
	if err != nil {
		return invoicedomain.Invoice{}, nil, err
	}

	now := s.clock.Now()
	invoice := invoicedomain.Invoice{
		ID:                 s.genID.Generate(),
		InvoiceNumber:      number,
		ClientID:           client.ID,
		DateOfIssue:        datatypes.Date(issuedAt),
		DateDue:            datatypes.Date(dueAt),
		Status:             status,
		Subtotal:           totals.Subtotal,
		TaxPercentage:      tax,
		TaxAmount:          totals.TaxAmount,
		DiscountPercentage: req.DiscountPercentage,
		DiscountAmount:     totals.DiscountAmount,
		Total:              totals.Total,
		Currency:           currency,
		Notes:              notes,
		Category:           category,
		RecurringInvoiceID: req.RecurringInvoiceID,
		IsAutoGenerated:    req.IsAutoGenerated,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Insert(ctx, tx, &invoice); err != nil {
		return invoicedomain.Invoice{}, nil, err
	}

	items := s.buildItems(invoice.ID, req.Items)
	if err := s.repo.InsertItems(ctx, tx, items); err != nil {
		return invoicedomain.Invoice{}, nil, err
	}
	return invoice, items, nil
}

func (s *Service) Update(ctx context.Context, id string, req invoicedomain.UpdateInvoiceRequest) (invoicedomain.InvoiceDetail, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.InvoiceDetail{}, err
	}

	var (
		updated invoicedomain.Invoice
		items   []invoicedomain.InvoiceItem
		client  *clientdomain.Client
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.LockForUpdate(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if invoice.Status.Terminal() {
			return invoicedomain.ErrInvoiceLocked
		}

		if strings.TrimSpace(req.ClientID) != "" {
			clientID, err := parseClientID(req.ClientID)
			if err != nil {
				return err
			}
			invoice.ClientID = clientID
		}
		client, err = s.clients.FindByID(ctx, tx, invoice.ClientID)
		if err != nil {
			return err
		}
		if client == nil {
			return invoicedomain.ErrInvalidClient
		}

		if !req.DateOfIssue.IsZero() {
			invoice.DateOfIssue = datatypes.Date(clock.StartOfDay(req.DateOfIssue))
		}
		if !req.DateDue.IsZero() {
			invoice.DateDue = datatypes.Date(clock.StartOfDay(req.DateDue))
		}
		if time.Time(invoice.DateDue).Before(time.Time(invoice.DateOfIssue)) {
			return invoicedomain.ErrInvalidDates
		}
		if currency := strings.ToUpper(strings.TrimSpace(req.Currency)); currency != "" {
			invoice.Currency = currency
		}

		adj := invoicedomain.Adjustments{
			TaxPercentage:      req.TaxPercentage,
			DiscountPercentage: req.DiscountPercentage,
			DiscountAmount:     req.DiscountAmount,
		}
		category := strings.TrimSpace(req.Category)
		totals, err := s.validate(req.Items, adj, invoice.Currency, category)
		if err != nil {
			return err
		}

		invoice.Subtotal = totals.Subtotal
		invoice.TaxPercentage = req.TaxPercentage
		invoice.TaxAmount = totals.TaxAmount
		invoice.DiscountPercentage = req.DiscountPercentage
		invoice.DiscountAmount = totals.DiscountAmount
		invoice.Total = totals.Total
		invoice.Notes = strings.TrimSpace(req.Notes)
		invoice.Category = category
		invoice.UpdatedAt = s.clock.Now()

		if err := s.repo.UpdateHeader(ctx, tx, invoice); err != nil {
			return err
		}
		if err := s.repo.DeleteItems(ctx, tx, invoice.ID); err != nil {
			return err
		}
		items = s.buildItems(invoice.ID, req.Items)
		if err := s.repo.InsertItems(ctx, tx, items); err != nil {
			return err
		}
		updated = *invoice
		return nil
	})
	if err != nil {
		return invoicedomain.InvoiceDetail{}, err
	}

	paid, err := s.repo.PaidAmounts(ctx, s.db, []snowflake.ID{updated.ID})
	if err != nil {
		return invoicedomain.InvoiceDetail{}, err
	}
	return invoicedomain.InvoiceDetail{
		InvoiceView: s.view(updated, paid[updated.ID]),
		Items:       items,
		Client:      client,
	}, nil
}

func (s *Service) Get(ctx context.Context, id string) (invoicedomain.InvoiceDetail, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.InvoiceDetail{}, err
	}
	invoice, err := s.repo.FindByID(ctx, s.db, invoiceID, false)
	if err != nil {
		return invoicedomain.InvoiceDetail{}, err
	}
	if invoice == nil {
		return invoicedomain.InvoiceDetail{}, invoicedomain.ErrInvoiceNotFound
	}

	items, err := s.repo.ListItems(ctx, s.db, invoice.ID)
	if err != nil {
		return invoicedomain.InvoiceDetail{}, err
	}
	paid, err := s.repo.PaidAmounts(ctx, s.db, []snowflake.ID{invoice.ID})
	if err != nil {
		return invoicedomain.InvoiceDetail{}, err
	}
	// The client may have been deleted; the invoice stays readable.
	client, err := s.clients.FindByID(ctx, s.db, invoice.ClientID)
	if err != nil {
		return invoicedomain.InvoiceDetail{}, err
	}

	return invoicedomain.InvoiceDetail{
		InvoiceView: s.view(*invoice, paid[invoice.ID]),
		Items:       items,
		Client:      client,
	}, nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	filter := invoicedomain.ListInvoiceFilter{
		Status:     req.Status,
		Category:   strings.TrimSpace(req.Category),
		IssuedFrom: req.IssuedFrom,
		IssuedTo:   req.IssuedTo,
		Today:      clock.Today(s.clock),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidStatus
	}
	if strings.TrimSpace(req.ClientID) != "" {
		clientID, err := parseClientID(req.ClientID)
		if err != nil {
			return invoicedomain.ListInvoiceResponse{}, err
		}
		filter.ClientID = clientID
	}
	if strings.TrimSpace(req.RecurringID) != "" {
		recurringID, err := snowflake.ParseString(strings.TrimSpace(req.RecurringID))
		if err != nil {
			return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidInvoiceID
		}
		filter.RecurringID = recurringID
	}

	page := req.Pagination
	items, err := s.repo.List(ctx, s.db, filter, page)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}
	items, pageInfo := pagination.Trim(items, page.Size(), func(invoice *invoicedomain.Invoice) string {
		return invoice.ID.String()
	})

	ids := make([]snowflake.ID, 0, len(items))
	for _, item := range items {
		if item != nil {
			ids = append(ids, item.ID)
		}
	}
	paid, err := s.repo.PaidAmounts(ctx, s.db, ids)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	invoices := make([]invoicedomain.InvoiceView, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, s.view(*item, paid[item.ID]))
	}

	resp := invoicedomain.ListInvoiceResponse{Invoices: invoices}
	resp.PageInfo = pageInfo
	return resp, nil
}

func (s *Service) PreviewNumber(ctx context.Context, settings settingsdomain.Settings, clientID string, issuedAt time.Time) (string, error) {
	id, err := parseClientID(clientID)
	if err != nil {
		return "", err
	}
	client, err := s.clients.FindByID(ctx, s.db, id)
	if err != nil {
		return "", err
	}
	if client == nil {
		return "", invoicedomain.ErrInvalidClient
	}
	if issuedAt.IsZero() {
		issuedAt = clock.Today(s.clock)
	}

	template := s.numberTemplate()
	tokens := numberTokens(settings, client.Abbreviation(), issuedAt)
	prefix, err := numbering.SearchPrefix(template, tokens)
	if err != nil {
		return "", err
	}
	seq, err := s.numbers.Peek(ctx, s.db, prefix)
	if err != nil {
		return "", err
	}
	return numbering.FormatInvoiceNumber(template, tokens, seq)
}

func (s *Service) MarkSent(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	return s.transition(ctx, id, invoicedomain.InvoiceStatusSent)
}

func (s *Service) MarkPaid(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	return s.transition(ctx, id, invoicedomain.InvoiceStatusPaid)
}

func (s *Service) Cancel(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	return s.transition(ctx, id, invoicedomain.InvoiceStatusCancelled)
}

func (s *Service) MarkDelivered(ctx context.Context, id snowflake.ID, channel string) (invoicedomain.Invoice, error) {
	var updated invoicedomain.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.LockForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		switch channel {
		case invoicedomain.DeliveryChannelEmail:
			invoice.SentOnEmail = true
		case invoicedomain.DeliveryChannelWhatsApp:
			invoice.SentOnWhatsApp = true
		}
		from := invoice.Status
		if from == invoicedomain.InvoiceStatusDraft {
			invoice.Status = invoicedomain.InvoiceStatusSent
		}
		invoice.UpdatedAt = s.clock.Now()
		if err := s.repo.UpdateHeader(ctx, tx, invoice); err != nil {
			return err
		}
		if from != invoice.Status {
			s.log.Info("invoice status changed",
				zap.String("invoice_id", invoice.ID.String()),
				zap.String("from", string(from)),
				zap.String("to", string(invoice.Status)),
				zap.String("trigger", channel),
			)
		}
		updated = *invoice
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	return updated, nil
}

func (s *Service) LockForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*invoicedomain.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, invoicedomain.ErrInvoiceNotFound
	}
	return invoice, nil
}

func (s *Service) TransitionTx(ctx context.Context, tx *gorm.DB, invoice *invoicedomain.Invoice, to invoicedomain.InvoiceStatus) error {
	if invoice == nil {
		return invoicedomain.ErrInvoiceNotFound
	}
	if !invoicedomain.CanTransition(invoice.Status, to) {
		return invoicedomain.ErrInvalidTransition
	}
	from := invoice.Status
	invoice.Status = to
	invoice.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdateHeader(ctx, tx, invoice); err != nil {
		return err
	}
	s.log.Info("invoice status changed",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return nil
}

func (s *Service) transition(ctx context.Context, id string, to invoicedomain.InvoiceStatus) (invoicedomain.Invoice, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	var updated invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.LockForUpdate(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if err := s.TransitionTx(ctx, tx, invoice, to); err != nil {
			return err
		}
		updated = *invoice
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	return updated, nil
}

func (s *Service) allocateNumber(ctx context.Context, tx *gorm.DB, settings settingsdomain.Settings, abbr string, issuedAt time.Time) (string, error) {
	template := s.numberTemplate()
	tokens := numberTokens(settings, abbr, issuedAt)
	prefix, err := numbering.SearchPrefix(template, tokens)
	if err != nil {
		return "", err
	}
	seq, err := s.numbers.Allocate(ctx, tx, prefix)
	if err != nil {
		return "", err
	}
	return numbering.FormatInvoiceNumber(template, tokens, seq)
}

func (s *Service) numberTemplate() string {
	if s.catalog == nil {
		return numbering.DefaultTemplate
	}
	if template := s.catalog.Get().NumberTemplate; template != "" {
		return template
	}
	return numbering.DefaultTemplate
}

func (s *Service) validate(lines []invoicedomain.LineInput, adj invoicedomain.Adjustments, currency, category string) (invoicedomain.Totals, error) {
	if len(lines) == 0 {
		return invoicedomain.Totals{}, invoicedomain.ErrMissingItems
	}
	for _, line := range lines {
		if strings.TrimSpace(line.Description) == "" {
			return invoicedomain.Totals{}, invoicedomain.ErrInvalidItemDescription
		}
		if line.Quantity.IsNegative() {
			return invoicedomain.Totals{}, invoicedomain.ErrInvalidItemQuantity
		}
		if line.UnitPrice.IsNegative() {
			return invoicedomain.Totals{}, invoicedomain.ErrInvalidItemUnitPrice
		}
	}
	if !withinPercent(adj.TaxPercentage) {
		return invoicedomain.Totals{}, invoicedomain.ErrInvalidTaxPercentage
	}
	if !withinPercent(adj.DiscountPercentage) || adj.DiscountAmount.IsNegative() {
		return invoicedomain.Totals{}, invoicedomain.ErrInvalidDiscount
	}

	if s.catalog != nil {
		catalog := s.catalog.Get()
		if !catalog.HasCurrency(currency) {
			return invoicedomain.Totals{}, invoicedomain.ErrInvalidCurrency
		}
		if category != "" && !catalog.HasCategory(category) {
			return invoicedomain.Totals{}, invoicedomain.ErrInvalidCategory
		}
	} else if len(currency) != 3 {
		return invoicedomain.Totals{}, invoicedomain.ErrInvalidCurrency
	}

	totals := invoicedomain.ComputeTotals(lines, adj)
	if totals.Total.IsNegative() {
		return invoicedomain.Totals{}, invoicedomain.ErrInvalidDiscount
	}
	return totals, nil
}

func (s *Service) buildItems(invoiceID snowflake.ID, lines []invoicedomain.LineInput) []invoicedomain.InvoiceItem {
	items := make([]invoicedomain.InvoiceItem, 0, len(lines))
	for i, line := range lines {
		items = append(items, invoicedomain.InvoiceItem{
			ID:          s.genID.Generate(),
			InvoiceID:   invoiceID,
			Description: strings.TrimSpace(line.Description),
			Quantity:    line.Quantity.Round(2),
			UnitPrice:   line.UnitPrice.Round(2),
			Amount:      invoicedomain.LineAmount(line.Quantity, line.UnitPrice),
			SortOrder:   i,
		})
	}
	return items
}

func (s *Service) view(invoice invoicedomain.Invoice, paid decimal.Decimal) invoicedomain.InvoiceView {
	due := invoice.Total.Sub(paid)
	if due.IsNegative() {
		due = decimal.Zero
	}
	return invoicedomain.InvoiceView{
		Invoice:         invoice,
		EffectiveStatus: invoice.EffectiveStatus(clock.Today(s.clock)),
		AmountPaid:      paid,
		AmountDue:       due,
	}
}

func withinPercent(v decimal.Decimal) bool {
	return !v.IsNegative() && v.LessThanOrEqual(hundred)
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, invoicedomain.ErrInvalidInvoiceID
	}
	return id, nil
}

func parseClientID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, invoicedomain.ErrInvalidClient
	}
	return id, nil
}
