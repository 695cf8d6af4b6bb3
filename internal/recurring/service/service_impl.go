package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	clientdomain "github.com/smallbiznis/invoicedesk/internal/client/domain"
	"github.com/smallbiznis/invoicedesk/internal/clock"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/observability/metrics"
	"github.com/smallbiznis/invoicedesk/internal/recurring/domain"
	settingsdomain "github.com/smallbiznis/invoicedesk/internal/settings/domain"
	"github.com/smallbiznis/invoicedesk/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const maxCreateAttempts = 5

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	Clients    clientdomain.Repository
	InvoiceSvc invoicedomain.Service
	Metrics    *metrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	clients    clientdomain.Repository
	invoiceSvc invoicedomain.Service
	metrics    *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("recurring.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		clients:    p.Clients,
		invoiceSvc: p.InvoiceSvc,
		metrics:    p.Metrics,
	}
}

// Create stores the template, its items and the first invoice in one
// transaction.
func (s *Service) Create(ctx context.Context, settings settingsdomain.Settings, req domain.CreateRecurringRequest) (domain.CreateRecurringResult, error) {
	now := s.clock.Now()
	next, err := domain.NextGenerationDate(req.DayOfMonth, now)
	if err != nil {
		return domain.CreateRecurringResult{}, err
	}

	var result domain.CreateRecurringResult
	err = db.RetryOnDuplicate(ctx, maxCreateAttempts, func(attempt int) error {
		if attempt > 1 {
			s.metrics.RecordAllocationRetry(ctx)
		}
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			templateID := s.genID.Generate()
			invoice, _, err := s.invoiceSvc.CreateTx(ctx, tx, settings, invoicedomain.CreateInvoiceRequest{
				ClientID:           req.ClientID,
				DateOfIssue:        req.DateOfIssue,
				DateDue:            req.DateDue,
				Items:              req.Items,
				TaxPercentage:      req.TaxPercentage,
				DiscountPercentage: req.DiscountPercentage,
				DiscountAmount:     req.DiscountAmount,
				Currency:           req.Currency,
				Notes:              req.Notes,
				Category:           req.Category,
				RecurringInvoiceID: &templateID,
			})
			if err != nil {
				return err
			}

			template := domain.RecurringInvoice{
				ID:                 templateID,
				ClientID:           invoice.ClientID,
				Currency:           invoice.Currency,
				TaxPercentage:      invoice.TaxPercentage,
				DiscountPercentage: invoice.DiscountPercentage,
				DiscountAmount:     req.DiscountAmount.Round(2),
				Notes:              invoice.Notes,
				Category:           invoice.Category,
				DayOfMonth:         req.DayOfMonth,
				IsActive:           true,
				AutoSendWhatsApp:   req.AutoSendWhatsApp,
				GeneratedCount:     1,
				NextGenerationDate: datatypes.Date(next),
				CreatedAt:          now,
				UpdatedAt:          now,
			}
			if err := s.repo.Insert(ctx, tx, &template); err != nil {
				return err
			}
			items := s.buildItems(templateID, req.Items)
			if err := s.repo.InsertItems(ctx, tx, items); err != nil {
				return err
			}

			result = domain.CreateRecurringResult{
				Template: domain.RecurringDetail{RecurringInvoice: template, Items: items},
				Invoice:  invoice,
			}
			return nil
		})
	})
	if errors.Is(err, db.ErrRetriesExhausted) {
		return domain.CreateRecurringResult{}, invoicedomain.ErrInvoiceNumberConflict
	}
	if err != nil {
		return domain.CreateRecurringResult{}, err
	}

	s.metrics.RecordInvoiceCreated(ctx, "manual")
	s.log.Info("recurring invoice created",
		zap.String("recurring_invoice_id", result.Template.ID.String()),
		zap.String("invoice_number", result.Invoice.InvoiceNumber),
		zap.Time("next_generation_date", next),
	)
	return result, nil
}

func (s *Service) Activate(ctx context.Context, id string) (domain.RecurringInvoice, error) {
	return s.setActive(ctx, id, true)
}

func (s *Service) Pause(ctx context.Context, id string) (domain.RecurringInvoice, error) {
	return s.setActive(ctx, id, false)
}

func (s *Service) setActive(ctx context.Context, id string, active bool) (domain.RecurringInvoice, error) {
	templateID, err := parseID(id)
	if err != nil {
		return domain.RecurringInvoice{}, err
	}

	var updated domain.RecurringInvoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		template, err := s.repo.FindByID(ctx, tx, templateID)
		if err != nil {
			return err
		}
		if template == nil {
			return domain.ErrNotFound
		}

		now := s.clock.Now()
		template.IsActive = active
		if active {
			next, err := domain.NextGenerationDate(template.DayOfMonth, now)
			if err != nil {
				return err
			}
			template.NextGenerationDate = datatypes.Date(next)
		}
		template.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, template); err != nil {
			return err
		}
		updated = *template
		return nil
	})
	if err != nil {
		return domain.RecurringInvoice{}, err
	}
	s.log.Info("recurring invoice toggled",
		zap.String("recurring_invoice_id", templateID.String()),
		zap.Bool("active", active),
	)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	templateID, err := parseID(id)
	if err != nil {
		return err
	}
	var deleted bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		deleted, err = s.repo.Delete(ctx, tx, templateID)
		return err
	})
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}
	s.log.Info("recurring invoice deleted", zap.String("recurring_invoice_id", templateID.String()))
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.RecurringDetail, error) {
	templateID, err := parseID(id)
	if err != nil {
		return domain.RecurringDetail{}, err
	}
	template, err := s.repo.FindByID(ctx, s.db, templateID)
	if err != nil {
		return domain.RecurringDetail{}, err
	}
	if template == nil {
		return domain.RecurringDetail{}, domain.ErrNotFound
	}
	items, err := s.repo.ListItems(ctx, s.db, templateID)
	if err != nil {
		return domain.RecurringDetail{}, err
	}
	client, err := s.clients.FindByID(ctx, s.db, template.ClientID)
	if err != nil {
		return domain.RecurringDetail{}, err
	}
	return domain.RecurringDetail{RecurringInvoice: *template, Items: items, Client: client}, nil
}

func (s *Service) List(ctx context.Context, filter domain.ListRecurringFilter) ([]domain.RecurringInvoice, error) {
	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}
	templates := make([]domain.RecurringInvoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		templates = append(templates, *item)
	}
	return templates, nil
}

func (s *Service) GenerateDue(ctx context.Context, settings settingsdomain.Settings, limit int) (domain.GenerateResult, error) {
	today := clock.Today(s.clock)
	ids, err := s.repo.ListDueIDs(ctx, s.db, today, limit)
	if err != nil {
		return domain.GenerateResult{}, err
	}

	var result domain.GenerateResult
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		generated, ok, err := s.generateOne(ctx, settings, id, today)
		if errors.Is(err, errClientGone) {
			result.Paused++
			s.log.Warn("recurring template paused, its client no longer exists",
				zap.String("recurring_invoice_id", id.String()),
			)
			continue
		}
		if err != nil {
			result.Failed++
			s.log.Error("recurring generation failed",
				zap.String("recurring_invoice_id", id.String()),
				zap.Error(err),
			)
			continue
		}
		if !ok {
			continue
		}
		result.Generated = append(result.Generated, generated)
		s.metrics.RecordInvoiceCreated(ctx, "recurring")
		s.log.Info("recurring invoice generated",
			zap.String("recurring_invoice_id", id.String()),
			zap.String("invoice_id", generated.InvoiceID.String()),
			zap.String("invoice_number", generated.InvoiceNumber),
		)
	}
	return result, nil
}

// errClientGone reports a template that generateOne paused because its
// client was deleted.
var errClientGone = errors.New("recurring_client_gone")

// generateOne produces the invoice for one due template. ok is false when
// the template was claimed elsewhere or is no longer due. A template whose
// client was deleted is paused in the same transaction and errClientGone is
// returned, so later runs stop picking it up.
func (s *Service) generateOne(ctx context.Context, settings settingsdomain.Settings, id snowflake.ID, today time.Time) (domain.GeneratedInvoice, bool, error) {
	var (
		generated domain.GeneratedInvoice
		ok        bool
		paused    bool
	)
	err := db.RetryOnDuplicate(ctx, maxCreateAttempts, func(attempt int) error {
		ok, paused = false, false
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			template, err := s.repo.ClaimByID(ctx, tx, id)
			if err != nil {
				return err
			}
			if template == nil || !template.IsActive || time.Time(template.NextGenerationDate).After(today) {
				return nil
			}
			items, err := s.repo.ListItems(ctx, tx, template.ID)
			if err != nil {
				return err
			}

			lines := make([]invoicedomain.LineInput, 0, len(items))
			for _, item := range items {
				lines = append(lines, invoicedomain.LineInput{
					Description: item.Description,
					Quantity:    item.Quantity,
					UnitPrice:   item.UnitPrice,
				})
			}
			tax := template.TaxPercentage
			notes := template.Notes
			issuedAt := today
			templateID := template.ID
			invoice, _, err := s.invoiceSvc.CreateTx(ctx, tx, settings, invoicedomain.CreateInvoiceRequest{
				ClientID:           template.ClientID.String(),
				DateOfIssue:        &issuedAt,
				Items:              lines,
				TaxPercentage:      &tax,
				DiscountPercentage: template.DiscountPercentage,
				DiscountAmount:     template.DiscountAmount,
				Currency:           template.Currency,
				Notes:              &notes,
				Category:           template.Category,
				RecurringInvoiceID: &templateID,
				IsAutoGenerated:    true,
			})
			if errors.Is(err, invoicedomain.ErrInvalidClient) {
				template.IsActive = false
				template.UpdatedAt = s.clock.Now()
				if err := s.repo.Update(ctx, tx, template); err != nil {
					return err
				}
				paused = true
				return nil
			}
			if err != nil {
				return err
			}

			now := s.clock.Now()
			next, err := domain.Advance(time.Time(template.NextGenerationDate), template.DayOfMonth, now)
			if err != nil {
				return err
			}
			template.GeneratedCount++
			template.NextGenerationDate = datatypes.Date(next)
			template.UpdatedAt = now
			if err := s.repo.Update(ctx, tx, template); err != nil {
				return err
			}

			generated = domain.GeneratedInvoice{
				TemplateID:       template.ID,
				InvoiceID:        invoice.ID,
				InvoiceNumber:    invoice.InvoiceNumber,
				AutoSendWhatsApp: template.AutoSendWhatsApp,
			}
			ok = true
			return nil
		})
	})
	if errors.Is(err, db.ErrRetriesExhausted) {
		return domain.GeneratedInvoice{}, false, invoicedomain.ErrInvoiceNumberConflict
	}
	if err == nil && paused {
		return domain.GeneratedInvoice{}, false, errClientGone
	}
	return generated, ok, err
}

func (s *Service) buildItems(templateID snowflake.ID, lines []invoicedomain.LineInput) []domain.RecurringInvoiceItem {
	items := make([]domain.RecurringInvoiceItem, 0, len(lines))
	for i, line := range lines {
		items = append(items, domain.RecurringInvoiceItem{
			ID:                 s.genID.Generate(),
			RecurringInvoiceID: templateID,
			Description:        strings.TrimSpace(line.Description),
			Quantity:           line.Quantity.Round(2),
			UnitPrice:          line.UnitPrice.Round(2),
			Amount:             invoicedomain.LineAmount(line.Quantity, line.UnitPrice),
			SortOrder:          i,
		})
	}
	return items
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
