package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicedesk/internal/clock"
	"github.com/smallbiznis/invoicedesk/internal/config"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/invoicedesk/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        paymentdomain.Repository
	InvoiceRepo invoicedomain.Repository
	InvoiceSvc  invoicedomain.Service
	Catalog     *config.InvoicingConfigHolder
	Metrics     *metrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        paymentdomain.Repository
	invoiceRepo invoicedomain.Repository
	invoiceSvc  invoicedomain.Service
	catalog     *config.InvoicingConfigHolder
	metrics     *metrics.Metrics
}

func New(p Params) paymentdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("payment.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		invoiceRepo: p.InvoiceRepo,
		invoiceSvc:  p.InvoiceSvc,
		catalog:     p.Catalog,
		metrics:     p.Metrics,
	}
}

// Record stores a payment and, when the invoice is sent and now fully
// covered, marks it paid in the same transaction.
func (s *Service) Record(ctx context.Context, invoiceID string, req paymentdomain.RecordPaymentRequest) (paymentdomain.RecordPaymentResult, error) {
	id, err := parseInvoiceID(invoiceID)
	if err != nil {
		return paymentdomain.RecordPaymentResult{}, err
	}
	if !req.Amount.IsPositive() {
		return paymentdomain.RecordPaymentResult{}, paymentdomain.ErrInvalidAmount
	}
	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if method == "" || (s.catalog != nil && !s.catalog.Get().HasPaymentMethod(method)) {
		return paymentdomain.RecordPaymentResult{}, paymentdomain.ErrInvalidPaymentMethod
	}
	paidOn := clock.Today(s.clock)
	if req.PaymentDate != nil && !req.PaymentDate.IsZero() {
		paidOn = clock.StartOfDay(*req.PaymentDate)
	}

	var result paymentdomain.RecordPaymentResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.invoiceSvc.LockForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if invoice.Status.Terminal() {
			return paymentdomain.ErrInvoiceClosed
		}

		payment := paymentdomain.Payment{
			ID:            s.genID.Generate(),
			InvoiceID:     invoice.ID,
			Amount:        req.Amount.Round(2),
			PaymentDate:   datatypes.Date(paidOn),
			PaymentMethod: method,
			Reference:     strings.TrimSpace(req.Reference),
			Notes:         strings.TrimSpace(req.Notes),
			CreatedAt:     s.clock.Now(),
		}
		if err := s.repo.Insert(ctx, tx, &payment); err != nil {
			return err
		}

		paid, err := s.invoiceRepo.PaidAmounts(ctx, tx, []snowflake.ID{invoice.ID})
		if err != nil {
			return err
		}
		amountPaid := paid[invoice.ID]

		markedPaid := false
		if amountPaid.GreaterThanOrEqual(invoice.Total) && invoice.Status.Normalize() == invoicedomain.InvoiceStatusSent {
			if err := s.invoiceSvc.TransitionTx(ctx, tx, invoice, invoicedomain.InvoiceStatusPaid); err != nil {
				return err
			}
			markedPaid = true
		}

		result = paymentdomain.RecordPaymentResult{
			Payment:    payment,
			Invoice:    *invoice,
			AmountPaid: amountPaid,
			MarkedPaid: markedPaid,
		}
		return nil
	})
	if err != nil {
		return paymentdomain.RecordPaymentResult{}, err
	}

	s.metrics.RecordPayment(ctx, method)
	s.log.Info("payment recorded",
		zap.String("invoice_id", id.String()),
		zap.String("payment_id", result.Payment.ID.String()),
		zap.String("amount", result.Payment.Amount.StringFixed(2)),
		zap.Bool("marked_paid", result.MarkedPaid),
	)
	return result, nil
}

func (s *Service) List(ctx context.Context, invoiceID string) ([]paymentdomain.Payment, error) {
	id, err := parseInvoiceID(invoiceID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListByInvoice(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	payments := make([]paymentdomain.Payment, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		payments = append(payments, *item)
	}
	return payments, nil
}

func parseInvoiceID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, invoicedomain.ErrInvalidInvoiceID
	}
	return id, nil
}
