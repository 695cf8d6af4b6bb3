package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicedesk/internal/clock"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"github.com/smallbiznis/invoicedesk/internal/settings/domain"
	"github.com/smallbiznis/invoicedesk/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var prefixRe = regexp.MustCompile(`^[A-Z0-9]{1,16}$`)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Catalog *config.InvoicingConfigHolder
}

type Service struct {
	log     *zap.Logger
	clock   clock.Clock
	catalog *config.InvoicingConfigHolder
	repo    repository.Repository[domain.Settings]
}

func New(p Params) domain.Service {
	return &Service{
		log:     p.Log.Named("settings.service"),
		clock:   p.Clock,
		catalog: p.Catalog,
		repo:    repository.ProvideStore[domain.Settings](p.DB),
	}
}

// Get returns the stored settings, or the built-in defaults when the row
// has not been written yet.
func (s *Service) Get(ctx context.Context) (domain.Settings, error) {
	row, err := s.repo.Get(ctx, domain.SingletonID)
	if err != nil {
		return domain.Settings{}, err
	}
	if row == nil {
		return domain.Defaults(), nil
	}
	return *row, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateSettingsRequest) (domain.Settings, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return domain.Settings{}, err
	}

	next, err := s.apply(current, req)
	if err != nil {
		return domain.Settings{}, err
	}
	next.ID = domain.SingletonID
	next.UpdatedAt = s.clock.Now()

	if err := s.repo.Upsert(ctx, &next); err != nil {
		return domain.Settings{}, err
	}

	s.log.Info("settings updated")
	return next, nil
}

func (s *Service) apply(cur domain.Settings, req domain.UpdateSettingsRequest) (domain.Settings, error) {
	if req.CompanyName != nil {
		name := strings.TrimSpace(*req.CompanyName)
		if name == "" {
			return cur, domain.ErrInvalidCompanyName
		}
		cur.CompanyName = name
	}
	if req.CompanyEmail != nil {
		cur.CompanyEmail = strings.TrimSpace(*req.CompanyEmail)
	}
	if req.CompanyPhone != nil {
		cur.CompanyPhone = strings.TrimSpace(*req.CompanyPhone)
	}
	if req.CompanyAddress != nil {
		cur.CompanyAddress = strings.TrimSpace(*req.CompanyAddress)
	}
	if req.CompanyWebsite != nil {
		cur.CompanyWebsite = strings.TrimSpace(*req.CompanyWebsite)
	}
	if req.InvoicePrefix != nil {
		prefix := strings.ToUpper(strings.TrimSpace(*req.InvoicePrefix))
		if !prefixRe.MatchString(prefix) {
			return cur, domain.ErrInvalidPrefix
		}
		cur.InvoicePrefix = prefix
	}
	if req.InvoiceNumberDigits != nil {
		if *req.InvoiceNumberDigits < 3 || *req.InvoiceNumberDigits > 6 {
			return cur, domain.ErrInvalidDigits
		}
		cur.InvoiceNumberDigits = *req.InvoiceNumberDigits
	}
	if req.DefaultCurrency != nil {
		code := strings.ToUpper(strings.TrimSpace(*req.DefaultCurrency))
		if s.catalog != nil && !s.catalog.Get().HasCurrency(code) {
			return cur, domain.ErrInvalidCurrency
		}
		cur.DefaultCurrency = code
	}
	if req.DefaultTaxPercentage != nil {
		tax := *req.DefaultTaxPercentage
		if tax.IsNegative() || tax.GreaterThan(decimal.NewFromInt(100)) {
			return cur, domain.ErrInvalidTax
		}
		cur.DefaultTaxPercentage = tax
	}
	if req.DefaultPaymentTerms != nil {
		if *req.DefaultPaymentTerms < 0 {
			return cur, domain.ErrInvalidTerms
		}
		cur.DefaultPaymentTerms = *req.DefaultPaymentTerms
	}
	if req.DefaultNotes != nil {
		cur.DefaultNotes = *req.DefaultNotes
	}
	return cur, nil
}
