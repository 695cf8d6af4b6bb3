package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/gosimple/slug"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Category is a reporting bucket for invoices. Key is derived from Label
// when the file omits it.
type Category struct {
	Key   string `mapstructure:"key" json:"value"`
	Label string `mapstructure:"label" json:"label"`
}

type Currency struct {
	Code   string `mapstructure:"code" json:"value"`
	Label  string `mapstructure:"label" json:"label"`
	Symbol string `mapstructure:"symbol" json:"symbol"`
}

type PaymentMethod struct {
	Key   string `mapstructure:"key" json:"value"`
	Label string `mapstructure:"label" json:"label"`
}

// InvoicingConfig is the catalogue of choices offered to invoice forms, plus
// the invoice number template.
type InvoicingConfig struct {
	NumberTemplate string          `mapstructure:"numberTemplate" json:"number_template"`
	Categories     []Category      `mapstructure:"categories" json:"categories"`
	Currencies     []Currency      `mapstructure:"currencies" json:"currencies"`
	PaymentMethods []PaymentMethod `mapstructure:"paymentMethods" json:"payment_methods"`
}

const DefaultNumberTemplate = "{PREFIX}-{ABBR}-{YY}{MM}-{SEQ}"

func DefaultInvoicingConfig() InvoicingConfig {
	cfg := InvoicingConfig{
		NumberTemplate: DefaultNumberTemplate,
		Categories: []Category{
			{Label: "System Maintenance"},
			{Label: "Project Quotation"},
			{Label: "Milestone Payment"},
			{Label: "Hosting"},
			{Label: "Domain"},
			{Label: "Graphic Design"},
			{Label: "Consultation"},
			{Label: "Subscription"},
			{Label: "Other"},
		},
		Currencies: []Currency{
			{Code: "LKR", Label: "Sri Lankan Rupee", Symbol: "LKR"},
			{Code: "USD", Label: "US Dollar", Symbol: "$"},
			{Code: "AED", Label: "UAE Dirham", Symbol: "AED"},
			{Code: "QAR", Label: "Qatari Riyal", Symbol: "QAR"},
			{Code: "SAR", Label: "Saudi Riyal", Symbol: "SAR"},
			{Code: "GBP", Label: "British Pound", Symbol: "£"},
			{Code: "EUR", Label: "Euro", Symbol: "€"},
			{Code: "AUD", Label: "Australian Dollar", Symbol: "A$"},
			{Code: "INR", Label: "Indian Rupee", Symbol: "₹"},
			{Code: "SGD", Label: "Singapore Dollar", Symbol: "S$"},
		},
		PaymentMethods: []PaymentMethod{
			{Key: "bank_transfer", Label: "Bank Transfer"},
			{Key: "cash", Label: "Cash"},
			{Key: "payhere", Label: "PayHere"},
			{Key: "paypal", Label: "PayPal"},
			{Key: "other", Label: "Other"},
		},
	}
	return normalizeInvoicingConfig(cfg)
}

// CategoryKey turns a display label into a stable snake_case key.
func CategoryKey(label string) string {
	return strings.ReplaceAll(slug.Make(label), "-", "_")
}

func (c InvoicingConfig) HasCategory(key string) bool {
	for _, cat := range c.Categories {
		if cat.Key == key {
			return true
		}
	}
	return false
}

func (c InvoicingConfig) HasCurrency(code string) bool {
	_, ok := c.Currency(code)
	return ok
}

func (c InvoicingConfig) Currency(code string) (Currency, bool) {
	for _, cur := range c.Currencies {
		if strings.EqualFold(cur.Code, code) {
			return cur, true
		}
	}
	return Currency{}, false
}

func (c InvoicingConfig) HasPaymentMethod(key string) bool {
	for _, pm := range c.PaymentMethods {
		if pm.Key == key {
			return true
		}
	}
	return false
}

// InvoicingConfigHolder serves the current catalogue and swaps it when the
// backing file changes.
type InvoicingConfigHolder struct {
	current atomic.Value // holds InvoicingConfig
}

// NewStaticInvoicingConfigHolder serves a fixed catalogue.
func NewStaticInvoicingConfigHolder(cfg InvoicingConfig) *InvoicingConfigHolder {
	holder := &InvoicingConfigHolder{}
	holder.current.Store(normalizeInvoicingConfig(cfg))
	return holder
}

func NewInvoicingConfigHolder(log *zap.Logger) (*InvoicingConfigHolder, error) {
	log = log.Named("config.invoicing")
	v := viper.New()

	v.SetConfigName("invoicing")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/invoicedesk")
	v.AddConfigPath(".")

	v.SetEnvPrefix("INVOICEDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		log.Info("invoicing.yml not found, using built-in catalogue")
		return NewStaticInvoicingConfigHolder(DefaultInvoicingConfig()), nil
	}

	cfg, err := decodeInvoicingConfig(v)
	if err != nil {
		return nil, err
	}

	holder := &InvoicingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeInvoicingConfig(v)
		if err != nil {
			log.Warn("invalid invoicing config ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("invoicing config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *InvoicingConfigHolder) Get() InvoicingConfig {
	return h.current.Load().(InvoicingConfig)
}

func decodeInvoicingConfig(v *viper.Viper) (InvoicingConfig, error) {
	defaults := DefaultInvoicingConfig()
	cfg := InvoicingConfig{}
	if err := v.UnmarshalKey("invoicing", &cfg); err != nil {
		return InvoicingConfig{}, err
	}
	if strings.TrimSpace(cfg.NumberTemplate) == "" {
		cfg.NumberTemplate = defaults.NumberTemplate
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = defaults.Categories
	}
	if len(cfg.Currencies) == 0 {
		cfg.Currencies = defaults.Currencies
	}
	if len(cfg.PaymentMethods) == 0 {
		cfg.PaymentMethods = defaults.PaymentMethods
	}
	cfg = normalizeInvoicingConfig(cfg)
	if err := validateInvoicingConfig(cfg); err != nil {
		return InvoicingConfig{}, err
	}
	return cfg, nil
}

func normalizeInvoicingConfig(cfg InvoicingConfig) InvoicingConfig {
	for i := range cfg.Categories {
		if strings.TrimSpace(cfg.Categories[i].Key) == "" {
			cfg.Categories[i].Key = CategoryKey(cfg.Categories[i].Label)
		}
	}
	for i := range cfg.Currencies {
		cfg.Currencies[i].Code = strings.ToUpper(strings.TrimSpace(cfg.Currencies[i].Code))
		if cfg.Currencies[i].Symbol == "" {
			cfg.Currencies[i].Symbol = cfg.Currencies[i].Code
		}
	}
	return cfg
}

func validateInvoicingConfig(cfg InvoicingConfig) error {
	if !strings.Contains(cfg.NumberTemplate, "{SEQ") {
		return errors.New("invoicing.numberTemplate must contain a {SEQ} token")
	}
	for _, cat := range cfg.Categories {
		if cat.Key == "" {
			return errors.New("invoicing.categories entries need a label or key")
		}
	}
	for _, cur := range cfg.Currencies {
		if len(cur.Code) != 3 {
			return errors.New("invoicing.currencies codes must be 3 letters")
		}
	}
	return nil
}
