package email

import (
	"github.com/smallbiznis/invoicedesk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.email",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	switch cfg.Email.Provider {
	case "smtp":
		return NewSMTP(Config{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			Username: cfg.Email.SMTPUsername,
			Password: cfg.Email.SMTPPassword,
		})
	case "resend":
		return NewResend(cfg.Email.ResendAPIKey, cfg.Email.ResendBaseURL)
	default:
		log.Named("providers.email").Warn("email provider disabled, messages are dropped",
			zap.String("provider", cfg.Email.Provider))
		return &NoOpProvider{}
	}
}
