package whatsapp

import (
	"github.com/smallbiznis/invoicedesk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.whatsapp",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	if cfg.WhatsApp.Token == "" {
		log.Named("providers.whatsapp").Warn("whatsapp token not set, documents are dropped")
		return &NoOpProvider{}
	}
	return NewWhapi(cfg.WhatsApp.BaseURL, cfg.WhatsApp.Token)
}
