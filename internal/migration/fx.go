package migration

import (
	"github.com/smallbiznis/invoicedesk/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, log *zap.Logger) error {
		if err := Run(conn); err != nil {
			return err
		}
		if err := seed.EnsureSettings(conn); err != nil {
			return err
		}
		log.Named("migration").Info("schema ready")
		return nil
	}),
)
