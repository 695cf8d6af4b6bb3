package db

import (
	"fmt"

	"github.com/smallbiznis/invoicedesk/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
)

// Dialect returns the gorm dialector for the configured database. Only
// engines that support INSERT ... ON CONFLICT ... RETURNING are accepted,
// the invoice number counter depends on it.
func Dialect(cfg config.Config) (gorm.Dialector, error) {
	switch cfg.DBType {
	case TypePostgres:
		return postgres.Open(fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.DBHost,
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBName,
			cfg.DBPort,
			cfg.DBSSLMode,
		)), nil
	case TypeSQLite:
		return sqlite.Open(cfg.DBPath), nil
	default:
		return nil, fmt.Errorf("unsupported %s type", cfg.DBType)
	}
}

// IsPostgres reports whether the handle talks to postgres. Row locking
// clauses are only emitted there.
func IsPostgres(db *gorm.DB) bool {
	return db != nil && db.Dialector != nil && db.Dialector.Name() == TypePostgres
}
