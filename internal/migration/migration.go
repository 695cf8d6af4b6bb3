package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	clientdomain "github.com/smallbiznis/invoicedesk/internal/client/domain"
	deliverydomain "github.com/smallbiznis/invoicedesk/internal/delivery/domain"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/invoicedesk/internal/payment/domain"
	recurringdomain "github.com/smallbiznis/invoicedesk/internal/recurring/domain"
	settingsdomain "github.com/smallbiznis/invoicedesk/internal/settings/domain"
	"github.com/smallbiznis/invoicedesk/pkg/db"
	"gorm.io/gorm"
)

// Run brings the schema up to date. Postgres uses the embedded SQL
// migrations; sqlite, used for local runs and tests, is migrated from the
// gorm models.
func Run(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	if !db.IsPostgres(conn) {
		return AutoMigrate(conn)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB)
}

// RunMigrations applies the embedded postgres migrations.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate creates every table from its gorm model.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&clientdomain.Client{},
		&recurringdomain.RecurringInvoice{},
		&recurringdomain.RecurringInvoiceItem{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
		&invoicedomain.InvoiceNumberSequence{},
		&paymentdomain.Payment{},
		&settingsdomain.Settings{},
		&deliverydomain.DeliveryLog{},
	)
}
