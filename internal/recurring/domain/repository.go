package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, template *RecurringInvoice) error
	InsertItems(ctx context.Context, db *gorm.DB, items []RecurringInvoiceItem) error
	Update(ctx context.Context, db *gorm.DB, template *RecurringInvoice) error
	// Delete removes the template and its items. Generated invoices stay.
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*RecurringInvoice, error)
	// ClaimByID row-locks the template on postgres, skipping it when another
	// transaction already holds it. A nil result means not available.
	ClaimByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*RecurringInvoice, error)
	ListItems(ctx context.Context, db *gorm.DB, templateID snowflake.ID) ([]RecurringInvoiceItem, error)
	List(ctx context.Context, db *gorm.DB, filter ListRecurringFilter) ([]*RecurringInvoice, error)
	ListDueIDs(ctx context.Context, db *gorm.DB, today time.Time, limit int) ([]snowflake.ID, error)
}
