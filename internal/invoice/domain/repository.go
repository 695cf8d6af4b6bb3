package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicedesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	InsertItems(ctx context.Context, db *gorm.DB, items []InvoiceItem) error
	UpdateHeader(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	DeleteItems(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID, forUpdate bool) (*Invoice, error)
	ListItems(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]InvoiceItem, error)
	List(ctx context.Context, db *gorm.DB, filter ListInvoiceFilter, page pagination.Pagination) ([]*Invoice, error)
	PaidAmounts(ctx context.Context, db *gorm.DB, invoiceIDs []snowflake.ID) (map[snowflake.ID]decimal.Decimal, error)
	// LatestNumberWithPrefix returns the invoice number starting with prefix
	// that carries the highest sequence (longest first, then greatest), or ""
	// when none exists.
	LatestNumberWithPrefix(ctx context.Context, db *gorm.DB, prefix string) (string, error)
	// BumpSequence advances the counter for prefix to at least floor and
	// returns the value now reserved.
	BumpSequence(ctx context.Context, db *gorm.DB, prefix string, floor int64) (int64, error)
}
