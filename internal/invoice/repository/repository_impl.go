package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/pkg/db"
	"github.com/smallbiznis/invoicedesk/pkg/db/option"
	"github.com/smallbiznis/invoicedesk/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, tx *gorm.DB, invoice *domain.Invoice) error {
	return tx.WithContext(ctx).Create(invoice).Error
}

func (r *repo) InsertItems(ctx context.Context, tx *gorm.DB, items []domain.InvoiceItem) error {
	if len(items) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&items).Error
}

func (r *repo) UpdateHeader(ctx context.Context, tx *gorm.DB, invoice *domain.Invoice) error {
	return tx.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("id = ?", invoice.ID).
		Updates(map[string]any{
			"client_id":           invoice.ClientID,
			"date_of_issue":       invoice.DateOfIssue,
			"date_due":            invoice.DateDue,
			"status":              invoice.Status,
			"subtotal":            invoice.Subtotal,
			"tax_percentage":      invoice.TaxPercentage,
			"tax_amount":          invoice.TaxAmount,
			"discount_percentage": invoice.DiscountPercentage,
			"discount_amount":     invoice.DiscountAmount,
			"total":               invoice.Total,
			"currency":            invoice.Currency,
			"notes":               invoice.Notes,
			"category":            invoice.Category,
			"sent_on_whatsapp":    invoice.SentOnWhatsApp,
			"sent_on_email":       invoice.SentOnEmail,
			"updated_at":          invoice.UpdatedAt,
		}).Error
}

func (r *repo) DeleteItems(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID) error {
	return tx.WithContext(ctx).Exec(`DELETE FROM invoice_items WHERE invoice_id = ?`, invoiceID).Error
}

func (r *repo) FindByID(ctx context.Context, tx *gorm.DB, id snowflake.ID, forUpdate bool) (*domain.Invoice, error) {
	stmt := tx.WithContext(ctx)
	if forUpdate && db.IsPostgres(tx) {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var invoice domain.Invoice
	err := stmt.Where("id = ?", id).Take(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repo) ListItems(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID) ([]domain.InvoiceItem, error) {
	var items []domain.InvoiceItem
	err := tx.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("sort_order asc, id asc").
		Find(&items).Error
	return items, err
}

func (r *repo) List(ctx context.Context, tx *gorm.DB, filter domain.ListInvoiceFilter, page pagination.Pagination) ([]*domain.Invoice, error) {
	stmt := tx.WithContext(ctx).Model(&domain.Invoice{})

	today := filter.Today
	switch filter.Status {
	case "":
	case domain.InvoiceStatusOverdue:
		stmt = stmt.Where("status IN ? AND date_due < ?", openStatuses, today)
	case domain.InvoiceStatusSent:
		stmt = stmt.Where("status IN ? AND date_due >= ?", openStatuses, today)
	default:
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.ClientID != 0 {
		stmt = stmt.Where("client_id = ?", filter.ClientID)
	}
	if filter.RecurringID != 0 {
		stmt = stmt.Where("recurring_invoice_id = ?", filter.RecurringID)
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		stmt = stmt.Where("category = ?", category)
	}
	if filter.IssuedFrom != nil {
		stmt = stmt.Where("date_of_issue >= ?", *filter.IssuedFrom)
	}
	if filter.IssuedTo != nil {
		stmt = stmt.Where("date_of_issue <= ?", *filter.IssuedTo)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)

	var invoices []*domain.Invoice
	if err := stmt.Order("id desc").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

var openStatuses = []domain.InvoiceStatus{domain.InvoiceStatusSent, domain.InvoiceStatusOverdue}

type paymentRow struct {
	InvoiceID snowflake.ID
	Amount    decimal.Decimal
}

// PaidAmounts sums payments per invoice. The sum happens here rather than in
// SQL so sqlite's float aggregation never touches money.
func (r *repo) PaidAmounts(ctx context.Context, tx *gorm.DB, invoiceIDs []snowflake.ID) (map[snowflake.ID]decimal.Decimal, error) {
	out := make(map[snowflake.ID]decimal.Decimal, len(invoiceIDs))
	if len(invoiceIDs) == 0 {
		return out, nil
	}
	var rows []paymentRow
	err := tx.WithContext(ctx).Raw(
		`SELECT invoice_id, amount FROM payments WHERE invoice_id IN ?`,
		invoiceIDs,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.InvoiceID] = out[row.InvoiceID].Add(row.Amount)
	}
	return out, nil
}

func (r *repo) LatestNumberWithPrefix(ctx context.Context, tx *gorm.DB, prefix string) (string, error) {
	var numbers []string
	err := tx.WithContext(ctx).Raw(
		`SELECT invoice_number FROM invoices
		 WHERE invoice_number LIKE ? ESCAPE '\'
		 ORDER BY LENGTH(invoice_number) DESC, invoice_number DESC
		 LIMIT 1`,
		escapeLike(prefix)+"%",
	).Scan(&numbers).Error
	if err != nil {
		return "", err
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}

func (r *repo) BumpSequence(ctx context.Context, tx *gorm.DB, prefix string, floor int64) (int64, error) {
	var value int64
	err := tx.WithContext(ctx).Raw(
		`INSERT INTO invoice_number_sequences (prefix, last_value, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (prefix) DO UPDATE SET
		   last_value = CASE
		     WHEN invoice_number_sequences.last_value + 1 > excluded.last_value
		       THEN invoice_number_sequences.last_value + 1
		     ELSE excluded.last_value
		   END,
		   updated_at = excluded.updated_at
		 RETURNING last_value`,
		prefix,
		floor,
		time.Now().UTC(),
	).Scan(&value).Error
	if err != nil {
		return 0, err
	}
	if value <= 0 {
		return 0, domain.ErrNumberAllocation
	}
	return value, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
