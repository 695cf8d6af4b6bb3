package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicedesk/internal/recurring/domain"
	"github.com/smallbiznis/invoicedesk/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, tx *gorm.DB, template *domain.RecurringInvoice) error {
	return tx.WithContext(ctx).Create(template).Error
}

func (r *repo) InsertItems(ctx context.Context, tx *gorm.DB, items []domain.RecurringInvoiceItem) error {
	if len(items) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&items).Error
}

func (r *repo) Update(ctx context.Context, tx *gorm.DB, template *domain.RecurringInvoice) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE recurring_invoices
		 SET is_active = ?, generated_count = ?, next_generation_date = ?, updated_at = ?
		 WHERE id = ?`,
		template.IsActive,
		template.GeneratedCount,
		template.NextGenerationDate,
		template.UpdatedAt,
		template.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, tx *gorm.DB, id snowflake.ID) (bool, error) {
	if err := tx.WithContext(ctx).Exec(
		`DELETE FROM recurring_invoice_items WHERE recurring_invoice_id = ?`, id,
	).Error; err != nil {
		return false, err
	}
	res := tx.WithContext(ctx).Exec(`DELETE FROM recurring_invoices WHERE id = ?`, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindByID(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.RecurringInvoice, error) {
	return r.find(tx.WithContext(ctx), id)
}

func (r *repo) ClaimByID(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.RecurringInvoice, error) {
	stmt := tx.WithContext(ctx)
	if db.IsPostgres(tx) {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
	}
	return r.find(stmt, id)
}

func (r *repo) find(stmt *gorm.DB, id snowflake.ID) (*domain.RecurringInvoice, error) {
	var template domain.RecurringInvoice
	err := stmt.Where("id = ?", id).Take(&template).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *repo) ListItems(ctx context.Context, tx *gorm.DB, templateID snowflake.ID) ([]domain.RecurringInvoiceItem, error) {
	var items []domain.RecurringInvoiceItem
	err := tx.WithContext(ctx).
		Where("recurring_invoice_id = ?", templateID).
		Order("sort_order asc, id asc").
		Find(&items).Error
	return items, err
}

func (r *repo) List(ctx context.Context, tx *gorm.DB, filter domain.ListRecurringFilter) ([]*domain.RecurringInvoice, error) {
	stmt := tx.WithContext(ctx).Model(&domain.RecurringInvoice{})
	if filter.ClientID != 0 {
		stmt = stmt.Where("client_id = ?", filter.ClientID)
	}
	if filter.ActiveOnly {
		stmt = stmt.Where("is_active = ?", true)
	}
	var items []*domain.RecurringInvoice
	if err := stmt.Order("created_at desc, id desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListDueIDs(ctx context.Context, tx *gorm.DB, today time.Time, limit int) ([]snowflake.ID, error) {
	stmt := tx.WithContext(ctx).
		Model(&domain.RecurringInvoice{}).
		Where("is_active = ? AND next_generation_date <= ?", true, today).
		Order("next_generation_date asc, id asc")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	var ids []snowflake.ID
	if err := stmt.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
