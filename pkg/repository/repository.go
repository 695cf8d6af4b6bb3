package repository

import (
	"context"

	"github.com/smallbiznis/invoicedesk/pkg/db/option"
	"gorm.io/gorm"
)

// Repository is a generic gorm store for tables keyed by "id" that need no
// bespoke queries, such as the settings singleton.
type Repository[T any] interface {
	WithTx(tx *gorm.DB) Repository[T]
	Get(ctx context.Context, id any) (*T, error)
	Find(ctx context.Context, filter *T, opts ...option.QueryOption) ([]*T, error)
	Upsert(ctx context.Context, row *T) error
	Delete(ctx context.Context, id any) (bool, error)
}
