package seed

import (
	"context"
	"errors"
	"time"

	settingsdomain "github.com/smallbiznis/invoicedesk/internal/settings/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnsureSettings writes the default settings row unless one exists.
func EnsureSettings(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	row := settingsdomain.Defaults()
	row.UpdatedAt = time.Now().UTC()
	return db.WithContext(context.Background()).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
}
