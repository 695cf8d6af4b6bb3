package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/invoice/numbering"
	settingsdomain "github.com/smallbiznis/invoicedesk/internal/settings/domain"
	"gorm.io/gorm"
)

// maxAllocationAttempts bounds how often a creation transaction is re-run
// after losing an invoice number to a concurrent or legacy insert.
const maxAllocationAttempts = 5

type allocator struct {
	repo domain.Repository
}

// Peek reads the highest existing number for prefix and returns the value
// after it. It reserves nothing.
func (a allocator) Peek(ctx context.Context, tx *gorm.DB, prefix string) (int64, error) {
	latest, err := a.repo.LatestNumberWithPrefix(ctx, tx, prefix)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrNumberAllocation, err)
	}
	if latest == "" {
		return 1, nil
	}
	return sequenceAfter(latest, prefix) + 1, nil
}

// Allocate reserves the next value of the series. The counter never falls
// below what Peek observes, so rows written before the counter existed
// are skipped over.
func (a allocator) Allocate(ctx context.Context, tx *gorm.DB, prefix string) (int64, error) {
	floor, err := a.Peek(ctx, tx, prefix)
	if err != nil {
		return 0, err
	}
	seq, err := a.repo.BumpSequence(ctx, tx, prefix, floor)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrNumberAllocation, err)
	}
	return seq, nil
}

func sequenceAfter(number, prefix string) int64 {
	rest := strings.TrimPrefix(number, prefix)
	if seq, err := strconv.ParseInt(rest, 10, 64); err == nil && seq >= 0 {
		return seq
	}
	return numbering.ParseSequence(number)
}

func numberTokens(settings settingsdomain.Settings, abbr string, issuedAt time.Time) numbering.Tokens {
	prefix := strings.TrimSpace(settings.InvoicePrefix)
	if prefix == "" {
		prefix = numbering.DefaultPrefix
	}
	return numbering.Tokens{
		Prefix:   prefix,
		Abbr:     abbr,
		IssuedAt: issuedAt,
		Width:    settings.InvoiceNumberDigits,
	}
}
