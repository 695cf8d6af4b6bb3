//go:build integration

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	clientdomain "github.com/smallbiznis/invoicedesk/internal/client/domain"
	clientrepo "github.com/smallbiznis/invoicedesk/internal/client/repository"
	"github.com/smallbiznis/invoicedesk/internal/clock"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"github.com/smallbiznis/invoicedesk/internal/invoice/repository"
	"github.com/smallbiznis/invoicedesk/internal/migration"
	"github.com/smallbiznis/invoicedesk/internal/observability/metrics"
	settingsdomain "github.com/smallbiznis/invoicedesk/internal/settings/domain"
	"github.com/smallbiznis/invoicedesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("invoicedesk_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(16)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migration.Run(db))
	return db
}

func TestPostgresConcurrentAllocationsAreUnique(t *testing.T) {
	db := newPostgres(t)
	node := testutil.NewNode(t)
	clk := clock.NewFakeClock(time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC))
	ctx := context.Background()

	svc := New(Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   clk,
		Repo:    repository.Provide(),
		Clients: clientrepo.Provide(),
		Catalog: config.NewStaticInvoicingConfigHolder(config.DefaultInvoicingConfig()),
		Metrics: metrics.NewNoop(),
	})

	c := clientdomain.Client{
		ID:        node.Generate(),
		Name:      "Alpha Beta Corp",
		CreatedAt: clk.Now(),
		UpdatedAt: clk.Now(),
	}
	require.NoError(t, clientrepo.Provide().Insert(ctx, db, &c))

	const workers = 32
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = make(map[string]int)
		errs    []error
	)
	settings := settingsdomain.Defaults()
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			detail, err := svc.Create(ctx, settings, oneLine(c.ID))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			numbers[detail.InvoiceNumber]++
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	require.Len(t, numbers, workers)
	for number, n := range numbers {
		assert.Equal(t, 1, n, number)
	}
	assert.Contains(t, numbers, "FD-ABC-2601-032")

	var last int64
	require.NoError(t, db.Raw(
		`SELECT last_value FROM invoice_number_sequences WHERE prefix = ?`, "FD-ABC-2601-",
	).Scan(&last).Error)
	assert.Equal(t, int64(workers), last)
}
