// Command scheduler generates due recurring invoices and auto-sends them,
// with no HTTP surface. It always runs the generator, whatever
// SCHEDULER_ENABLED says.
package main

import (
	"github.com/smallbiznis/invoicedesk/internal/client"
	"github.com/smallbiznis/invoicedesk/internal/clock"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"github.com/smallbiznis/invoicedesk/internal/delivery"
	"github.com/smallbiznis/invoicedesk/internal/idgen"
	"github.com/smallbiznis/invoicedesk/internal/invoice"
	"github.com/smallbiznis/invoicedesk/internal/observability"
	"github.com/smallbiznis/invoicedesk/internal/providers"
	"github.com/smallbiznis/invoicedesk/internal/recurring"
	"github.com/smallbiznis/invoicedesk/internal/scheduler"
	"github.com/smallbiznis/invoicedesk/internal/settings"
	"github.com/smallbiznis/invoicedesk/pkg/db"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		config.Module,
		observability.Module,
		idgen.Module(3),
		db.Module,
		clock.Module,

		settings.Module,
		client.Module,
		invoice.Module,
		recurring.Module,
		providers.Module,
		delivery.Module,

		fx.Provide(scheduler.ProvideConfig, scheduler.ProvideLocker, scheduler.New),
		fx.Invoke(scheduler.Attach),
	).Run()
}
