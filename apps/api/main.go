// Command api serves the HTTP API without the recurring generator. Deploy it
// next to apps/scheduler.
package main

import (
	"github.com/smallbiznis/invoicedesk/internal/clock"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"github.com/smallbiznis/invoicedesk/internal/idgen"
	"github.com/smallbiznis/invoicedesk/internal/migration"
	"github.com/smallbiznis/invoicedesk/internal/observability"
	"github.com/smallbiznis/invoicedesk/internal/server"
	"github.com/smallbiznis/invoicedesk/pkg/db"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		config.Module,
		observability.Module,
		idgen.Module(2),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	).Run()
}
