package client

import (
	"github.com/smallbiznis/invoicedesk/internal/client/repository"
	"github.com/smallbiznis/invoicedesk/internal/client/service"
	"go.uber.org/fx"
)

var Module = fx.Module("client.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
