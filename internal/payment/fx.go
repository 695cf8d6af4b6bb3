package payment

import (
	"github.com/smallbiznis/invoicedesk/internal/payment/repository"
	"github.com/smallbiznis/invoicedesk/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
