package providers

import (
	"github.com/smallbiznis/invoicedesk/internal/providers/email"
	"github.com/smallbiznis/invoicedesk/internal/providers/pdf"
	"github.com/smallbiznis/invoicedesk/internal/providers/whatsapp"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	whatsapp.Module,
	pdf.Module,
)
