package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/invoicedesk/internal/auth"
	authdomain "github.com/smallbiznis/invoicedesk/internal/auth/domain"
	"github.com/smallbiznis/invoicedesk/internal/client"
	clientdomain "github.com/smallbiznis/invoicedesk/internal/client/domain"
	"github.com/smallbiznis/invoicedesk/internal/clock"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"github.com/smallbiznis/invoicedesk/internal/delivery"
	deliverydomain "github.com/smallbiznis/invoicedesk/internal/delivery/domain"
	"github.com/smallbiznis/invoicedesk/internal/invoice"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	obslogger "github.com/smallbiznis/invoicedesk/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/invoicedesk/internal/observability/metrics"
	obstracing "github.com/smallbiznis/invoicedesk/internal/observability/tracing"
	"github.com/smallbiznis/invoicedesk/internal/payment"
	paymentdomain "github.com/smallbiznis/invoicedesk/internal/payment/domain"
	"github.com/smallbiznis/invoicedesk/internal/providers"
	"github.com/smallbiznis/invoicedesk/internal/recurring"
	recurringdomain "github.com/smallbiznis/invoicedesk/internal/recurring/domain"
	"github.com/smallbiznis/invoicedesk/internal/settings"
	settingsdomain "github.com/smallbiznis/invoicedesk/internal/settings/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module wires the HTTP API together with every domain service it serves.
var Module = fx.Module("http.server",
	auth.Module,
	client.Module,
	settings.Module,
	invoice.Module,
	payment.Module,
	recurring.Module,
	providers.Module,
	delivery.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(RegisterRoutes),
	fx.Invoke(RunHTTP),
)

type EngineParams struct {
	fx.In

	Log         *zap.Logger
	Cfg         config.Config
	HTTPMetrics *obsmetrics.HTTPMetrics `optional:"true"`
}

func NewEngine(p EngineParams) *gin.Engine {
	if p.Cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(p.Log.Named("http"),
		obslogger.WithErrorClassifier(classifyErrorForLog),
		obslogger.WithQuietPaths("/health", "/metrics"),
	))
	r.Use(obstracing.GinMiddleware())
	if p.HTTPMetrics != nil {
		r.Use(p.HTTPMetrics.Middleware())
	}
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine  *gin.Engine
	cfg     config.Config
	log     *zap.Logger
	clock   clock.Clock
	catalog *config.InvoicingConfigHolder

	authSvc      authdomain.Service
	clientSvc    clientdomain.Service
	settingsSvc  settingsdomain.Service
	invoiceSvc   invoicedomain.Service
	paymentSvc   paymentdomain.Service
	recurringSvc recurringdomain.Service
	deliverySvc  deliverydomain.Service
}

type ServerParams struct {
	fx.In

	Gin     *gin.Engine
	Cfg     config.Config
	Log     *zap.Logger
	Clock   clock.Clock
	Catalog *config.InvoicingConfigHolder

	AuthSvc      authdomain.Service
	ClientSvc    clientdomain.Service
	SettingsSvc  settingsdomain.Service
	InvoiceSvc   invoicedomain.Service
	PaymentSvc   paymentdomain.Service
	RecurringSvc recurringdomain.Service
	DeliverySvc  deliverydomain.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		log:          p.Log.Named("http.server"),
		clock:        p.Clock,
		catalog:      p.Catalog,
		authSvc:      p.AuthSvc,
		clientSvc:    p.ClientSvc,
		settingsSvc:  p.SettingsSvc,
		invoiceSvc:   p.InvoiceSvc,
		paymentSvc:   p.PaymentSvc,
		recurringSvc: p.RecurringSvc,
		deliverySvc:  p.DeliverySvc,
	}
}

func RegisterRoutes(s *Server) {
	s.RegisterAPIRoutes()
	s.registerFallback()
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterAPIRoutes() {
	api := s.engine.Group("/api/v1", s.AuthRequired())

	api.GET("/me", s.Me)

	// -------- Clients --------
	api.GET("/clients", s.ListClients)
	api.POST("/clients", s.CreateClient)
	api.GET("/clients/:id", s.GetClientByID)
	api.PATCH("/clients/:id", s.UpdateClient)
	api.DELETE("/clients/:id", s.DeleteClient)

	// -------- Invoices --------
	api.GET("/invoices", s.ListInvoices)
	api.POST("/invoices", s.CreateInvoice)
	api.GET("/invoices/next-number", s.PreviewInvoiceNumber)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.PUT("/invoices/:id", s.UpdateInvoice)
	api.POST("/invoices/:id/send", s.MarkInvoiceSent)
	api.POST("/invoices/:id/pay", s.MarkInvoicePaid)
	api.POST("/invoices/:id/cancel", s.CancelInvoice)
	api.GET("/invoices/:id/pdf", s.DownloadInvoicePDF)

	// -------- Payments --------
	api.GET("/invoices/:id/payments", s.ListPayments)
	api.POST("/invoices/:id/payments", s.RecordPayment)

	// -------- Deliveries --------
	api.GET("/invoices/:id/deliveries", s.ListDeliveries)
	api.POST("/invoices/:id/deliveries/email", s.SendInvoiceEmail)
	api.POST("/invoices/:id/deliveries/whatsapp", s.SendInvoiceWhatsApp)

	// -------- Recurring --------
	api.GET("/recurring", s.ListRecurring)
	api.POST("/recurring", s.CreateRecurring)
	api.GET("/recurring/:id", s.GetRecurringByID)
	api.POST("/recurring/:id/activate", s.ActivateRecurring)
	api.POST("/recurring/:id/pause", s.PauseRecurring)
	api.DELETE("/recurring/:id", s.DeleteRecurring)

	// -------- Settings --------
	api.GET("/settings", s.GetSettings)
	api.PUT("/settings", s.UpdateSettings)

	// -------- Catalogue --------
	api.GET("/catalogue", s.GetCatalogue)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}

func (s *Server) Me(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"username": principal.Username,
		"role":     principal.Role,
	}})
}

// loadSettings reads the settings row once per request; handlers pass the
// value down instead of letting services fetch it.
func (s *Server) loadSettings(c *gin.Context) (settingsdomain.Settings, bool) {
	settings, err := s.settingsSvc.Get(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return settingsdomain.Settings{}, false
	}
	return settings, true
}
