package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"github.com/smallbiznis/invoicedesk/internal/observability/logger"
	"github.com/smallbiznis/invoicedesk/internal/observability/metrics"
	"github.com/smallbiznis/invoicedesk/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

// Module provides the zap logger, the otel tracer and meter providers, the
// domain counters and the prometheus HTTP and job metrics.
var Module = fx.Module("observability",
	fx.Provide(
		loggerConfig,
		logger.New,
		tracingConfig,
		tracing.NewProvider,
		metricsConfig,
		metrics.NewProvider,
		metrics.New,
		httpMetrics,
		jobMetrics,
	),
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)

func serviceName(cfg config.Config) string {
	if cfg.AppName == "" {
		return "invoicedesk"
	}
	return cfg.AppName
}

func loggerConfig(cfg config.Config) logger.Config {
	return logger.Config{
		ServiceName: serviceName(cfg),
		Environment: cfg.Environment,
		Version:     cfg.AppVersion,
		Level:       cfg.Telemetry.LogLevel,
		Format:      cfg.Telemetry.LogFormat,
		Development: cfg.IsDevelopment(),
	}
}

func tracingConfig(cfg config.Config) tracing.Config {
	return tracing.Config{
		Enabled:          cfg.Telemetry.OTLPEnabled,
		ServiceName:      serviceName(cfg),
		ServiceVersion:   cfg.AppVersion,
		Environment:      cfg.Environment,
		ExporterEndpoint: cfg.Telemetry.OTLPEndpoint,
		ExporterProtocol: cfg.Telemetry.OTLPProtocol,
		SamplingRatio:    cfg.Telemetry.SamplingRatio,
	}
}

func metricsConfig(cfg config.Config) metrics.Config {
	return metrics.Config{
		Enabled:          cfg.Telemetry.OTLPEnabled,
		ExporterEndpoint: cfg.Telemetry.OTLPEndpoint,
		ExporterProtocol: cfg.Telemetry.OTLPProtocol,
		ServiceName:      serviceName(cfg),
		Environment:      cfg.Environment,
	}
}

func httpMetrics() *metrics.HTTPMetrics {
	return metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)
}

func jobMetrics(cfg metrics.Config) (*metrics.JobMetrics, error) {
	return metrics.NewJobMetrics(prometheus.DefaultRegisterer, cfg)
}
