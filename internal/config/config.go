package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	// NodeID overrides the snowflake node of the process when positive.
	NodeID int64

	Telemetry TelemetryConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Auth      AuthConfig
	Email     EmailConfig
	WhatsApp  WhatsAppConfig
	Redis     RedisConfig
	Scheduler SchedulerConfig
}

// TelemetryConfig covers logging and OTLP export.
type TelemetryConfig struct {
	LogLevel      string
	LogFormat     string
	OTLPEndpoint  string
	OTLPProtocol  string
	OTLPEnabled   bool
	SamplingRatio float64
}

// AuthConfig describes the single operator account.
type AuthConfig struct {
	Username     string
	PasswordHash string
	Role         string
}

type EmailConfig struct {
	Provider      string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	ResendAPIKey  string
	ResendBaseURL string
}

type WhatsAppConfig struct {
	BaseURL string
	Token   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

type SchedulerConfig struct {
	Enabled    bool
	Interval   time.Duration
	Cron       string
	BatchSize  int
	JobTimeout time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:           getenv("APP_SERVICE", "invoicedesk"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		NodeID:            int64(getenvInt("NODE_ID", 0)),
		DBType:            strings.ToLower(getenv("DATABASE_TYPE", "postgres")),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "invoicedesk"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "invoicedesk.db"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		Telemetry:         loadTelemetry(),
		Auth: AuthConfig{
			Username:     strings.TrimSpace(getenv("AUTH_USERNAME", "admin")),
			PasswordHash: strings.TrimSpace(getenv("AUTH_PASSWORD_HASH", "")),
			Role:         strings.ToLower(getenv("AUTH_ROLE", "admin")),
		},
		Email: EmailConfig{
			Provider:      strings.ToLower(getenv("EMAIL_PROVIDER", "noop")),
			SMTPHost:      getenv("SMTP_HOST", ""),
			SMTPPort:      getenvInt("SMTP_PORT", 587),
			SMTPUsername:  getenv("SMTP_USERNAME", ""),
			SMTPPassword:  getenv("SMTP_PASSWORD", ""),
			ResendAPIKey:  strings.TrimSpace(getenv("RESEND_API_KEY", "")),
			ResendBaseURL: getenv("RESEND_BASE_URL", "https://api.resend.com"),
		},
		WhatsApp: WhatsAppConfig{
			BaseURL: getenv("WHAPI_BASE_URL", "https://gate.whapi.cloud"),
			Token:   strings.TrimSpace(getenv("WHAPI_TOKEN", "")),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getenvInt("REDIS_DB", 0),
		},
		Scheduler: SchedulerConfig{
			Enabled:    getenvBool("SCHEDULER_ENABLED", true),
			Interval:   getenvDuration("SCHEDULER_INTERVAL", time.Hour),
			Cron:       strings.TrimSpace(getenv("SCHEDULER_CRON", "")),
			BatchSize:  getenvInt("SCHEDULER_BATCH_SIZE", 50),
			JobTimeout: getenvDuration("SCHEDULER_JOB_TIMEOUT", 2*time.Minute),
		},
	}

	return cfg
}

func loadTelemetry() TelemetryConfig {
	endpoint := strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT", getenv("OTLP_ENDPOINT", "")))
	return TelemetryConfig{
		LogLevel:      strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
		LogFormat:     strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),
		OTLPEndpoint:  endpoint,
		OTLPProtocol:  strings.ToLower(strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
		OTLPEnabled:   getenvBool("OTEL_ENABLED", endpoint != ""),
		SamplingRatio: getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
	}
}

// IsDevelopment is true for local and test deployments, where stack traces
// are attached to error logs.
func (c Config) IsDevelopment() bool {
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "dev", "development", "local", "test":
		return true
	}
	return c.Telemetry.LogLevel == "debug"
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
