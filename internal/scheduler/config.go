package scheduler

import (
	"time"

	"github.com/smallbiznis/invoicedesk/internal/config"
)

// Config controls when the generation job runs and how much it does per run.
type Config struct {
	RunInterval time.Duration
	// Cron, when set, replaces RunInterval with a cron schedule.
	Cron       string
	BatchSize  int
	JobTimeout time.Duration
	LockTTL    time.Duration
}

func DefaultConfig() Config {
	return Config{
		RunInterval: time.Hour,
		BatchSize:   50,
		JobTimeout:  2 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.LockTTL <= 0 {
		c.LockTTL = c.JobTimeout + 30*time.Second
	}
	return c
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		RunInterval: cfg.Scheduler.Interval,
		Cron:        cfg.Scheduler.Cron,
		BatchSize:   cfg.Scheduler.BatchSize,
		JobTimeout:  cfg.Scheduler.JobTimeout,
	}.withDefaults()
}
