package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/smallbiznis/invoicedesk/internal/clock"
	deliverydomain "github.com/smallbiznis/invoicedesk/internal/delivery/domain"
	obsmetrics "github.com/smallbiznis/invoicedesk/internal/observability/metrics"
	recurringdomain "github.com/smallbiznis/invoicedesk/internal/recurring/domain"
	settingsdomain "github.com/smallbiznis/invoicedesk/internal/settings/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	JobGenerateRecurring = "generate_recurring"

	generateLockKey = "invoicedesk:scheduler:generate_recurring"
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	Log          *zap.Logger
	Clock        clock.Clock
	SettingsSvc  settingsdomain.Service
	RecurringSvc recurringdomain.Service
	DeliverySvc  deliverydomain.Service
	Locker       Locker                 `optional:"true"`
	Config       Config                 `optional:"true"`
	Metrics      *obsmetrics.JobMetrics `optional:"true"`
}

type Scheduler struct {
	log          *zap.Logger
	cfg          Config
	clock        clock.Clock
	settingsSvc  settingsdomain.Service
	recurringSvc recurringdomain.Service
	deliverySvc  deliverydomain.Service
	locker       Locker
	metrics      *obsmetrics.JobMetrics
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.SettingsSvc == nil || p.RecurringSvc == nil || p.DeliverySvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:          p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:          p.Config.withDefaults(),
		clock:        p.Clock,
		settingsSvc:  p.SettingsSvc,
		recurringSvc: p.RecurringSvc,
		deliverySvc:  p.DeliverySvc,
		locker:       p.Locker,
		metrics:      p.Metrics,
	}, nil
}

// runJob runs fn under timeout. A deadline is a soft failure: what fn
// committed stays and the remainder is picked up by the next run.
func (s *Scheduler) runJob(parent context.Context, name string, timeout time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()
	ctx, run, owner := s.startRun(ctx, name)

	err := fn(ctx)

	outcome := obsmetrics.OutcomeOK
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		outcome = obsmetrics.OutcomeTimeout
	case err != nil:
		outcome = obsmetrics.OutcomeFailed
	case run.skipped:
		outcome = obsmetrics.OutcomeSkipped
	}
	if err != nil {
		run.addFailed(1)
		s.metrics.Failure(name, err)
	}
	if owner {
		s.finishRun(ctx, run)
		s.metrics.ObserveRun(name, outcome, s.clock.Now().Sub(run.startedAt))
	}

	switch outcome {
	case obsmetrics.OutcomeTimeout:
		s.logger(ctx).Warn("job timed out", zap.String("job", name), zap.Duration("timeout", timeout), zap.Error(err))
		return nil
	case obsmetrics.OutcomeFailed:
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	return s.runJob(parent, JobGenerateRecurring, s.cfg.JobTimeout, s.GenerateRecurringJob)
}

// RunForever runs RunOnce on the cron schedule when one is configured and
// on a fixed interval otherwise, until ctx is cancelled.
func (s *Scheduler) RunForever(ctx context.Context) {
	if s.cfg.Cron != "" {
		err := s.runCron(ctx)
		if err == nil {
			return
		}
		s.log.Error("invalid scheduler cron expression, falling back to interval",
			zap.String("cron", s.cfg.Cron),
			zap.Error(err),
		)
	}

	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	// The first run is due immediately, later ones one interval apart.
	nextRun := s.clock.Now()

	for {
		s.metrics.ObserveLag(s.clock.Now().Sub(nextRun))
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) runCron(ctx context.Context) error {
	c := cron.New(cron.WithLocation(time.UTC))
	_, err := c.AddFunc(s.cfg.Cron, func() {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	s.log.Info("scheduler started on cron schedule", zap.String("cron", s.cfg.Cron))
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// GenerateRecurringJob creates the invoices of every due recurring template
// and sends the flagged ones over WhatsApp.
func (s *Scheduler) GenerateRecurringJob(ctx context.Context) error {
	ctx, run, owner := s.startRun(ctx, JobGenerateRecurring)
	if owner {
		defer s.finishRun(ctx, run)
	}

	if s.locker != nil {
		token, ok, err := s.locker.TryLock(ctx, generateLockKey, s.cfg.LockTTL)
		if err != nil {
			return fmt.Errorf("acquire scheduler lock: %w", err)
		}
		if !ok {
			run.skipped = true
			s.logger(ctx).Info("generation already running elsewhere, skipping")
			return nil
		}
		defer func() {
			// The job context may already be done.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.locker.Release(releaseCtx, generateLockKey, token); err != nil {
				s.logger(ctx).Warn("failed to release scheduler lock", zap.Error(err))
			}
		}()
	}

	settings, err := s.settingsSvc.Get(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	result, err := s.recurringSvc.GenerateDue(ctx, settings, s.cfg.BatchSize)
	run.addProcessed(len(result.Generated))
	run.addFailed(result.Failed)
	s.metrics.AddItems(JobGenerateRecurring, "invoice", len(result.Generated))

	// Invoices that were committed are still delivered when the batch was
	// interrupted.
	sent := s.autoSend(ctx, settings, result.Generated)
	s.metrics.AddItems(JobGenerateRecurring, "whatsapp", sent)

	if err != nil {
		return err
	}
	if result.Failed > 0 {
		s.logger(ctx).Warn("some recurring templates failed to generate", zap.Int("failed", result.Failed))
	}
	return nil
}

func (s *Scheduler) autoSend(ctx context.Context, settings settingsdomain.Settings, generated []recurringdomain.GeneratedInvoice) int {
	sent := 0
	for _, g := range generated {
		if !g.AutoSendWhatsApp {
			continue
		}
		if ctx.Err() != nil {
			return sent
		}
		if _, err := s.deliverySvc.SendWhatsApp(ctx, settings, g.InvoiceID.String()); err != nil {
			s.logger(ctx).Warn("auto-send via whatsapp failed",
				zap.String("invoice_id", g.InvoiceID.String()),
				zap.String("invoice_number", g.InvoiceNumber),
				zap.Error(err),
			)
			continue
		}
		sent++
	}
	return sent
}
