package scheduler

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	obscontext "github.com/smallbiznis/invoicedesk/internal/observability/context"
	obslogger "github.com/smallbiznis/invoicedesk/internal/observability/logger"
	"go.uber.org/zap"
)

// jobRun is the bookkeeping of one job execution. It travels in the context
// so nested helpers add to the same counts.
type jobRun struct {
	job       string
	id        string
	startedAt time.Time
	processed int
	failed    int
	// skipped is set when another process holds the generation lock.
	skipped bool
}

type jobRunKey struct{}

func (r *jobRun) addProcessed(n int) {
	if n > 0 {
		r.processed += n
	}
}

func (r *jobRun) addFailed(n int) {
	if n > 0 {
		r.failed += n
	}
}

// startRun returns the run already carried by ctx or opens a new one. The
// run id doubles as the request id so every log line of the run correlates.
func (s *Scheduler) startRun(ctx context.Context, job string) (context.Context, *jobRun, bool) {
	if run, ok := ctx.Value(jobRunKey{}).(*jobRun); ok {
		return ctx, run, false
	}
	run := &jobRun{job: job, id: ulid.Make().String(), startedAt: s.clock.Now()}
	ctx = context.WithValue(ctx, jobRunKey{}, run)
	ctx = obscontext.WithRequestID(obscontext.WithActor(ctx, "scheduler"), run.id)

	s.logger(ctx).Info("job started", zap.String("job", job), zap.Int("batch_size", s.cfg.BatchSize))
	return ctx, run, true
}

func (s *Scheduler) finishRun(ctx context.Context, run *jobRun) {
	s.logger(ctx).Info("job finished",
		zap.String("job", run.job),
		zap.Bool("skipped", run.skipped),
		zap.Int("processed", run.processed),
		zap.Int("failed", run.failed),
		zap.Duration("took", s.clock.Now().Sub(run.startedAt)),
	)
}

func (s *Scheduler) logger(ctx context.Context) *zap.Logger {
	return obslogger.WithContext(ctx, s.log)
}
