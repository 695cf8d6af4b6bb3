package scheduler

import (
	"context"

	"github.com/smallbiznis/invoicedesk/internal/config"
	"go.uber.org/fx"
)

// Module runs the generator inside the API process when
// SCHEDULER_ENABLED is set.
var Module = fx.Module("scheduler",
	fx.Provide(ProvideConfig, ProvideLocker, New),
	fx.Invoke(func(lc fx.Lifecycle, cfg config.Config, s *Scheduler) {
		if cfg.Scheduler.Enabled {
			Attach(lc, s)
		}
	}),
)

// Attach runs s.RunForever for the lifetime of the fx app. Stop waits for the
// loop to return so an in-flight batch can commit.
func Attach(lc fx.Lifecycle, s *Scheduler) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				s.RunForever(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
