package scheduler

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("scheduler",
	fx.Provide(ProvideConfig),
	fx.Provide(New),
	fx.Invoke(Register),
)

// Register restores the persisted generation during startup, then hands
// the reload loop to a background goroutine tied to the app lifecycle.
func Register(lc fx.Lifecycle, sched *Scheduler, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := sched.RestoreOnce(ctx); err != nil {
				log.Warn("restore failed, starting without a snapshot", zap.Error(err))
			}

			runCtx, cancel := context.WithCancel(context.Background())

			go sched.Run(runCtx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}
