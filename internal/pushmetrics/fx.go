package pushmetrics

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rollcallhq/rollcall/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("push.metrics",
	fx.Provide(func() *prometheus.Registry {
		return prometheus.NewRegistry()
	}),
	fx.Provide(NewPusher),
	fx.Provide(func(cfg config.Config, registry *prometheus.Registry, pusher Pusher) *PushMetrics {
		if !cfg.Push.Enabled {
			return nil
		}
		return New(registry, pusher, cfg.Environment, cfg.AppVersion)
	}),
	fx.Invoke(func(lc fx.Lifecycle, cfg config.Config, m *PushMetrics, logger *zap.Logger) {
		if m == nil {
			return
		}

		if logger == nil {
			logger = zap.NewNop()
		}

		interval := cfg.Push.Interval
		if interval <= 0 {
			interval = 15 * time.Minute
		}

		ctx, cancel := context.WithCancel(context.Background())
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				logger.Info("starting push metrics background worker",
					zap.Duration("interval", interval),
				)
				go func() {
					ticker := time.NewTicker(interval)
					defer ticker.Stop()

					// Initial push
					updateSystemMetrics(m)
					if err := m.Push(ctx); err != nil {
						logger.Error("initial metrics push failed", zap.Error(err))
					}

					for {
						select {
						case <-ticker.C:
							updateSystemMetrics(m)
							if err := m.Push(ctx); err != nil {
								logger.Error("periodic metrics push failed", zap.Error(err))
							}
						case <-ctx.Done():
							logger.Info("stopping push metrics background worker")
							return
						}
					}
				}()
				return nil
			},
			OnStop: func(context.Context) error {
				cancel()
				return nil
			},
		})
	}),
)

func updateSystemMetrics(m *PushMetrics) {
	if m == nil {
		return
	}
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	m.SetMemoryUsage(stats.Sys)
}
