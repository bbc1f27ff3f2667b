package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rollcallhq/rollcall/internal/clock"
	ingestdomain "github.com/rollcallhq/rollcall/internal/ingest/domain"
	obsmetrics "github.com/rollcallhq/rollcall/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler: missing dependencies")

type Params struct {
	fx.In

	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	IngestSvc ingestdomain.Service
	Config    Config `optional:"true"`
}

// Scheduler drives the ingestion lifecycle: restoring the persisted
// generation at startup, the optional boot reload, and periodic rescans
// of the export directory.
type Scheduler struct {
	log       *zap.Logger
	cfg       Config
	genID     *snowflake.Node
	clock     clock.Clock
	ingestSvc ingestdomain.Service
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.IngestSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:       p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:       p.Config.withDefaults(),
		genID:     p.GenID,
		clock:     p.Clock,
		ingestSvc: p.IngestSvc,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx := parent
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, timeout)
		defer cancel()
	}

	ctx, run := s.newJobRun(ctx, name)
	s.logJobStart(ctx, run)

	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if err != nil {
		run.IncError()
	}
	s.logJobFinish(ctx, run)
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		schedMetrics.IncJobTimeout(name)
		s.logger(ctx).Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	schedMetrics.IncJobError(name, err)
	return fmt.Errorf("%s: %w", name, err)
}

// RestoreOnce republishes the last persisted generation into the store.
func (s *Scheduler) RestoreOnce(ctx context.Context) error {
	return s.runJob(ctx, "restore", s.cfg.RestoreTimeout, s.RestoreJob)
}

// RunOnce performs a single rescan of the export directory.
func (s *Scheduler) RunOnce(parent context.Context) error {
	return s.runJob(parent, "rescan", 0, s.ReloadJob)
}

// Run performs the optional startup reload and then ticks rescans until
// ctx is canceled. Without a configured interval it returns after the
// startup reload.
func (s *Scheduler) Run(ctx context.Context) {
	if s.cfg.ReloadOnStart {
		if err := s.runJob(ctx, "reload_on_start", 0, s.ReloadJob); err != nil {
			s.log.Warn("startup reload failed", zap.Error(err))
		}
	}

	if s.cfg.RunInterval <= 0 {
		return
	}
	s.RunForever(ctx)
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)
	schedMetrics := obsmetrics.Scheduler()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		runLag := s.clock.Now().Sub(nextRun)
		if runLag > 0 {
			schedMetrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)
	}
}

// RestoreJob loads the current generation pointer and its records.
func (s *Scheduler) RestoreJob(ctx context.Context) error {
	restored, err := s.ingestSvc.Restore(ctx)
	if err != nil {
		return err
	}
	if !restored {
		s.logger(ctx).Info("no persisted generation to restore")
	}
	return nil
}

// ReloadJob runs one full ingestion. A reload already in flight is not an
// error; the rescan is simply skipped.
func (s *Scheduler) ReloadJob(ctx context.Context) error {
	summary, err := s.ingestSvc.Reload(ctx)
	if errors.Is(err, ingestdomain.ErrReloadInProgress) {
		s.logger(ctx).Debug("reload already running, rescan skipped")
		return nil
	}
	if err != nil {
		return err
	}

	run := jobRunFromContext(ctx)
	run.AddProcessed(summary.FilesProcessed)
	if run != nil {
		schedMetrics := obsmetrics.Scheduler()
		schedMetrics.AddBatchProcessed(run.job, "files", summary.FilesProcessed)
		schedMetrics.AddBatchProcessed(run.job, "rows", summary.RowsIngested)
	}
	return nil
}
