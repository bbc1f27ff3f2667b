package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/rollcallhq/rollcall/internal/clock"
	"github.com/rollcallhq/rollcall/internal/config"
	"github.com/rollcallhq/rollcall/internal/ingest/dedupe"
	ingestdomain "github.com/rollcallhq/rollcall/internal/ingest/domain"
	"github.com/rollcallhq/rollcall/internal/ingest/normalize"
	"github.com/rollcallhq/rollcall/internal/ingest/reader"
	obscontext "github.com/rollcallhq/rollcall/internal/observability/context"
	obslogger "github.com/rollcallhq/rollcall/internal/observability/logger"
	obsmetrics "github.com/rollcallhq/rollcall/internal/observability/metrics"
	"github.com/rollcallhq/rollcall/internal/pushmetrics"
	recorddomain "github.com/rollcallhq/rollcall/internal/record/domain"
	"github.com/rollcallhq/rollcall/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Config     config.Config
	Aliases    *config.AliasConfigHolder
	Repo       recorddomain.Repository
	Store      *store.Store
	Metrics    *pushmetrics.PushMetrics `optional:"true"`
	ObsMetrics *obsmetrics.Metrics      `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	cfg        config.Config
	aliases    *config.AliasConfigHolder
	repo       recorddomain.Repository
	store      *store.Store
	push       *pushmetrics.PushMetrics
	obsMetrics *obsmetrics.Metrics

	running atomic.Bool
	phase   atomic.Value // holds ingestdomain.Phase
}

func New(p Params) ingestdomain.Service {
	s := &Service{
		db:         p.DB,
		log:        p.Log.Named("ingest.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		cfg:        p.Config,
		aliases:    p.Aliases,
		repo:       p.Repo,
		store:      p.Store,
		push:       p.Metrics,
		obsMetrics: p.ObsMetrics,
	}
	s.phase.Store(ingestdomain.PhaseIdle)
	return s
}

func (s *Service) Reload(ctx context.Context) (*ingestdomain.Summary, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.recordReload(ctx, "rejected", 0)
		return nil, ingestdomain.ErrReloadInProgress
	}
	defer s.running.Store(false)

	start := s.clock.Now()
	sessionID := ulid.Make().String()

	// A reload in flight has no external cancel: a dropped request must
	// not abort the run half-way. Trace and baggage values still flow.
	runCtx := obscontext.WithSessionID(context.WithoutCancel(ctx), sessionID)
	log := obslogger.WithContext(runCtx, s.log)

	summary, err := s.run(runCtx, log, sessionID, start)
	elapsed := s.clock.Now().Sub(start)
	if err != nil {
		s.setPhase(ingestdomain.PhaseFailed)
		s.recordReload(runCtx, "failed", elapsed)
		log.Warn("reload failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		return nil, err
	}

	s.setPhase(ingestdomain.PhaseIdle)
	s.recordReload(runCtx, "success", elapsed)
	return summary, nil
}

func (s *Service) run(ctx context.Context, log *zap.Logger, sessionID string, start time.Time) (*ingestdomain.Summary, error) {
	aliases := s.aliases.Get()
	norm := normalize.New(aliases)

	s.setPhase(ingestdomain.PhaseReading)
	files, err := reader.Discover(s.cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("%w: scan %s: %v", ingestdomain.ErrNoFilesIngested, s.cfg.DataDir, err)
	}
	if len(files) == 0 {
		return nil, ingestdomain.ErrNoFilesIngested
	}

	var (
		warnings       = []string{}
		rawRows        []ingestdomain.RawRow
		rowsSkipped    int
		filesProcessed int
	)
	for _, path := range files {
		data, err := s.readFile(ctx, path)
		if err != nil {
			log.Warn("file skipped",
				zap.String("file", filepath.Base(path)),
				zap.Error(err),
			)
			warnings = append(warnings, fmt.Sprintf("%s: %v", filepath.Base(path), err))
			continue
		}
		filesProcessed++
		rawRows = append(rawRows, data.Rows...)
		warnings = append(warnings, data.Warnings...)
		rowsSkipped += data.Unparseable
		s.recordRowsSkipped(ctx, ingestdomain.SkipReasonUnparseable, data.Unparseable)
	}

	s.setPhase(ingestdomain.PhaseNormalizing)
	records := make([]recorddomain.Record, 0, len(rawRows))
	emptyRows := 0
	for _, row := range rawRows {
		rec, _ := norm.Row(row)
		if rec == nil {
			emptyRows++
			rowsSkipped++
			continue
		}
		rec.Position = len(records)
		records = append(records, *rec)
	}
	if emptyRows > 0 {
		s.recordRowsSkipped(ctx, ingestdomain.SkipReasonEmptyRow, emptyRows)
		warnings = append(warnings, fmt.Sprintf("%d rows skipped (%s)", emptyRows, ingestdomain.SkipReasonEmptyRow))
	}

	if len(records) == 0 {
		return nil, ingestdomain.ErrNoFilesIngested
	}

	s.setPhase(ingestdomain.PhaseDeduplicating)
	stats := dedupe.Count(records)

	duration := s.clock.Now().Sub(start)
	gen := recorddomain.Generation{
		ID:              s.genID.Generate(),
		SessionID:       sessionID,
		FilesProcessed:  filesProcessed,
		RowsIngested:    len(records),
		RowsSkipped:     rowsSkipped,
		DuplicateEmails: stats.DuplicateEmails,
		DuplicatePhones: stats.DuplicatePhones,
		DurationMS:      duration.Milliseconds(),
		Warnings:        datatypes.NewJSONSlice(warnings),
		CreatedAt:       s.clock.Now(),
	}
	for i := range records {
		records[i].GenerationID = gen.ID
	}

	// The generation is durable before it becomes visible: a crash between
	// persist and swap restores this generation on the next start.
	s.setPhase(ingestdomain.PhaseSwapping)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.InsertGeneration(ctx, tx, &gen); err != nil {
			return err
		}
		if err := s.repo.InsertRecords(ctx, tx, records); err != nil {
			return err
		}
		return s.repo.SetCurrentGeneration(ctx, tx, gen.ID, gen.CreatedAt)
	})
	if err != nil {
		return nil, fmt.Errorf("persist generation: %w", err)
	}

	s.store.Replace(store.NewSnapshot(gen, records))

	if err := s.repo.DeleteOtherGenerations(ctx, s.db, gen.ID); err != nil {
		log.Warn("prune old generations", zap.Error(err))
	}

	s.recordRowsIngested(ctx, len(records))
	s.recordSnapshot(gen)
	log.Info("reload complete",
		zap.String("generation_id", gen.ID.String()),
		zap.Int("files_processed", filesProcessed),
		zap.Int("rows_ingested", len(records)),
		zap.Int("rows_skipped", rowsSkipped),
		zap.Int("duplicate_emails", stats.DuplicateEmails),
		zap.Int("duplicate_phones", stats.DuplicatePhones),
		zap.Int64("duration_ms", gen.DurationMS),
	)

	return &ingestdomain.Summary{
		SessionID:       sessionID,
		FilesProcessed:  filesProcessed,
		RowsIngested:    len(records),
		RowsSkipped:     rowsSkipped,
		DuplicateEmails: stats.DuplicateEmails,
		DuplicatePhones: stats.DuplicatePhones,
		DurationMS:      gen.DurationMS,
		Warnings:        warnings,
	}, nil
}

func (s *Service) Restore(ctx context.Context) (bool, error) {
	id, err := s.repo.CurrentGenerationID(ctx, s.db)
	if err != nil {
		return false, fmt.Errorf("read current generation pointer: %w", err)
	}
	if id == 0 {
		return false, nil
	}

	gen, err := s.repo.FindGeneration(ctx, s.db, id)
	if err != nil {
		return false, err
	}
	if gen == nil {
		return false, nil
	}

	records, err := s.repo.ListRecords(ctx, s.db, id)
	if err != nil {
		return false, err
	}

	s.store.Replace(store.NewSnapshot(*gen, records))
	s.recordSnapshot(*gen)
	s.log.Info("generation restored",
		zap.String("generation_id", gen.ID.String()),
		zap.Int("records", len(records)),
	)
	return true, nil
}

func (s *Service) Phase() ingestdomain.Phase {
	if v, ok := s.phase.Load().(ingestdomain.Phase); ok {
		return v
	}
	return ingestdomain.PhaseIdle
}

func (s *Service) setPhase(p ingestdomain.Phase) {
	s.phase.Store(p)
}

func (s *Service) readFile(ctx context.Context, path string) (*reader.FileData, error) {
	if s.cfg.FileTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.FileTimeout)
		defer cancel()
	}
	return reader.ReadFile(ctx, path)
}

func (s *Service) recordReload(ctx context.Context, status string, elapsed time.Duration) {
	if s.obsMetrics != nil {
		s.obsMetrics.RecordReload(ctx, status, elapsed)
	}
	if s.push != nil {
		s.push.RecordReload(status, elapsed)
	}
}

func (s *Service) recordRowsIngested(ctx context.Context, count int) {
	if s.obsMetrics != nil {
		s.obsMetrics.RecordRowsIngested(ctx, count)
	}
	if s.push != nil {
		s.push.AddRowsIngested(count)
	}
}

func (s *Service) recordRowsSkipped(ctx context.Context, reason string, count int) {
	if count <= 0 {
		return
	}
	if s.obsMetrics != nil {
		s.obsMetrics.RecordRowsSkipped(ctx, reason, count)
	}
	if s.push != nil {
		s.push.AddRowsSkipped(reason, count)
	}
}

func (s *Service) recordSnapshot(gen recorddomain.Generation) {
	if s.push != nil {
		s.push.SetSnapshot(gen.RowsIngested, gen.DuplicateEmails, gen.DuplicatePhones, gen.CreatedAt)
	}
}
