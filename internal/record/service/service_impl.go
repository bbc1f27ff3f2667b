package service

import (
	"context"
	"strings"

	obsmetrics "github.com/rollcallhq/rollcall/internal/observability/metrics"
	recorddomain "github.com/rollcallhq/rollcall/internal/record/domain"
	"github.com/rollcallhq/rollcall/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	Store      *store.Store
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	store      *store.Store
	obsMetrics *obsmetrics.Metrics
}

func New(p Params) recorddomain.Service {
	return &Service{
		log:        p.Log.Named("record.service"),
		store:      p.Store,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Get(ctx context.Context, id string) (*recorddomain.Response, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, recorddomain.ErrInvalidID
	}

	snap, ok := s.store.Current()
	if !ok {
		s.recordLookup(ctx, "miss")
		return nil, recorddomain.ErrNotFound
	}

	rec, ok := snap.Lookup(id)
	if !ok {
		s.recordLookup(ctx, "miss")
		return nil, recorddomain.ErrNotFound
	}

	s.recordLookup(ctx, "hit")
	return toResponse(rec), nil
}

func (s *Service) recordLookup(ctx context.Context, result string) {
	if s.obsMetrics != nil {
		s.obsMetrics.RecordLookup(ctx, result)
	}
}

func toResponse(rec *recorddomain.Record) *recorddomain.Response {
	return &recorddomain.Response{
		ID:            rec.ID,
		SourceFile:    rec.SourceFile,
		RowNum:        rec.RowNum,
		Name:          rec.Name,
		Email:         rec.Email,
		Phone:         rec.Phone,
		EventName:     rec.EventName,
		ActivityType:  rec.ActivityType,
		ActivityDate:  rec.ActivityDate,
		Amount:        rec.Amount,
		PaymentStatus: rec.PaymentStatus,
		Raw:           rec.Raw.Data(),
	}
}
