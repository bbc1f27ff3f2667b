package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rollcallhq/rollcall/internal/config"
	obsmetrics "github.com/rollcallhq/rollcall/internal/observability/metrics"
	recorddomain "github.com/rollcallhq/rollcall/internal/record/domain"
	"github.com/rollcallhq/rollcall/internal/search/domain"
	"github.com/rollcallhq/rollcall/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	Config     config.Config
	Store      *store.Store
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	maxLimit   int
	store      *store.Store
	obsMetrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	maxLimit := p.Config.SearchMaxLimit
	if maxLimit <= 0 {
		maxLimit = 100
	}
	return &Service{
		log:        p.Log.Named("search.service"),
		maxLimit:   maxLimit,
		store:      p.Store,
		obsMetrics: p.ObsMetrics,
	}
}

// Search scans the current snapshot in ingestion order and returns rows
// whose name, email, phone, or event name contains the query. A blank
// query short-circuits before the snapshot is touched.
func (s *Service) Search(ctx context.Context, req domain.Request) (*domain.Response, error) {
	query := strings.TrimSpace(req.Query)
	resp := &domain.Response{
		Query:   query,
		Results: []domain.Result{},
	}
	if query == "" {
		return resp, nil
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordSearch(ctx)
	}

	limit := req.Limit
	if limit <= 0 || limit > s.maxLimit {
		limit = s.maxLimit
	}

	snapshot, ok := s.store.Current()
	if !ok {
		return resp, nil
	}

	needle := strings.ToLower(query)
	for i := range snapshot.Records {
		record := &snapshot.Records[i]
		if !matches(record, needle) {
			continue
		}
		resp.Results = append(resp.Results, toResult(record))
		if len(resp.Results) >= limit {
			break
		}
	}
	resp.Count = len(resp.Results)
	return resp, nil
}

func matches(record *recorddomain.Record, needle string) bool {
	for _, field := range []*string{record.Name, record.Email, record.Phone, record.EventName} {
		if field == nil {
			continue
		}
		if strings.Contains(strings.ToLower(*field), needle) {
			return true
		}
	}
	return false
}

func toResult(record *recorddomain.Record) domain.Result {
	return domain.Result{
		ID:            record.ID,
		Name:          record.Name,
		Email:         record.Email,
		Phone:         record.Phone,
		Source:        fmt.Sprintf("%s:%d", record.SourceFile, record.RowNum),
		EventName:     record.EventName,
		ActivityType:  record.ActivityType,
		PaymentStatus: record.PaymentStatus,
		Amount:        record.Amount,
	}
}
