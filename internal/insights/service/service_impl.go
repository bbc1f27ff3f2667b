package service

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/rollcallhq/rollcall/internal/clock"
	"github.com/rollcallhq/rollcall/internal/config"
	"github.com/rollcallhq/rollcall/internal/insights/domain"
	"github.com/rollcallhq/rollcall/internal/providers/pdf"
	"github.com/rollcallhq/rollcall/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log    *zap.Logger
	Config config.Config
	Clock  clock.Clock
	Store  *store.Store
	PDF    pdf.Provider
}

type Service struct {
	log   *zap.Logger
	topN  int
	clock clock.Clock
	store *store.Store
	pdf   pdf.Provider

	mu        sync.Mutex
	cachedGen snowflake.ID
	cached    *domain.Snapshot
}

func New(p Params) domain.Service {
	topN := p.Config.InsightsTopN
	if topN <= 0 {
		topN = 6
	}
	return &Service{
		log:   p.Log.Named("insights.service"),
		topN:  topN,
		clock: p.Clock,
		store: p.Store,
		pdf:   p.PDF,
	}
}

// Snapshot returns the aggregate view of the current generation. The
// result is cached per generation; a reload swap invalidates it.
func (s *Service) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	snap, ok := s.store.Current()
	if !ok {
		return emptySnapshot(), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil && s.cachedGen == snap.Generation.ID {
		return s.cached, nil
	}

	result := s.aggregate(snap)
	s.cached = result
	s.cachedGen = snap.Generation.ID
	return result, nil
}

// Report renders the current snapshot as a PDF document.
func (s *Service) Report(ctx context.Context) ([]byte, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	reader, err := s.pdf.GenerateInsightsReport(ctx, s.reportData(snapshot))
	if err != nil {
		return nil, fmt.Errorf("render insights report: %w", err)
	}
	return io.ReadAll(reader)
}

func (s *Service) aggregate(snap *store.Snapshot) *domain.Snapshot {
	result := &domain.Snapshot{
		TotalRecords:    snap.Len(),
		DuplicateEmails: snap.Generation.DuplicateEmails,
		DuplicatePhones: snap.Generation.DuplicatePhones,
	}

	var totalAmount float64
	missingEmail := 0
	missingPhone := 0
	events := newCounter()
	statuses := newCounter()

	for i := range snap.Records {
		record := &snap.Records[i]
		if record.Amount != nil {
			totalAmount += *record.Amount
		}
		if record.Email == nil {
			missingEmail++
		}
		if record.Phone == nil {
			missingPhone++
		}
		if record.EventName != nil {
			events.add(*record.EventName)
		}
		if record.PaymentStatus != nil {
			statuses.add(*record.PaymentStatus)
		}
	}

	result.TotalAmount = round2(totalAmount)
	if result.TotalRecords > 0 {
		total := float64(result.TotalRecords)
		result.MissingEmailPct = round1(float64(missingEmail) / total * 100)
		result.MissingPhonePct = round1(float64(missingPhone) / total * 100)
	}
	result.TopEvents = events.top(s.topN)
	result.TopPaymentStatus = statuses.top(s.topN)
	return result
}

func (s *Service) reportData(snapshot *domain.Snapshot) pdf.ReportData {
	return pdf.ReportData{
		Title:            "Rollcall Insights",
		GeneratedAt:      s.clock.Now().Format("2006-01-02 15:04 MST"),
		TotalRecords:     strconv.Itoa(snapshot.TotalRecords),
		TotalAmount:      fmt.Sprintf("%.2f", snapshot.TotalAmount),
		MissingEmailPct:  fmt.Sprintf("%.1f%%", snapshot.MissingEmailPct),
		MissingPhonePct:  fmt.Sprintf("%.1f%%", snapshot.MissingPhonePct),
		DuplicateEmails:  strconv.Itoa(snapshot.DuplicateEmails),
		DuplicatePhones:  strconv.Itoa(snapshot.DuplicatePhones),
		TopEvents:        reportCounts(snapshot.TopEvents),
		TopPaymentStatus: reportCounts(snapshot.TopPaymentStatus),
	}
}

func reportCounts(counts domain.TopCounts) []pdf.ReportCount {
	rows := make([]pdf.ReportCount, 0, len(counts))
	for _, entry := range counts {
		rows = append(rows, pdf.ReportCount{
			Label: entry.Label,
			Count: strconv.Itoa(entry.Count),
		})
	}
	return rows
}

func emptySnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		TopEvents:        domain.TopCounts{},
		TopPaymentStatus: domain.TopCounts{},
	}
}

// counter tallies values and remembers first-occurrence order so top-N
// ties rank deterministically.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: map[string]int{}}
}

func (c *counter) add(value string) {
	if _, seen := c.counts[value]; !seen {
		c.order = append(c.order, value)
	}
	c.counts[value]++
}

func (c *counter) top(n int) domain.TopCounts {
	ranked := make(domain.TopCounts, 0, len(c.order))
	for _, value := range c.order {
		ranked = append(ranked, domain.TopCount{Label: value, Count: c.counts[value]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
