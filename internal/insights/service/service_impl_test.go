package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rollcallhq/rollcall/internal/config"
	insightsdomain "github.com/rollcallhq/rollcall/internal/insights/domain"
	insightsservice "github.com/rollcallhq/rollcall/internal/insights/service"
	"github.com/rollcallhq/rollcall/internal/providers/pdf"
	recorddomain "github.com/rollcallhq/rollcall/internal/record/domain"
	"github.com/rollcallhq/rollcall/internal/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func strPtr(s string) *string { return &s }

func f64Ptr(v float64) *float64 { return &v }

func newInsightsService(topN int, st *store.Store) insightsdomain.Service {
	return insightsservice.New(insightsservice.Params{
		Log:    zap.NewNop(),
		Config: config.Config{InsightsTopN: topN},
		Clock:  fixedClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		Store:  st,
		PDF:    pdf.New(),
	})
}

func populatedStore(genID snowflake.ID, records []recorddomain.Record, dupEmails, dupPhones int) *store.Store {
	st := store.New()
	gen := recorddomain.Generation{
		ID:              genID,
		RowsIngested:    len(records),
		DuplicateEmails: dupEmails,
		DuplicatePhones: dupPhones,
		CreatedAt:       time.Now(),
	}
	st.Replace(store.NewSnapshot(gen, records))
	return st
}

func TestSnapshotEmptyStore(t *testing.T) {
	svc := newInsightsService(6, store.New())

	snapshot, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	require.Equal(t, 0, snapshot.TotalRecords)
	require.Equal(t, float64(0), snapshot.TotalAmount)
	require.Equal(t, float64(0), snapshot.MissingEmailPct)
	require.Equal(t, float64(0), snapshot.MissingPhonePct)
	require.Equal(t, 0, snapshot.DuplicateEmails)
	require.Equal(t, 0, snapshot.DuplicatePhones)
	require.Empty(t, snapshot.TopEvents)
	require.Empty(t, snapshot.TopPaymentStatus)

	raw, err := json.Marshal(snapshot)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"top_events":{}`)
	require.Contains(t, string(raw), `"top_payment_status":{}`)
}

func TestSnapshotAggregates(t *testing.T) {
	records := []recorddomain.Record{
		{
			ID:            "a.csv::1",
			SourceFile:    "a.csv",
			RowNum:        1,
			Email:         strPtr("one@example.com"),
			Phone:         strPtr("+15550100001"),
			EventName:     strPtr("Gala"),
			PaymentStatus: strPtr("Paid"),
			Amount:        f64Ptr(125.5),
		},
		{
			ID:            "a.csv::2",
			SourceFile:    "a.csv",
			RowNum:        2,
			EventName:     strPtr("Gala"),
			PaymentStatus: strPtr("Pending"),
			Amount:        f64Ptr(24.25),
		},
		{
			ID:         "a.csv::3",
			SourceFile: "a.csv",
			RowNum:     3,
			EventName:  strPtr("Fun Run"),
			Amount:     f64Ptr(0.25),
		},
	}
	svc := newInsightsService(6, populatedStore(7, records, 2, 0))

	snapshot, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	require.Equal(t, 3, snapshot.TotalRecords)
	require.Equal(t, 150.0, snapshot.TotalAmount)
	require.Equal(t, 66.7, snapshot.MissingEmailPct)
	require.Equal(t, 66.7, snapshot.MissingPhonePct)
	require.Equal(t, 2, snapshot.DuplicateEmails)
	require.Equal(t, 0, snapshot.DuplicatePhones)

	require.Equal(t, insightsdomain.TopCounts{
		{Label: "Gala", Count: 2},
		{Label: "Fun Run", Count: 1},
	}, snapshot.TopEvents)
	require.Equal(t, insightsdomain.TopCounts{
		{Label: "Paid", Count: 1},
		{Label: "Pending", Count: 1},
	}, snapshot.TopPaymentStatus)
}

func TestSnapshotTopNTruncationAndTies(t *testing.T) {
	var records []recorddomain.Record
	addRows := func(event string, n int) {
		for i := 0; i < n; i++ {
			records = append(records, recorddomain.Record{
				ID:         fmt.Sprintf("a.csv::%d", len(records)+1),
				SourceFile: "a.csv",
				RowNum:     len(records) + 1,
				EventName:  strPtr(event),
			})
		}
	}
	addRows("Bravo", 2)
	addRows("Alpha", 3)
	addRows("Charlie", 2)
	addRows("Delta", 1)

	svc := newInsightsService(3, populatedStore(8, records, 0, 0))

	snapshot, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	// Bravo ties Charlie on count but ranks first because it was seen
	// first in the scan. Delta falls outside the top 3.
	require.Equal(t, insightsdomain.TopCounts{
		{Label: "Alpha", Count: 3},
		{Label: "Bravo", Count: 2},
		{Label: "Charlie", Count: 2},
	}, snapshot.TopEvents)
}

func TestSnapshotCachedPerGeneration(t *testing.T) {
	records := []recorddomain.Record{
		{ID: "a.csv::1", SourceFile: "a.csv", RowNum: 1, EventName: strPtr("Gala")},
	}
	st := populatedStore(9, records, 0, 0)
	svc := newInsightsService(6, st)

	first, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	second, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.Same(t, first, second)

	st.Replace(store.NewSnapshot(recorddomain.Generation{ID: 10, RowsIngested: 2}, []recorddomain.Record{
		{ID: "a.csv::1", SourceFile: "a.csv", RowNum: 1},
		{ID: "a.csv::2", SourceFile: "a.csv", RowNum: 2},
	}))

	third, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.NotSame(t, first, third)
	require.Equal(t, 2, third.TotalRecords)
}

func TestTopCountsJSONKeepsRankOrder(t *testing.T) {
	counts := insightsdomain.TopCounts{
		{Label: "Winter Gala", Count: 12},
		{Label: "Fun Run", Count: 7},
		{Label: `Quo"ted`, Count: 1},
	}

	raw, err := json.Marshal(counts)
	require.NoError(t, err)
	require.Equal(t, `{"Winter Gala":12,"Fun Run":7,"Quo\"ted":1}`, string(raw))

	var decoded insightsdomain.TopCounts
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, counts, decoded)
}

func TestReportRendersPDF(t *testing.T) {
	records := []recorddomain.Record{
		{
			ID:            "a.csv::1",
			SourceFile:    "a.csv",
			RowNum:        1,
			EventName:     strPtr("Gala"),
			PaymentStatus: strPtr("Paid"),
			Amount:        f64Ptr(10),
		},
	}
	svc := newInsightsService(6, populatedStore(11, records, 0, 0))

	report, err := svc.Report(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, report)
	require.Equal(t, "%PDF", string(report[:4]))
}

func TestReportEmptyStore(t *testing.T) {
	svc := newInsightsService(6, store.New())

	report, err := svc.Report(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, report)
	require.Equal(t, "%PDF", string(report[:4]))
}
