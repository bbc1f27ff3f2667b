package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/rollcallhq/rollcall/internal/clock"
	"github.com/rollcallhq/rollcall/internal/config"
	ingestdomain "github.com/rollcallhq/rollcall/internal/ingest/domain"
	recorddomain "github.com/rollcallhq/rollcall/internal/record/domain"
	"github.com/rollcallhq/rollcall/internal/record/repository"
	"github.com/rollcallhq/rollcall/internal/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&recorddomain.Generation{},
		&recorddomain.Record{},
		&recorddomain.AppState{},
	))
	return db
}

type harness struct {
	svc   ingestdomain.Service
	store *store.Store
	db    *gorm.DB
	clock *clock.FakeClock
}

func newHarness(t *testing.T, db *gorm.DB, st *store.Store, dataDir string) *harness {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   fake,
		Config:  config.Config{DataDir: dataDir, FileTimeout: 5 * time.Second},
		Aliases: config.NewStaticAliasConfigHolder(config.DefaultAliasConfig()),
		Repo:    repository.Provide(),
		Store:   st,
	})

	return &harness{svc: svc, store: st, db: db, clock: fake}
}

func writeExport(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

const fileA = "Name,Email,Phone,Event Name,Amount\n" +
	"Ali Rahman,a@x.com,555-010-0200,Spring Gala,85\n" +
	"Bea Ortiz,b@x.com,555-010-0300,Spring Gala,40\n" +
	"Second Ali,a@x.com,555-010-0400,Fun Run,25\n"

const fileB = "Supporter Name,Email Address,Proceeds Amount\n" +
	"Chen Wu,chen@example.com,$120.00\n" +
	"Priya Natarajan,priya@example.com,60\n"

func TestReloadIngestsAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "a_events.csv", fileA)
	writeExport(t, dir, "b_donations.csv", fileB)

	h := newHarness(t, newTestDB(t), store.New(), dir)

	summary, err := h.svc.Reload(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, summary.FilesProcessed)
	require.Equal(t, 5, summary.RowsIngested)
	require.Equal(t, 0, summary.RowsSkipped)
	require.Equal(t, 2, summary.DuplicateEmails)
	require.Equal(t, 0, summary.DuplicatePhones)
	require.NotEmpty(t, summary.SessionID)
	require.Empty(t, summary.Warnings)

	snap, ok := h.store.Current()
	require.True(t, ok)
	require.Equal(t, 5, snap.Len())

	// ingestion order follows sorted file names, then row order
	require.Equal(t, "a_events.csv::1", snap.Records[0].ID)
	require.Equal(t, "b_donations.csv::2", snap.Records[4].ID)

	rec, ok := snap.Lookup("a_events.csv::1")
	require.True(t, ok)
	require.Equal(t, map[string]string{
		"Name":       "Ali Rahman",
		"Email":      "a@x.com",
		"Phone":      "555-010-0200",
		"Event Name": "Spring Gala",
		"Amount":     "85",
	}, rec.Raw.Data())

	require.Equal(t, ingestdomain.PhaseIdle, h.svc.Phase())
}

func TestReloadIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "a_events.csv", fileA)

	h := newHarness(t, newTestDB(t), store.New(), dir)

	first, err := h.svc.Reload(context.Background())
	require.NoError(t, err)
	second, err := h.svc.Reload(context.Background())
	require.NoError(t, err)

	require.Equal(t, first.RowsIngested, second.RowsIngested)
	require.Equal(t, first.DuplicateEmails, second.DuplicateEmails)

	snap, _ := h.store.Current()
	require.Equal(t, second.RowsIngested, snap.Len())

	// only the latest generation survives the prune
	var generations int64
	require.NoError(t, h.db.Table("generations").Count(&generations).Error)
	require.EqualValues(t, 1, generations)

	var records int64
	require.NoError(t, h.db.Table("records").Count(&records).Error)
	require.EqualValues(t, 3, records)
}

func TestReloadRejectsConcurrentRuns(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "a_events.csv", fileA)

	h := newHarness(t, newTestDB(t), store.New(), dir)

	impl := h.svc.(*Service)
	impl.running.Store(true)

	_, err := h.svc.Reload(context.Background())
	require.ErrorIs(t, err, ingestdomain.ErrReloadInProgress)

	impl.running.Store(false)
	_, err = h.svc.Reload(context.Background())
	require.NoError(t, err)
}

func TestReloadFailsWithoutFiles(t *testing.T) {
	h := newHarness(t, newTestDB(t), store.New(), t.TempDir())

	_, err := h.svc.Reload(context.Background())
	require.ErrorIs(t, err, ingestdomain.ErrNoFilesIngested)
	require.Equal(t, ingestdomain.PhaseFailed, h.svc.Phase())

	_, ok := h.store.Current()
	require.False(t, ok)
}

func TestReloadFailureKeepsPreviousGeneration(t *testing.T) {
	goodDir := t.TempDir()
	writeExport(t, goodDir, "a_events.csv", fileA)

	db := newTestDB(t)
	st := store.New()

	good := newHarness(t, db, st, goodDir)
	_, err := good.svc.Reload(context.Background())
	require.NoError(t, err)
	before, _ := st.Current()

	empty := newHarness(t, db, st, t.TempDir())
	_, err = empty.svc.Reload(context.Background())
	require.ErrorIs(t, err, ingestdomain.ErrNoFilesIngested)

	after, ok := st.Current()
	require.True(t, ok)
	require.Same(t, before, after)
}

func TestReloadSkipsUnreadableFileAndContinues(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "a_events.csv", fileA)
	writeExport(t, dir, "broken.xlsx", "not really a workbook")

	h := newHarness(t, newTestDB(t), store.New(), dir)

	summary, err := h.svc.Reload(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, summary.FilesProcessed)
	require.Equal(t, 3, summary.RowsIngested)
	require.Len(t, summary.Warnings, 1)
	require.Contains(t, summary.Warnings[0], "broken.xlsx")
}

func TestReloadCountsEmptyRows(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "a_events.csv", "Name,Email\nAli,a@x.com\n , \n")

	h := newHarness(t, newTestDB(t), store.New(), dir)

	summary, err := h.svc.Reload(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, summary.RowsIngested)
	require.Equal(t, 1, summary.RowsSkipped)
	require.Contains(t, strings.Join(summary.Warnings, "\n"), ingestdomain.SkipReasonEmptyRow)
}

func TestReloadFailsWhenEveryRowIsEmpty(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "a_events.csv", "Name,Email\n,\n , \n")

	h := newHarness(t, newTestDB(t), store.New(), dir)

	_, err := h.svc.Reload(context.Background())
	require.ErrorIs(t, err, ingestdomain.ErrNoFilesIngested)
}

func TestRestoreRepublishesPersistedGeneration(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "a_events.csv", fileA)

	db := newTestDB(t)

	first := newHarness(t, db, store.New(), dir)
	summary, err := first.svc.Reload(context.Background())
	require.NoError(t, err)
	persisted, _ := first.store.Current()

	// a fresh process shares the database but starts with an empty store
	second := newHarness(t, db, store.New(), dir)
	restored, err := second.svc.Restore(context.Background())
	require.NoError(t, err)
	require.True(t, restored)

	snap, ok := second.store.Current()
	require.True(t, ok)
	require.Equal(t, summary.RowsIngested, snap.Len())
	require.Equal(t, persisted.Generation.ID, snap.Generation.ID)
	require.Equal(t, summary.DuplicateEmails, snap.Generation.DuplicateEmails)

	// raw maps survive the round trip through the database
	rec, ok := snap.Lookup("a_events.csv::2")
	require.True(t, ok)
	require.Equal(t, "b@x.com", rec.Raw.Data()["Email"])
	require.Equal(t, "Bea Ortiz", *rec.Name)

	// ingestion order is preserved
	for i := 1; i < snap.Len(); i++ {
		require.Greater(t, snap.Records[i].Position, snap.Records[i-1].Position)
	}
}

func TestRestoreWithoutPersistedState(t *testing.T) {
	h := newHarness(t, newTestDB(t), store.New(), t.TempDir())

	restored, err := h.svc.Restore(context.Background())
	require.NoError(t, err)
	require.False(t, restored)

	_, ok := h.store.Current()
	require.False(t, ok)
}
