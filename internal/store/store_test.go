package store

import (
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	recorddomain "github.com/rollcallhq/rollcall/internal/record/domain"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []recorddomain.Record {
	return []recorddomain.Record{
		{ID: "events.csv::1", SourceFile: "events.csv", RowNum: 1, Position: 0},
		{ID: "events.csv::2", SourceFile: "events.csv", RowNum: 2, Position: 1},
		{ID: "donors.csv::1", SourceFile: "donors.csv", RowNum: 1, Position: 2},
	}
}

func TestSnapshotLookup(t *testing.T) {
	snap := NewSnapshot(recorddomain.Generation{ID: snowflake.ID(7)}, sampleRecords())

	rec, ok := snap.Lookup("events.csv::2")
	require.True(t, ok)
	require.Equal(t, 2, rec.RowNum)

	_, ok = snap.Lookup("events.csv::99")
	require.False(t, ok)

	require.Equal(t, 3, snap.Len())
}

func TestSnapshotNilIsSafe(t *testing.T) {
	var snap *Snapshot

	_, ok := snap.Lookup("events.csv::1")
	require.False(t, ok)
	require.Zero(t, snap.Len())
}

func TestStoreStartsEmpty(t *testing.T) {
	st := New()

	snap, ok := st.Current()
	require.False(t, ok)
	require.Nil(t, snap)
}

func TestReplacePublishesWholeGenerations(t *testing.T) {
	st := New()

	first := NewSnapshot(recorddomain.Generation{ID: snowflake.ID(1)}, sampleRecords())
	st.Replace(first)

	snap, ok := st.Current()
	require.True(t, ok)
	require.Same(t, first, snap)

	second := NewSnapshot(recorddomain.Generation{ID: snowflake.ID(2)}, sampleRecords()[:1])
	st.Replace(second)

	snap, _ = st.Current()
	require.Same(t, second, snap)
	require.Equal(t, 1, snap.Len())

	// the old snapshot is untouched for readers still holding it
	require.Equal(t, 3, first.Len())
}

func TestReplaceIgnoresNil(t *testing.T) {
	st := New()
	snap := NewSnapshot(recorddomain.Generation{ID: snowflake.ID(1)}, nil)
	st.Replace(snap)

	st.Replace(nil)

	got, ok := st.Current()
	require.True(t, ok)
	require.Same(t, snap, got)
}

func TestConcurrentReadersSeeCompleteSnapshots(t *testing.T) {
	st := New()
	gens := []*Snapshot{
		NewSnapshot(recorddomain.Generation{ID: snowflake.ID(1)}, sampleRecords()[:1]),
		NewSnapshot(recorddomain.Generation{ID: snowflake.ID(2)}, sampleRecords()[:2]),
		NewSnapshot(recorddomain.Generation{ID: snowflake.ID(3)}, sampleRecords()),
	}
	st.Replace(gens[0])

	stop := make(chan struct{})
	var writer sync.WaitGroup
	writer.Add(1)
	go func() {
		defer writer.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
				st.Replace(gens[i%len(gens)])
			}
		}
	}()

	var readers sync.WaitGroup
	for r := 0; r < 4; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for i := 0; i < 1000; i++ {
				snap, ok := st.Current()
				if !ok {
					t.Error("reader observed an empty store after first publish")
					return
				}
				// record count always matches the generation that was published
				want := int(int64(snap.Generation.ID))
				if snap.Len() != want {
					t.Errorf("generation %d served %d records", want, snap.Len())
					return
				}
			}
		}()
	}

	readers.Wait()
	close(stop)
	writer.Wait()
}
