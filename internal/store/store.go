package store

import (
	"sync/atomic"

	recorddomain "github.com/rollcallhq/rollcall/internal/record/domain"
	"go.uber.org/fx"
)

// Snapshot is one immutable ingestion result: the records of a single
// generation in ingestion order plus a lookup index by record id.
// Snapshots are never mutated after construction.
type Snapshot struct {
	Generation recorddomain.Generation
	Records    []recorddomain.Record

	index map[string]int
}

func NewSnapshot(gen recorddomain.Generation, records []recorddomain.Record) *Snapshot {
	index := make(map[string]int, len(records))
	for i := range records {
		index[records[i].ID] = i
	}
	return &Snapshot{
		Generation: gen,
		Records:    records,
		index:      index,
	}
}

// Lookup returns the record with the given id.
func (s *Snapshot) Lookup(id string) (*recorddomain.Record, bool) {
	if s == nil {
		return nil, false
	}
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return &s.Records[i], true
}

// Len returns the number of records in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// Store publishes the serving snapshot. Readers always observe a complete
// generation; a reload replaces the snapshot in a single atomic store, so
// in-flight requests keep reading the generation they started on.
type Store struct {
	current atomic.Value // holds *Snapshot
}

func New() *Store {
	return &Store{}
}

// Current returns the live snapshot, or false when nothing has been
// ingested or restored yet.
func (s *Store) Current() (*Snapshot, bool) {
	snap, ok := s.current.Load().(*Snapshot)
	if !ok || snap == nil {
		return nil, false
	}
	return snap, true
}

// Replace publishes snap as the live snapshot.
func (s *Store) Replace(snap *Snapshot) {
	if snap == nil {
		return
	}
	s.current.Store(snap)
}

var Module = fx.Module("store",
	fx.Provide(New),
)
