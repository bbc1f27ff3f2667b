package domain

import "errors"

// RawRow is one data row exactly as read from a source file. Headers
// preserves column order; Values is the field map served back as `raw`
// and is never mutated after the reader builds it.
type RawRow struct {
	SourceFile string
	RowNum     int
	Headers    []string
	Values     map[string]string
}

// Summary reports one completed reload to the caller.
type Summary struct {
	SessionID       string   `json:"session_id"`
	FilesProcessed  int      `json:"files_processed"`
	RowsIngested    int      `json:"rows_ingested"`
	RowsSkipped     int      `json:"rows_skipped"`
	DuplicateEmails int      `json:"duplicate_emails"`
	DuplicatePhones int      `json:"duplicate_phones"`
	DurationMS      int64    `json:"duration_ms"`
	Warnings        []string `json:"warnings"`
}

// Phase is the observable state of the reload orchestrator.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseReading       Phase = "reading"
	PhaseNormalizing   Phase = "normalizing"
	PhaseDeduplicating Phase = "deduplicating"
	PhaseSwapping      Phase = "swapping"
	PhaseFailed        Phase = "failed"
)

// Row skip reasons recorded on the session.
const (
	SkipReasonEmptyRow    = "empty_row"
	SkipReasonUnparseable = "unparseable"
)

var (
	ErrReloadInProgress = errors.New("reload_in_progress")
	ErrNoFilesIngested  = errors.New("no_files_ingested")
)
