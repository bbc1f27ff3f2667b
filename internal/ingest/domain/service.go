package domain

import "context"

type Service interface {
	// Reload scans the export directory, builds a new generation and swaps
	// it in. Returns ErrReloadInProgress while another reload is running
	// and ErrNoFilesIngested when no file yielded any records.
	Reload(ctx context.Context) (*Summary, error)

	// Restore republishes the last persisted generation, if any. It
	// reports whether a generation was found.
	Restore(ctx context.Context) (bool, error)

	// Phase returns the orchestrator's current phase.
	Phase() Phase
}
