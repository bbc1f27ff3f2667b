package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEnsureDemoExportsSeedsEmptyDir(t *testing.T) {
	dir := t.TempDir()

	err := EnsureDemoExports(dir, zap.NewNop())
	require.NoError(t, err)

	events, err := os.ReadFile(filepath.Join(dir, eventsFileName))
	require.NoError(t, err)
	require.Contains(t, string(events), "Supporter Name")
	require.Contains(t, string(events), "jordan@example.com")

	donations, err := os.ReadFile(filepath.Join(dir, donationsFileName))
	require.NoError(t, err)
	require.Contains(t, string(donations), "First Name")
}

func TestEnsureDemoExportsIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, EnsureDemoExports(dir, zap.NewNop()))

	path := filepath.Join(dir, eventsFileName)
	require.NoError(t, os.WriteFile(path, []byte("edited"), 0o644))

	require.NoError(t, EnsureDemoExports(dir, zap.NewNop()))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "edited", string(content))
}

func TestEnsureDemoExportsSkipsWhenExportsExist(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "roster.CSV"), []byte("Name\n"), 0o644))

	require.NoError(t, EnsureDemoExports(dir, zap.NewNop()))

	_, err := os.Stat(filepath.Join(dir, eventsFileName))
	require.True(t, os.IsNotExist(err))
}

func TestEnsureDemoExportsCreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")

	require.NoError(t, EnsureDemoExports(dir, zap.NewNop()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestEnsureDemoExportsRequiresDir(t *testing.T) {
	require.Error(t, EnsureDemoExports("  ", zap.NewNop()))
}
