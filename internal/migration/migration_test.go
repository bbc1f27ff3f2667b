package migration

import (
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	return db
}

func tableNames(t *testing.T, db *gorm.DB) []string {
	t.Helper()
	var names []string
	err := db.Raw(`SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`).Scan(&names).Error
	require.NoError(t, err)
	return names
}

func TestRunMigrationsCreatesSchema(t *testing.T) {
	db := openTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	require.NoError(t, RunMigrations(sqlDB, "sqlite"))

	names := tableNames(t, db)
	require.Contains(t, names, "generations")
	require.Contains(t, names, "records")
	require.Contains(t, names, "app_state")
	require.Contains(t, names, "schema_migrations")

	// 0002 adds the warnings column to generations
	var warningsCols int64
	err = db.Raw(`SELECT COUNT(*) FROM pragma_table_info('generations') WHERE name = 'warnings'`).Scan(&warningsCols).Error
	require.NoError(t, err)
	require.EqualValues(t, 1, warningsCols)
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	require.NoError(t, RunMigrations(sqlDB, "sqlite"))
	require.NoError(t, RunMigrations(sqlDB, "sqlite"))

	require.Contains(t, tableNames(t, db), "records")
}

func TestRunMigrationsRequiresHandle(t *testing.T) {
	err := RunMigrations(nil, "sqlite")
	require.Error(t, err)
}
