package dedupe

import (
	"testing"

	recorddomain "github.com/rollcallhq/rollcall/internal/record/domain"
	"github.com/stretchr/testify/require"
)

func strPtr(v string) *string { return &v }

func TestCountUsesMemberCounts(t *testing.T) {
	records := []recorddomain.Record{
		{ID: "a.csv::1", Email: strPtr("a@x.com")},
		{ID: "a.csv::2", Email: strPtr("a@x.com")},
		{ID: "a.csv::3", Email: strPtr("a@x.com")},
		{ID: "b.csv::1", Email: strPtr("b@x.com")},
		{ID: "b.csv::2", Email: strPtr("c@x.com")},
	}

	stats := Count(records)

	// all three members of the a@x.com group count, not the one group
	require.Equal(t, 3, stats.DuplicateEmails)
	require.Equal(t, 0, stats.DuplicatePhones)
}

func TestCountIgnoresNullKeys(t *testing.T) {
	records := []recorddomain.Record{
		{ID: "a.csv::1"},
		{ID: "a.csv::2"},
		{ID: "a.csv::3", Phone: strPtr("5550100200")},
	}

	stats := Count(records)

	require.Equal(t, 0, stats.DuplicateEmails)
	require.Equal(t, 0, stats.DuplicatePhones)
}

func TestCountEmailAndPhoneAreIndependent(t *testing.T) {
	records := []recorddomain.Record{
		{ID: "a.csv::1", Email: strPtr("a@x.com"), Phone: strPtr("5550100200")},
		{ID: "a.csv::2", Email: strPtr("b@x.com"), Phone: strPtr("5550100200")},
		{ID: "a.csv::3", Email: strPtr("a@x.com"), Phone: strPtr("5550100300")},
	}

	stats := Count(records)

	require.Equal(t, 2, stats.DuplicateEmails)
	require.Equal(t, 2, stats.DuplicatePhones)
}

func TestCountEmptySet(t *testing.T) {
	stats := Count(nil)

	require.Zero(t, stats.DuplicateEmails)
	require.Zero(t, stats.DuplicatePhones)
}
