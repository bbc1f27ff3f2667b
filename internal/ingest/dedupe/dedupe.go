package dedupe

import recorddomain "github.com/rollcallhq/rollcall/internal/record/domain"

// Stats reports duplicate-group membership over one generation. Counts
// are member counts: every record in a group of two or more counts, not
// the groups themselves.
type Stats struct {
	DuplicateEmails int
	DuplicatePhones int
}

// Count groups records by normalized email and phone independently.
// Null values never form a group. The pass is read-only: duplicates are
// reported, never merged or dropped.
func Count(records []recorddomain.Record) Stats {
	emails := make(map[string]int)
	phones := make(map[string]int)
	for i := range records {
		if records[i].Email != nil {
			emails[*records[i].Email]++
		}
		if records[i].Phone != nil {
			phones[*records[i].Phone]++
		}
	}

	var stats Stats
	for _, n := range emails {
		if n >= 2 {
			stats.DuplicateEmails += n
		}
	}
	for _, n := range phones {
		if n >= 2 {
			stats.DuplicatePhones += n
		}
	}
	return stats
}
