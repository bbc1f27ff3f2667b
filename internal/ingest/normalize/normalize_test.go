package normalize

import (
	"testing"

	"github.com/rollcallhq/rollcall/internal/config"
	ingestdomain "github.com/rollcallhq/rollcall/internal/ingest/domain"
	"github.com/stretchr/testify/require"
)

func newTestNormalizer() *Normalizer {
	return New(config.DefaultAliasConfig())
}

func rawRow(file string, num int, cells map[string]string) ingestdomain.RawRow {
	headers := make([]string, 0, len(cells))
	for h := range cells {
		headers = append(headers, h)
	}
	return ingestdomain.RawRow{
		SourceFile: file,
		RowNum:     num,
		Headers:    headers,
		Values:     cells,
	}
}

func TestRowMapsAliasedColumns(t *testing.T) {
	n := newTestNormalizer()

	rec, skip := n.Row(ingestdomain.RawRow{
		SourceFile: "events.csv",
		RowNum:     3,
		Headers:    []string{"Supporter Name", "Email Address", "Mobile", "Event Name", "Activity Type", "Activity Date", "Payment Status", "Proceeds Amount", "Internal Ref"},
		Values: map[string]string{
			"Supporter Name":  "  Ali Rahman ",
			"Email Address":   "Ali@Example.COM",
			"Mobile":          "(555) 010-0200",
			"Event Name":      "Spring Gala",
			"Activity Type":   "Ticket",
			"Activity Date":   "2025-03-14",
			"Payment Status":  "Paid",
			"Proceeds Amount": "$1,085.50",
			"Internal Ref":    "X-99",
		},
	})

	require.Empty(t, skip)
	require.Equal(t, "events.csv::3", rec.ID)
	require.Equal(t, "events.csv", rec.SourceFile)
	require.Equal(t, 3, rec.RowNum)
	require.Equal(t, "Ali Rahman", *rec.Name)
	require.Equal(t, "ali@example.com", *rec.Email)
	require.Equal(t, "5550100200", *rec.Phone)
	require.Equal(t, "Spring Gala", *rec.EventName)
	require.Equal(t, "Ticket", *rec.ActivityType)
	require.Equal(t, "2025-03-14", *rec.ActivityDate)
	require.Equal(t, "Paid", *rec.PaymentStatus)
	require.Equal(t, 1085.50, *rec.Amount)

	// unmapped columns survive only inside raw
	require.Equal(t, "X-99", rec.Raw.Data()["Internal Ref"])
}

func TestRowIsDeterministic(t *testing.T) {
	n := newTestNormalizer()
	row := rawRow("a.csv", 1, map[string]string{
		"Name":   "Bea Ortiz",
		"Email":  "BEA@example.org",
		"Phone":  "+44 20 7123 4567",
		"Amount": "12.50",
	})

	first, skip := n.Row(row)
	require.Empty(t, skip)
	second, skip := n.Row(row)
	require.Empty(t, skip)

	require.Equal(t, first.ID, second.ID)
	require.Equal(t, *first.Name, *second.Name)
	require.Equal(t, *first.Email, *second.Email)
	require.Equal(t, *first.Phone, *second.Phone)
	require.Equal(t, *first.Amount, *second.Amount)
	require.Equal(t, first.Raw.Data(), second.Raw.Data())
}

func TestRowSkipsEmptyRows(t *testing.T) {
	n := newTestNormalizer()

	rec, skip := n.Row(rawRow("a.csv", 2, map[string]string{
		"Name":  "   ",
		"Email": "",
	}))

	require.Nil(t, rec)
	require.Equal(t, ingestdomain.SkipReasonEmptyRow, skip)
}

func TestRowPreservesRawExactly(t *testing.T) {
	n := newTestNormalizer()
	cells := map[string]string{
		"Name":       "Chen Wu",
		"Email":      "not-an-email",
		"Unexpected": "  keep me verbatim  ",
	}

	rec, skip := n.Row(rawRow("a.csv", 1, cells))

	require.Empty(t, skip)
	require.Nil(t, rec.Email)
	require.Equal(t, cells, rec.Raw.Data())
}

func TestComposeNamePrefersFullName(t *testing.T) {
	n := newTestNormalizer()

	rec, _ := n.Row(rawRow("a.csv", 1, map[string]string{
		"Full Name":  "Dana Whitfield",
		"First Name": "Ignored",
		"Last Name":  "Too",
	}))
	require.Equal(t, "Dana Whitfield", *rec.Name)

	rec, _ = n.Row(rawRow("a.csv", 2, map[string]string{
		"First Name": "Marcus",
		"Last Name":  "Bell",
	}))
	require.Equal(t, "Marcus Bell", *rec.Name)

	rec, _ = n.Row(rawRow("a.csv", 3, map[string]string{
		"First Name": "Tessa",
	}))
	require.Equal(t, "Tessa", *rec.Name)

	rec, _ = n.Row(rawRow("a.csv", 4, map[string]string{
		"Amount": "10",
	}))
	require.Nil(t, rec.Name)
}

func TestHeaderMatchingFoldsCaseAndWhitespace(t *testing.T) {
	n := newTestNormalizer()

	rec, _ := n.Row(rawRow("a.csv", 1, map[string]string{
		"  EMAIL   address ": "ali@example.com",
	}))

	require.NotNil(t, rec.Email)
	require.Equal(t, "ali@example.com", *rec.Email)
}

func TestNormalizeEmailRules(t *testing.T) {
	tests := []struct {
		in   string
		want string
		null bool
	}{
		{in: "Ali@Example.COM", want: "ali@example.com"},
		{in: "  padded@example.org ", want: "padded@example.org"},
		{in: "plainaddress", null: true},
		{in: "@nodomainlocal", null: true},
		{in: "nolocal@", null: true},
		{in: "two@@example.com", null: true},
		{in: "a@b@c", null: true},
		{in: "", null: true},
	}

	for _, tt := range tests {
		got := normalizeEmail(tt.in)
		if tt.null {
			require.Nil(t, got, tt.in)
			continue
		}
		require.NotNil(t, got, tt.in)
		require.Equal(t, tt.want, *got, tt.in)
	}
}

func TestNormalizePhoneRules(t *testing.T) {
	tests := []struct {
		in   string
		want string
		null bool
	}{
		{in: "(555) 010-0200", want: "5550100200"},
		{in: "+44 20 7123 4567", want: "+442071234567"},
		{in: "555.010.0200 ext 9", want: "55501002009"},
		{in: "12345+6", null: true},
		{in: "+123456", null: true},
		{in: "555-0100", want: "5550100"},
		{in: "call me", null: true},
		{in: "", null: true},
	}

	for _, tt := range tests {
		got := normalizePhone(tt.in)
		if tt.null {
			require.Nil(t, got, tt.in)
			continue
		}
		require.NotNil(t, got, tt.in)
		require.Equal(t, tt.want, *got, tt.in)
	}
}

func TestNormalizeDateFirstLayoutWins(t *testing.T) {
	layouts := config.DefaultAliasConfig().DateFormats

	tests := []struct {
		in   string
		want string
		null bool
	}{
		{in: "2025-03-14", want: "2025-03-14"},
		{in: "2025/03/14", want: "2025-03-14"},
		{in: "04/10/2025", want: "2025-04-10"},
		{in: "4/1/2025", want: "2025-04-01"},
		{in: "Mar 14, 2025", want: "2025-03-14"},
		{in: "14 Mar 2025", want: "2025-03-14"},
		{in: "2025-03-14T09:30:00Z", want: "2025-03-14"},
		{in: "sometime in spring", null: true},
		{in: "", null: true},
	}

	for _, tt := range tests {
		got := normalizeDate(tt.in, layouts)
		if tt.null {
			require.Nil(t, got, tt.in)
			continue
		}
		require.NotNil(t, got, tt.in)
		require.Equal(t, tt.want, *got, tt.in)
	}
}

func TestNormalizeAmountRules(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		null bool
	}{
		{in: "$85.00", want: 85},
		{in: "$1,234.56", want: 1234.56},
		{in: "120", want: 120},
		{in: "-40.25", want: -40.25},
		{in: "free", null: true},
		{in: "12.3.4", null: true},
		{in: "", null: true},
	}

	for _, tt := range tests {
		got := normalizeAmount(tt.in)
		if tt.null {
			require.Nil(t, got, tt.in)
			continue
		}
		require.NotNil(t, got, tt.in)
		require.Equal(t, tt.want, *got, tt.in)
	}
}
