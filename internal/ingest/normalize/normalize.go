package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rollcallhq/rollcall/internal/config"
	ingestdomain "github.com/rollcallhq/rollcall/internal/ingest/domain"
	recorddomain "github.com/rollcallhq/rollcall/internal/record/domain"
	"gorm.io/datatypes"
)

// Normalizer derives canonical record fields from raw rows using one
// immutable alias view, so every row of a reload is mapped the same way
// even if the alias file changes mid-run. Canonical fields are a pure
// function of the raw row: identical input always yields identical output.
type Normalizer struct {
	aliases config.AliasConfig
}

func New(aliases config.AliasConfig) *Normalizer {
	return &Normalizer{aliases: aliases}
}

// Row maps one raw row to a canonical record, or returns a skip reason
// when the row holds no data at all. The raw map is carried unmodified.
func (n *Normalizer) Row(row ingestdomain.RawRow) (*recorddomain.Record, string) {
	if isEmptyRow(row) {
		return nil, ingestdomain.SkipReasonEmptyRow
	}

	lookup := newFieldLookup(row)

	return &recorddomain.Record{
		ID:            fmt.Sprintf("%s::%d", row.SourceFile, row.RowNum),
		SourceFile:    row.SourceFile,
		RowNum:        row.RowNum,
		Name:          n.composeName(lookup),
		Email:         normalizeEmail(lookup.first(n.aliases.Email)),
		Phone:         normalizePhone(lookup.first(n.aliases.Phone)),
		EventName:     cleanString(lookup.first(n.aliases.EventName)),
		ActivityType:  cleanString(lookup.first(n.aliases.ActivityType)),
		ActivityDate:  normalizeDate(lookup.first(n.aliases.ActivityDate), n.aliases.DateFormats),
		PaymentStatus: cleanString(lookup.first(n.aliases.PaymentStatus)),
		Amount:        normalizeAmount(lookup.first(n.aliases.Amount)),
		Raw:           datatypes.NewJSONType(row.Values),
	}, ""
}

// fieldLookup indexes a row's cells by folded header name. Header order
// decides collisions: the first column with a given folded name wins.
type fieldLookup struct {
	values map[string]string
}

func newFieldLookup(row ingestdomain.RawRow) fieldLookup {
	values := make(map[string]string, len(row.Headers))
	for _, h := range row.Headers {
		key := foldHeader(h)
		if _, ok := values[key]; ok {
			continue
		}
		if cell, ok := row.Values[h]; ok {
			values[key] = cell
		}
	}
	return fieldLookup{values: values}
}

// first returns the value of the first alias with a non-blank cell.
func (l fieldLookup) first(aliases []string) string {
	for _, alias := range aliases {
		if cell, ok := l.values[foldHeader(alias)]; ok && strings.TrimSpace(cell) != "" {
			return cell
		}
	}
	return ""
}

// foldHeader makes header matching case- and whitespace-insensitive.
func foldHeader(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

func (n *Normalizer) composeName(lookup fieldLookup) *string {
	if full := strings.TrimSpace(lookup.first(n.aliases.FullName)); full != "" {
		return &full
	}
	first := strings.TrimSpace(lookup.first(n.aliases.FirstName))
	last := strings.TrimSpace(lookup.first(n.aliases.LastName))
	name := strings.TrimSpace(first + " " + last)
	if name == "" {
		return nil
	}
	return &name
}

func cleanString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

// normalizeEmail lower-cases and requires exactly one @ with non-empty
// local and domain parts. Anything else stays visible only in raw.
func normalizeEmail(value string) *string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return nil
	}
	local, domain, ok := strings.Cut(value, "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") {
		return nil
	}
	return &value
}

// normalizePhone strips everything but digits and a leading +. Fewer than
// seven digits is treated as no phone at all.
func normalizePhone(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	var b strings.Builder
	for i, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}

	normalized := b.String()
	digits := len(normalized)
	if strings.HasPrefix(normalized, "+") {
		digits--
	}
	if digits < 7 {
		return nil
	}
	return &normalized
}

// normalizeDate tries the configured layouts in order; the first parse
// wins and is stored as an ISO calendar date.
func normalizeDate(value string, layouts []string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			iso := t.Format("2006-01-02")
			return &iso
		}
	}
	return nil
}

// normalizeAmount strips currency symbols and thousands separators and
// parses the rest as a signed decimal.
func normalizeAmount(value string) *float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return nil
	}

	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &parsed
}

func isEmptyRow(row ingestdomain.RawRow) bool {
	for _, value := range row.Values {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}
