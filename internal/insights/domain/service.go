package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// Service aggregates the current snapshot into dashboard metrics.
type Service interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
	Report(ctx context.Context) ([]byte, error)
}

// Snapshot is the aggregate view of one generation. An empty store yields
// a zero-valued snapshot, never an error.
type Snapshot struct {
	TotalRecords     int       `json:"total_records"`
	TotalAmount      float64   `json:"total_amount"`
	MissingEmailPct  float64   `json:"missing_email_pct"`
	MissingPhonePct  float64   `json:"missing_phone_pct"`
	DuplicateEmails  int       `json:"duplicate_emails"`
	DuplicatePhones  int       `json:"duplicate_phones"`
	TopEvents        TopCounts `json:"top_events"`
	TopPaymentStatus TopCounts `json:"top_payment_status"`
}

// TopCounts is a ranked frequency table. It marshals to a JSON object
// whose keys appear in rank order, which is the shape the UI consumes.
type TopCounts []TopCount

type TopCount struct {
	Label string
	Count int
}

func (t TopCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(entry.Count))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (t *TopCounts) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("top counts: expected object, got %v", tok)
	}

	entries := TopCounts{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("top counts: expected string key, got %v", keyTok)
		}
		var count int
		if err := dec.Decode(&count); err != nil {
			return err
		}
		entries = append(entries, TopCount{Label: key, Count: count})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*t = entries
	return nil
}
