package seed

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const (
	eventsFileName    = "sample_events.csv"
	donationsFileName = "sample_donations.csv"
)

// The two files deliberately use different header spellings so a demo
// install shows the alias mapping at work, and share one email so the
// duplicate counters have something to count.
const sampleEvents = `Supporter Name,Email Address,Mobile,Event Name,Activity Type,Activity Date,Payment Status,Proceeds Amount
Jordan Avery,jordan@example.com,(555) 010-0200,Spring Gala,Ticket,2025-03-14,Paid,$85.00
Sam Whitfield,sam@example.com,555-010-0300,Spring Gala,Donation,2025-03-14,Paid,$40.00
Jordan Avery,jordan@example.com,(555) 010-0200,Fun Run,Registration,2025-04-02,Pending,$25.00
,,,,,,,
Priya Natarajan,priya@example.com,,Fun Run,Registration,2025-04-02,Paid,$25.00
`

const sampleDonations = `First Name,Last Name,Email,Phone,Event Name,Activity Type,Payment Date,Status,Total
Marcus,Bell,marcus@example.com,+1 555 010 0400,Annual Appeal,Donation,04/10/2025,Paid,120
Tessa,Okafor,,,Annual Appeal,Donation,04/11/2025,Pledged,60
`

// EnsureDemoExports writes two small export files into dataDir when it
// holds no exports yet, so a fresh install has something to ingest.
func EnsureDemoExports(dataDir string, log *zap.Logger) error {
	if strings.TrimSpace(dataDir) == "" {
		return errors.New("seed data directory is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir %s: %w", dataDir, err)
	}

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".csv", ".xlsx":
			return nil
		}
	}

	files := map[string]string{
		eventsFileName:    sampleEvents,
		donationsFileName: sampleDonations,
	}
	for name, content := range files {
		path := filepath.Join(dataDir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	log.Info("demo exports seeded",
		zap.String("dir", dataDir),
		zap.Int("files", len(files)),
	)
	return nil
}
