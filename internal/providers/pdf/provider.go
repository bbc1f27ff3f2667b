package pdf

import (
	"context"
	"io"
)

// Provider renders printable documents. Implementations must be safe for
// concurrent use; every call builds a fresh document.
type Provider interface {
	GenerateInsightsReport(ctx context.Context, data ReportData) (io.Reader, error)
}

// ReportData is the display-ready content of an insights report. All
// numbers arrive pre-formatted so the renderer stays layout-only.
type ReportData struct {
	Title       string
	GeneratedAt string

	TotalRecords    string
	TotalAmount     string
	MissingEmailPct string
	MissingPhonePct string
	DuplicateEmails string
	DuplicatePhones string

	TopEvents        []ReportCount
	TopPaymentStatus []ReportCount
}

// ReportCount is one row of a ranked frequency table.
type ReportCount struct {
	Label string
	Count string
}
