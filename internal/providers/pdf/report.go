package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateInsightsReport(ctx context.Context, data ReportData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(14,
		text.NewCol(12, data.Title, props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(8,
		text.NewCol(12, "Generated "+data.GeneratedAt, props.Text{
			Size: 9,
		}),
	)

	// Summary
	m.AddRow(30,
		col.New(6).Add(
			text.New("Total records: "+data.TotalRecords, props.Text{Top: 0}),
			text.New("Total amount: "+data.TotalAmount, props.Text{Top: 5}),
			text.New("Missing email: "+data.MissingEmailPct, props.Text{Top: 10}),
			text.New("Missing phone: "+data.MissingPhonePct, props.Text{Top: 15}),
		),
		col.New(6).Add(
			text.New("Duplicate emails: "+data.DuplicateEmails, props.Text{Top: 0}),
			text.New("Duplicate phones: "+data.DuplicatePhones, props.Text{Top: 5}),
		),
	)

	addCountTable(m, "Top events", data.TopEvents)
	addCountTable(m, "Top payment statuses", data.TopPaymentStatus)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}

func addCountTable(m core.Maroto, title string, rows []ReportCount) {
	m.AddRow(12,
		text.NewCol(12, title, props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   3,
		}),
	)

	if len(rows) == 0 {
		m.AddRow(8,
			text.NewCol(12, "No data", props.Text{Size: 9}),
		)
		return
	}

	m.AddRow(8,
		text.NewCol(9, "Name", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Count", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, row := range rows {
		m.AddRow(7,
			text.NewCol(9, row.Label, props.Text{Size: 9}),
			text.NewCol(3, row.Count, props.Text{Size: 9, Align: align.Right}),
		)
	}
}
