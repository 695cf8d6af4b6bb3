package pdf

import (
	"context"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type MarotoRenderer struct{}

func New() Renderer {
	return &MarotoRenderer{}
}

func (r *MarotoRenderer) RenderInvoice(ctx context.Context, doc InvoiceDocument) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(8, doc.CompanyName, props.Text{Size: 16, Style: fontstyle.Bold}),
		text.NewCol(4, "INVOICE", props.Text{Size: 18, Style: fontstyle.Bold, Align: align.Right}),
	)
	m.AddRow(22,
		col.New(8).Add(
			text.New(doc.CompanyAddress, props.Text{Size: 9}),
			text.New(doc.CompanyEmail, props.Text{Size: 9, Top: 5}),
			text.New(doc.CompanyPhone, props.Text{Size: 9, Top: 10}),
			text.New(doc.CompanyWebsite, props.Text{Size: 9, Top: 15}),
		),
		col.New(4).Add(
			text.New(doc.InvoiceNumber, props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}),
			text.New(doc.Status, props.Text{Size: 9, Top: 5, Align: align.Right}),
		),
	)

	m.AddRow(30,
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold, Size: 10}),
			text.New(doc.BillToName, props.Text{Size: 9, Top: 5}),
			text.New(doc.BillToAddress, props.Text{Size: 9, Top: 10}),
			text.New(doc.BillToEmail, props.Text{Size: 9, Top: 15}),
			text.New(doc.BillToPhone, props.Text{Size: 9, Top: 20}),
		),
		col.New(6).Add(
			text.New("Date of issue: "+doc.IssueDate, props.Text{Size: 9, Align: align.Right}),
			text.New("Date due: "+doc.DueDate, props.Text{Size: 9, Top: 5, Align: align.Right}),
			text.New(doc.Category, props.Text{Size: 9, Top: 10, Align: align.Right}),
		),
	)

	m.AddRow(10,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, item := range doc.Items {
		m.AddRow(8,
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, item.Quantity, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	totalRow(m, "Subtotal", doc.Subtotal, false)
	if doc.TaxAmount != "" {
		totalRow(m, doc.TaxLabel, doc.TaxAmount, false)
	}
	if doc.Discount != "" {
		totalRow(m, "Discount", "-"+doc.Discount, false)
	}
	totalRow(m, "Total", doc.Total, true)
	if doc.AmountPaid != "" {
		totalRow(m, "Amount paid", doc.AmountPaid, false)
	}
	totalRow(m, "Amount due", doc.AmountDue, true)

	if doc.Notes != "" {
		m.AddRow(8, text.NewCol(12, "Notes", props.Text{Style: fontstyle.Bold, Size: 9, Top: 4}))
		m.AddRow(20, text.NewCol(12, doc.Notes, props.Text{Size: 9}))
	}

	out, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return out.GetBytes(), nil
}

func totalRow(m core.Maroto, label, value string, bold bool) {
	style := fontstyle.Normal
	if bold {
		style = fontstyle.Bold
	}
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, label, props.Text{Size: 9, Style: style}),
		text.NewCol(2, value, props.Text{Size: 9, Style: style, Align: align.Right}),
	)
}
