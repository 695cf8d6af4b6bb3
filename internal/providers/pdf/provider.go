package pdf

import (
	"context"
)

// InvoiceDocument is an invoice already rendered to display strings.
type InvoiceDocument struct {
	CompanyName    string
	CompanyAddress string
	CompanyEmail   string
	CompanyPhone   string
	CompanyWebsite string

	InvoiceNumber string
	Status        string
	IssueDate     string
	DueDate       string
	Category      string

	BillToName    string
	BillToAddress string
	BillToEmail   string
	BillToPhone   string

	Items []InvoiceLine

	Subtotal   string
	TaxLabel   string
	TaxAmount  string
	Discount   string
	Total      string
	AmountPaid string
	AmountDue  string
	Notes      string
}

type InvoiceLine struct {
	Description string
	Quantity    string
	UnitPrice   string
	Amount      string
}

type Renderer interface {
	RenderInvoice(ctx context.Context, doc InvoiceDocument) ([]byte, error)
}
