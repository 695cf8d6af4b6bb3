package service

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/smallbiznis/invoicedesk/internal/config"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/invoice/format"
	"github.com/smallbiznis/invoicedesk/internal/providers/pdf"
	settingsdomain "github.com/smallbiznis/invoicedesk/internal/settings/domain"
)

const longDate = "January 2, 2006"

var emailTemplate = template.Must(template.New("invoice_email").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">Invoice {{.Number}}</h2>
  <p>Dear {{.ClientName}},</p>
  <p>Please find attached invoice <strong>{{.Number}}</strong>.</p>
  <table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
    <tr>
      <td style="padding: 8px 0; color: #666;">Amount</td>
      <td style="padding: 8px 0; text-align: right; font-weight: bold;">{{.Total}} {{.Currency}}</td>
    </tr>
    <tr>
      <td style="padding: 8px 0; color: #666;">Due Date</td>
      <td style="padding: 8px 0; text-align: right;">{{.DueDate}}</td>
    </tr>
  </table>
  <p>If you have any questions, please don't hesitate to reach out.</p>
  <p style="margin-top: 30px;">Best regards,<br/><strong>{{.CompanyName}}</strong></p>
</div>`))

type emailView struct {
	Number      string
	ClientName  string
	Total       string
	Currency    string
	DueDate     string
	CompanyName string
}

func companyName(settings settingsdomain.Settings) string {
	if settings.CompanyName != "" {
		return settings.CompanyName
	}
	return settingsdomain.Defaults().CompanyName
}

func companyEmail(settings settingsdomain.Settings) string {
	if settings.CompanyEmail != "" {
		return settings.CompanyEmail
	}
	return settingsdomain.Defaults().CompanyEmail
}

func clientName(detail invoicedomain.InvoiceDetail) string {
	if detail.Client != nil && detail.Client.Name != "" {
		return detail.Client.Name
	}
	return "Client"
}

func emailSubject(detail invoicedomain.InvoiceDetail, catalog config.InvoicingConfig) string {
	return fmt.Sprintf("Invoice %s - %s %s",
		detail.InvoiceNumber,
		format.Currency(detail.Total, detail.Currency, catalog),
		detail.Currency,
	)
}

func emailBody(settings settingsdomain.Settings, detail invoicedomain.InvoiceDetail, catalog config.InvoicingConfig) (string, error) {
	var buf bytes.Buffer
	err := emailTemplate.Execute(&buf, emailView{
		Number:      detail.InvoiceNumber,
		ClientName:  clientName(detail),
		Total:       format.Currency(detail.Total, detail.Currency, catalog),
		Currency:    detail.Currency,
		DueDate:     time.Time(detail.DateDue).Format(longDate),
		CompanyName: companyName(settings),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func whatsAppCaption(settings settingsdomain.Settings, detail invoicedomain.InvoiceDetail, catalog config.InvoicingConfig) string {
	return fmt.Sprintf("Invoice %s\nAmount: %s\nDue: %s\n\nFrom %s",
		detail.InvoiceNumber,
		format.Currency(detail.Total, detail.Currency, catalog),
		time.Time(detail.DateDue).Format(longDate),
		companyName(settings),
	)
}

func pdfDocument(settings settingsdomain.Settings, detail invoicedomain.InvoiceDetail, catalog config.InvoicingConfig) pdf.InvoiceDocument {
	doc := pdf.InvoiceDocument{
		CompanyName:    companyName(settings),
		CompanyAddress: settings.CompanyAddress,
		CompanyEmail:   companyEmail(settings),
		CompanyPhone:   settings.CompanyPhone,
		CompanyWebsite: settings.CompanyWebsite,
		InvoiceNumber:  detail.InvoiceNumber,
		Status:         string(detail.EffectiveStatus),
		IssueDate:      time.Time(detail.DateOfIssue).Format(longDate),
		DueDate:        time.Time(detail.DateDue).Format(longDate),
		Category:       categoryLabel(detail.Category, catalog),
		BillToName:     clientName(detail),
		Subtotal:       format.Currency(detail.Subtotal, detail.Currency, catalog),
		Total:          format.Currency(detail.Total, detail.Currency, catalog),
		AmountDue:      format.Currency(detail.AmountDue, detail.Currency, catalog),
		Notes:          detail.Notes,
	}
	if detail.Client != nil {
		doc.BillToAddress = detail.Client.Address
		doc.BillToEmail = detail.Client.Email
		doc.BillToPhone = detail.Client.Phone
	}
	if detail.TaxAmount.IsPositive() {
		doc.TaxLabel = fmt.Sprintf("Tax (%s%%)", detail.TaxPercentage.String())
		doc.TaxAmount = format.Currency(detail.TaxAmount, detail.Currency, catalog)
	}
	if detail.DiscountAmount.IsPositive() {
		doc.Discount = format.Currency(detail.DiscountAmount, detail.Currency, catalog)
	}
	if detail.AmountPaid.IsPositive() {
		doc.AmountPaid = format.Currency(detail.AmountPaid, detail.Currency, catalog)
	}
	for _, item := range detail.Items {
		doc.Items = append(doc.Items, pdf.InvoiceLine{
			Description: item.Description,
			Quantity:    item.Quantity.StringFixed(2),
			UnitPrice:   format.Currency(item.UnitPrice, detail.Currency, catalog),
			Amount:      format.Currency(item.Amount, detail.Currency, catalog),
		})
	}
	return doc
}

func categoryLabel(key string, catalog config.InvoicingConfig) string {
	for _, c := range catalog.Categories {
		if c.Key == key {
			return c.Label
		}
	}
	return key
}
