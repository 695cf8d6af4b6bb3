package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/invoicedesk/internal/payment/domain"
	"github.com/smallbiznis/invoicedesk/pkg/db/pagination"
)

type createInvoiceRequest struct {
	ClientID           string                    `json:"client_id"`
	DateOfIssue        string                    `json:"date_of_issue"`
	DateDue            string                    `json:"date_due"`
	Status             string                    `json:"status"`
	Items              []invoicedomain.LineInput `json:"items"`
	TaxPercentage      *decimal.Decimal          `json:"tax_percentage"`
	DiscountPercentage decimal.Decimal           `json:"discount_percentage"`
	DiscountAmount     decimal.Decimal           `json:"discount_amount"`
	Currency           string                    `json:"currency"`
	Notes              *string                   `json:"notes"`
	Category           string                    `json:"category"`
}

type updateInvoiceRequest struct {
	ClientID           string                    `json:"client_id"`
	DateOfIssue        string                    `json:"date_of_issue"`
	DateDue            string                    `json:"date_due"`
	Items              []invoicedomain.LineInput `json:"items"`
	TaxPercentage      decimal.Decimal           `json:"tax_percentage"`
	DiscountPercentage decimal.Decimal           `json:"discount_percentage"`
	DiscountAmount     decimal.Decimal           `json:"discount_amount"`
	Currency           string                    `json:"currency"`
	Notes              string                    `json:"notes"`
	Category           string                    `json:"category"`
}

type invoiceDetailResponse struct {
	invoicedomain.InvoiceDetail
	Payments []paymentdomain.Payment `json:"payments"`
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	issued, err := parseDateField("date_of_issue", req.DateOfIssue)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	due, err := parseDateField("date_due", req.DateDue)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	settings, ok := s.loadSettings(c)
	if !ok {
		return
	}

	resp, err := s.invoiceSvc.Create(c.Request.Context(), settings, invoicedomain.CreateInvoiceRequest{
		ClientID:           strings.TrimSpace(req.ClientID),
		DateOfIssue:        issued,
		DateDue:            due,
		Status:             invoicedomain.InvoiceStatus(strings.ToLower(strings.TrimSpace(req.Status))),
		Items:              req.Items,
		TaxPercentage:      req.TaxPercentage,
		DiscountPercentage: req.DiscountPercentage,
		DiscountAmount:     req.DiscountAmount,
		Currency:           strings.TrimSpace(req.Currency),
		Notes:              req.Notes,
		Category:           strings.TrimSpace(req.Category),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	var req updateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	issued, err := parseDateField("date_of_issue", req.DateOfIssue)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	due, err := parseDateField("date_due", req.DateDue)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if issued == nil || due == nil {
		AbortWithError(c, invoicedomain.ErrInvalidDates)
		return
	}

	resp, err := s.invoiceSvc.Update(c.Request.Context(), pathID(c), invoicedomain.UpdateInvoiceRequest{
		ClientID:           strings.TrimSpace(req.ClientID),
		DateOfIssue:        *issued,
		DateDue:            *due,
		Items:              req.Items,
		TaxPercentage:      req.TaxPercentage,
		DiscountPercentage: req.DiscountPercentage,
		DiscountAmount:     req.DiscountAmount,
		Currency:           strings.TrimSpace(req.Currency),
		Notes:              req.Notes,
		Category:           strings.TrimSpace(req.Category),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status      string `form:"status"`
		ClientID    string `form:"client_id"`
		Category    string `form:"category"`
		IssuedFrom  string `form:"issued_from"`
		IssuedTo    string `form:"issued_to"`
		RecurringID string `form:"recurring_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	issuedFrom, err := parseDateField("issued_from", query.IssuedFrom)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	issuedTo, err := parseDateField("issued_to", query.IssuedTo)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), invoicedomain.ListInvoiceRequest{
		Pagination:  query.Pagination,
		Status:      invoicedomain.InvoiceStatus(strings.ToLower(strings.TrimSpace(query.Status))),
		ClientID:    strings.TrimSpace(query.ClientID),
		Category:    strings.TrimSpace(query.Category),
		IssuedFrom:  issuedFrom,
		IssuedTo:    issuedTo,
		RecurringID: strings.TrimSpace(query.RecurringID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	ctx := c.Request.Context()
	id := pathID(c)

	detail, err := s.invoiceSvc.Get(ctx, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	payments, err := s.paymentSvc.List(ctx, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoiceDetailResponse{
		InvoiceDetail: detail,
		Payments:      payments,
	}})
}

// PreviewInvoiceNumber shows the number the next invoice for a client would
// most likely get. Nothing is reserved.
func (s *Server) PreviewInvoiceNumber(c *gin.Context) {
	var query struct {
		ClientID string `form:"client_id"`
		Date     string `form:"date"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	issued, err := parseDateField("date", query.Date)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	issuedAt := s.clock.Now()
	if issued != nil {
		issuedAt = *issued
	}

	settings, ok := s.loadSettings(c)
	if !ok {
		return
	}

	number, err := s.invoiceSvc.PreviewNumber(c.Request.Context(), settings, strings.TrimSpace(query.ClientID), issuedAt)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"invoice_number": number}})
}

func (s *Server) MarkInvoiceSent(c *gin.Context) {
	resp, err := s.invoiceSvc.MarkSent(c.Request.Context(), pathID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) MarkInvoicePaid(c *gin.Context) {
	resp, err := s.invoiceSvc.MarkPaid(c.Request.Context(), pathID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CancelInvoice(c *gin.Context) {
	resp, err := s.invoiceSvc.Cancel(c.Request.Context(), pathID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DownloadInvoicePDF(c *gin.Context) {
	settings, ok := s.loadSettings(c)
	if !ok {
		return
	}

	filename, content, err := s.deliverySvc.RenderPDF(c.Request.Context(), settings, pathID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", content)
}
