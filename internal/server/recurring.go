package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	recurringdomain "github.com/smallbiznis/invoicedesk/internal/recurring/domain"
)

type createRecurringRequest struct {
	ClientID           string                    `json:"client_id"`
	Currency           string                    `json:"currency"`
	TaxPercentage      *decimal.Decimal          `json:"tax_percentage"`
	DiscountPercentage decimal.Decimal           `json:"discount_percentage"`
	DiscountAmount     decimal.Decimal           `json:"discount_amount"`
	Notes              *string                   `json:"notes"`
	Category           string                    `json:"category"`
	DayOfMonth         int                       `json:"day_of_month"`
	AutoSendWhatsApp   bool                      `json:"auto_send_whatsapp"`
	Items              []invoicedomain.LineInput `json:"items"`
	DateOfIssue        string                    `json:"date_of_issue"`
	DateDue            string                    `json:"date_due"`
}

func (s *Server) CreateRecurring(c *gin.Context) {
	var req createRecurringRequest
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

	resp, err := s.recurringSvc.Create(c.Request.Context(), settings, recurringdomain.CreateRecurringRequest{
		ClientID:           strings.TrimSpace(req.ClientID),
		Currency:           strings.TrimSpace(req.Currency),
		TaxPercentage:      req.TaxPercentage,
		DiscountPercentage: req.DiscountPercentage,
		DiscountAmount:     req.DiscountAmount,
		Notes:              req.Notes,
		Category:           strings.TrimSpace(req.Category),
		DayOfMonth:         req.DayOfMonth,
		AutoSendWhatsApp:   req.AutoSendWhatsApp,
		Items:              req.Items,
		DateOfIssue:        issued,
		DateDue:            due,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListRecurring(c *gin.Context) {
	var query struct {
		ClientID   string `form:"client_id"`
		ActiveOnly bool   `form:"active_only"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	filter := recurringdomain.ListRecurringFilter{ActiveOnly: query.ActiveOnly}
	clientID, err := parseOptionalSnowflakeID(query.ClientID)
	if err != nil {
		AbortWithError(c, newValidationError("client_id", "invalid_client_id", "invalid client_id"))
		return
	}
	if clientID != nil {
		filter.ClientID = *clientID
	}

	resp, err := s.recurringSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetRecurringByID(c *gin.Context) {
	resp, err := s.recurringSvc.Get(c.Request.Context(), pathID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ActivateRecurring(c *gin.Context) {
	resp, err := s.recurringSvc.Activate(c.Request.Context(), pathID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PauseRecurring(c *gin.Context) {
	resp, err := s.recurringSvc.Pause(c.Request.Context(), pathID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteRecurring(c *gin.Context) {
	if err := s.recurringSvc.Delete(c.Request.Context(), pathID(c)); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
