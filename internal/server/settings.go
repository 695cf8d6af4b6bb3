package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicedesk/internal/invoice/format"
	settingsdomain "github.com/smallbiznis/invoicedesk/internal/settings/domain"
)

func (s *Server) GetSettings(c *gin.Context) {
	settings, ok := s.loadSettings(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": settings})
}

func (s *Server) UpdateSettings(c *gin.Context) {
	var req settingsdomain.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.settingsSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

var sampleAmount = decimal.RequireFromString("1234.5")

type catalogueCurrency struct {
	Value   string `json:"value"`
	Label   string `json:"label"`
	Symbol  string `json:"symbol"`
	Example string `json:"example"`
}

// GetCatalogue lists the categories, currencies and payment methods offered
// by invoice forms, as currently loaded from the invoicing config.
func (s *Server) GetCatalogue(c *gin.Context) {
	cfg := s.catalog.Get()

	currencies := make([]catalogueCurrency, 0, len(cfg.Currencies))
	for _, cur := range cfg.Currencies {
		currencies = append(currencies, catalogueCurrency{
			Value:   cur.Code,
			Label:   cur.Label,
			Symbol:  cur.Symbol,
			Example: format.Currency(sampleAmount, cur.Code, cfg),
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"categories":      cfg.Categories,
		"currencies":      currencies,
		"payment_methods": cfg.PaymentMethods,
		"number_template": cfg.NumberTemplate,
	}})
}
