package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) SendInvoiceEmail(c *gin.Context) {
	settings, ok := s.loadSettings(c)
	if !ok {
		return
	}

	resp, err := s.deliverySvc.SendEmail(c.Request.Context(), settings, pathID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SendInvoiceWhatsApp(c *gin.Context) {
	settings, ok := s.loadSettings(c)
	if !ok {
		return
	}

	resp, err := s.deliverySvc.SendWhatsApp(c.Request.Context(), settings, pathID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListDeliveries(c *gin.Context) {
	resp, err := s.deliverySvc.ListLogs(c.Request.Context(), pathID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
