package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetInsights(c *gin.Context) {
	snapshot, err := s.insightsSvc.Snapshot(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

func (s *Server) RenderInsightsReport(c *gin.Context) {
	report, err := s.insightsSvc.Report(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="rollcall-insights.pdf"`)
	c.Data(http.StatusOK, "application/pdf", report)
}
