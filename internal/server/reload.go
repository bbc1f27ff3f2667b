package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) Reload(c *gin.Context) {
	summary, err := s.ingestSvc.Reload(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
