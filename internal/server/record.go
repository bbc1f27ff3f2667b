package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	recorddomain "github.com/rollcallhq/rollcall/internal/record/domain"
)

func (s *Server) GetRecord(c *gin.Context) {
	id := strings.TrimSpace(c.Query("record_id"))

	resp, err := s.recordSvc.Get(c.Request.Context(), id)
	if err != nil {
		// The UI treats a miss as data, not as a transport failure.
		if errors.Is(err, recorddomain.ErrNotFound) || errors.Is(err, recorddomain.ErrInvalidID) {
			c.JSON(http.StatusOK, gin.H{"error": "Not found"})
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
