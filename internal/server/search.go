package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	searchdomain "github.com/rollcallhq/rollcall/internal/search/domain"
)

func (s *Server) Search(c *gin.Context) {
	var req searchdomain.Request
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.searchSvc.Search(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
