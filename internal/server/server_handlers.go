package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) healthHandler(c *gin.Context) {
	results := s.sc.Health(c.Request.Context())

	healthy := true
	res := gin.H{}
	for name, err := range results {
		res[name] = err == nil
		if err != nil {
			healthy = false
		}
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, res)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (s *Server) onlineHandler(c *gin.Context) {
	c.String(http.StatusOK, s.sc.Online())
}
