package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type matchRequest struct {
	Summoner string `json:"summoner" form:"summoner"`
}

// matchHandler serves both GET /matches/:summoner and POST /matches
func (s *Server) matchHandler(c *gin.Context) {
	summoner := c.Param("summoner")
	if summoner == "" {
		var req matchRequest
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		summoner = req.Summoner
	}

	summoner = strings.TrimSpace(summoner)
	if summoner == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "summoner is required"})
		return
	}

	view, err := s.mc.LatestMatch(c.Request.Context(), summoner)
	if err != nil {
		respondLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (s *Server) pubgStatsHandler(c *gin.Context) {
	player := strings.TrimSpace(c.Param("player"))
	if player == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "player is required"})
		return
	}

	view, err := s.pc.PlayerStats(c.Request.Context(), player, c.Query("mode"))
	if err != nil {
		respondLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}
