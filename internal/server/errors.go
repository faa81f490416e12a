package server

import (
	"context"
	"errors"
	"math"
	"net/http"
	"statboard/internal/controller"
	"statboard/internal/matchstats"
	"statboard/pkg/upstream"
	"strconv"

	"github.com/gin-gonic/gin"
)

// respondLookupError maps failures from the match and stats lookups onto
// HTTP statuses
func respondLookupError(c *gin.Context, err error) {
	c.Error(err)

	var renderErr *controller.RenderError
	switch {
	case errors.Is(err, matchstats.ErrEmptyMatch):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "The match has no participants to compare"})
	case errors.As(err, &renderErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render charts", "participants": renderErr.Names})
	case errors.Is(err, controller.ErrNoMatches):
		c.JSON(http.StatusNotFound, gin.H{"error": "No recent matches found for this player"})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "The game API did not answer in time"})
	default:
		switch upstream.KindOf(err) {
		case upstream.KindNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "Player not found"})
		case upstream.KindRateLimited:
			retryAfter := int(math.Ceil(upstream.RetryAfterOf(err).Seconds()))
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "The game API is rate limiting requests, try again later", "retryAfter": retryAfter})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "The game API request failed"})
		}
	}
}
