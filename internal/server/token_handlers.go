package server

import (
	"errors"
	"net/http"
	"statboard/internal/controller"
	"statboard/internal/database"
	"statboard/internal/model"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// TokenRequest creates a token for a named user
type TokenRequest struct {
	Name      string `json:"name" binding:"required"`
	Role      string `json:"role"`
	ExpiresIn int    `json:"expiresInDays"`
}

type TokenResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	LastUsed  time.Time  `json:"lastUsed"`
	Revoked   bool       `json:"revoked"`
}

// TokenWithStringResponse includes the raw token, which is only ever shown once
type TokenWithStringResponse struct {
	Token string        `json:"token"`
	Info  TokenResponse `json:"info"`
}

func toTokenResponse(token *model.APIToken) TokenResponse {
	var expiresAt *time.Time
	if !token.ExpiresAt.IsZero() {
		expiresAt = &token.ExpiresAt
	}

	return TokenResponse{
		ID:        token.ID.Hex(),
		Name:      token.Name,
		Role:      token.Role,
		CreatedAt: token.CreatedAt,
		ExpiresAt: expiresAt,
		LastUsed:  token.LastUsed,
		Revoked:   token.Revoked,
	}
}

func (s *Server) meHandler(c *gin.Context) {
	c.JSON(http.StatusOK, toTokenResponse(currentUser(c)))
}

func (s *Server) CreateTokenHandler(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}

	var expiresAt *time.Time
	if req.ExpiresIn > 0 {
		t := time.Now().AddDate(0, 0, req.ExpiresIn)
		expiresAt = &t
	}

	tokenString, token, err := s.tc.GenerateToken(c.Request.Context(), req.Name, req.Role, expiresAt)
	if err != nil {
		respondTokenError(c, err)
		return
	}

	c.JSON(http.StatusCreated, TokenWithStringResponse{
		Token: tokenString,
		Info:  toTokenResponse(token),
	})
}

func (s *Server) ListTokensHandler(c *gin.Context) {
	tokens, err := s.tc.ListTokens(c.Request.Context())
	if err != nil {
		respondTokenError(c, err)
		return
	}

	response := make([]TokenResponse, 0, len(tokens))
	for i := range tokens {
		response = append(response, toTokenResponse(&tokens[i]))
	}

	c.JSON(http.StatusOK, response)
}

func (s *Server) GetTokenHandler(c *gin.Context) {
	token, err := s.tc.GetTokenByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondTokenError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTokenResponse(token))
}

func (s *Server) RevokeTokenHandler(c *gin.Context) {
	if err := s.tc.RevokeToken(c.Request.Context(), c.Param("id")); err != nil {
		respondTokenError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Token revoked successfully"})
}

func respondTokenError(c *gin.Context, err error) {
	c.Error(err)

	switch {
	case errors.Is(err, controller.ErrInvalidRole), errors.Is(err, controller.ErrInvalidTokenID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, controller.ErrTokenNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Token not found"})
	case errors.Is(err, database.ErrDuplicateToken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Msg("Token request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
