package controller

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"statboard/internal/database"
	"statboard/internal/model"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrInvalidRole    = errors.New("role must be ADMIN or USER")
	ErrInvalidTokenID = errors.New("invalid token id")
	ErrTokenNotFound  = errors.New("token not found")
)

// TokenController issues and checks the bearer tokens users sign in with.
// A token's name is the display name of the user holding it.
type TokenController interface {
	// GenerateToken returns the raw token (shown once) and its stored record
	GenerateToken(ctx context.Context, name, role string, expiresAt *time.Time) (string, *model.APIToken, error)

	VerifyToken(context.Context, string) (*model.APIToken, error)
	ListTokens(context.Context) ([]model.APIToken, error)
	RevokeToken(context.Context, string) error
	GetTokenByID(context.Context, string) (*model.APIToken, error)

	// GenerateInitialAdminToken creates the first admin token in the system
	GenerateInitialAdminToken(context.Context, string) (string, error)
}

type tokenController struct {
	db database.TokenDatabase
}

func NewToken(db database.TokenDatabase) TokenController {
	return &tokenController{
		db: db,
	}
}

func (s *tokenController) GenerateToken(ctx context.Context, name, role string, expiresAt *time.Time) (string, *model.APIToken, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, fmt.Errorf("token name cannot be empty")
	}
	if role != model.RoleAdmin && role != model.RoleUser {
		return "", nil, ErrInvalidRole
	}

	// 32 random bytes, 64 hex characters
	rawToken := make([]byte, 32)
	if _, err := rand.Read(rawToken); err != nil {
		return "", nil, fmt.Errorf("failed to generate random token: %w", err)
	}
	tokenString := hex.EncodeToString(rawToken)

	now := time.Now()
	token := &model.APIToken{
		ID:        primitive.NewObjectID(),
		TokenHash: hashToken(tokenString),
		Name:      name,
		Role:      role,
		CreatedAt: now,
		LastUsed:  now,
	}
	if expiresAt != nil {
		token.ExpiresAt = *expiresAt
	}

	if err := s.db.CreateToken(ctx, token); err != nil {
		return "", nil, err
	}

	log.Info().
		Str("tokenID", token.ID.Hex()).
		Str("name", token.Name).
		Str("role", token.Role).
		Msg("Token created")

	return tokenString, token, nil
}

func (s *tokenController) VerifyToken(ctx context.Context, tokenString string) (*model.APIToken, error) {
	return s.db.VerifyToken(ctx, hashToken(tokenString))
}

func (s *tokenController) ListTokens(ctx context.Context) ([]model.APIToken, error) {
	return s.db.ListTokens(ctx)
}

func (s *tokenController) RevokeToken(ctx context.Context, tokenID string) error {
	id, err := primitive.ObjectIDFromHex(tokenID)
	if err != nil {
		return ErrInvalidTokenID
	}

	if err := s.db.RevokeToken(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrTokenNotFound
		}
		return err
	}
	return nil
}

func (s *tokenController) GetTokenByID(ctx context.Context, tokenID string) (*model.APIToken, error) {
	id, err := primitive.ObjectIDFromHex(tokenID)
	if err != nil {
		return nil, ErrInvalidTokenID
	}

	token, err := s.db.GetTokenByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrTokenNotFound
	}
	return token, err
}

// GenerateInitialAdminToken should only be used during system initialization
func (s *tokenController) GenerateInitialAdminToken(ctx context.Context, appName string) (string, error) {
	expiresAt := time.Now().AddDate(1, 0, 0)

	tokenString, token, err := s.GenerateToken(ctx, fmt.Sprintf("%s - Admin Token", appName), model.RoleAdmin, &expiresAt)
	if err != nil {
		return "", fmt.Errorf("failed to generate initial admin token: %w", err)
	}

	log.Info().
		Str("tokenID", token.ID.Hex()).
		Time("expiresAt", token.ExpiresAt).
		Msg("Initial admin token created")

	return tokenString, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
