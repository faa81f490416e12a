package database

import (
	"context"
	"errors"
	"statboard/internal/model"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrDuplicateToken = errors.New("a token with that name already exists")
	ErrInvalidToken   = errors.New("invalid or expired token")
)

type TokenDatabase interface {
	CreateToken(context.Context, *model.APIToken) error
	VerifyToken(context.Context, string) (*model.APIToken, error)
	ListTokens(context.Context) ([]model.APIToken, error)
	RevokeToken(context.Context, primitive.ObjectID) error
	GetTokenByID(context.Context, primitive.ObjectID) (*model.APIToken, error)
	GetTokenByName(context.Context, string) (*model.APIToken, error)
}

// CreateToken stores a new hashed token; names are unique per user
func (m *mongoDB) CreateToken(ctx context.Context, token *model.APIToken) error {
	result, err := m.tokensCol.InsertOne(ctx, token)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			log.Error().Str("name", token.Name).Msg("Duplicate token detected")
			return ErrDuplicateToken
		}

		log.Error().Err(err).Msg("Failed to create token")
		return err
	}

	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		token.ID = id
	}
	return nil
}

// VerifyToken looks up a live token by its hash and bumps its last-used time
func (m *mongoDB) VerifyToken(ctx context.Context, tokenHash string) (*model.APIToken, error) {
	filter := bson.M{
		"token_hash": tokenHash,
		"revoked":    false,
		"$or": []bson.M{
			{"expires_at": bson.M{"$exists": false}},
			{"expires_at": time.Time{}},
			{"expires_at": bson.M{"$gt": time.Now()}},
		},
	}

	var token model.APIToken
	err := m.tokensCol.FindOne(ctx, filter).Decode(&token)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidToken
		}
		log.Error().Err(err).Msg("Error verifying token")
		return nil, err
	}

	update := bson.M{"$set": bson.M{"last_used": time.Now()}}
	if _, err = m.tokensCol.UpdateOne(ctx, bson.M{"_id": token.ID}, update); err != nil {
		// Non-critical, the token is still valid
		log.Warn().Err(err).Msg("Error updating token last used time")
	}

	return &token, nil
}

func (m *mongoDB) ListTokens(ctx context.Context) ([]model.APIToken, error) {
	tokens := []model.APIToken{}

	findOptions := options.Find()
	findOptions.SetSort(bson.M{"created_at": -1})

	cursor, err := m.tokensCol.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		log.Error().Err(err).Msg("Error retrieving tokens")
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &tokens); err != nil {
		log.Error().Err(err).Msg("Error decoding tokens")
		return nil, err
	}

	return tokens, nil
}

func (m *mongoDB) RevokeToken(ctx context.Context, tokenID primitive.ObjectID) error {
	filter := bson.M{"_id": tokenID}
	update := bson.M{"$set": bson.M{"revoked": true}}

	result, err := m.tokensCol.UpdateOne(ctx, filter, update)
	if err != nil {
		log.Error().Err(err).Msg("Error revoking token")
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (m *mongoDB) GetTokenByID(ctx context.Context, tokenID primitive.ObjectID) (*model.APIToken, error) {
	return m.findToken(ctx, bson.M{"_id": tokenID})
}

func (m *mongoDB) GetTokenByName(ctx context.Context, name string) (*model.APIToken, error) {
	return m.findToken(ctx, bson.M{"name": name})
}

func (m *mongoDB) findToken(ctx context.Context, filter bson.M) (*model.APIToken, error) {
	var token model.APIToken

	err := m.tokensCol.FindOne(ctx, filter).Decode(&token)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}

		log.Error().Err(err).Msg("Error retrieving token")
		return nil, err
	}

	return &token, nil
}
