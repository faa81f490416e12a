package database

import (
	"context"
	"errors"
	"fmt"
	"statboard/internal/config"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a lookup by id or name matches no document
var ErrNotFound = errors.New("document not found")

type Database interface {
	Health() error
	Disconnect(context.Context) error
	NoteDatabase
	TokenDatabase
}

type mongoDB struct {
	client *mongo.Client
	db     *mongo.Database

	notesCol  *mongo.Collection
	tokensCol *mongo.Collection
}

func New(config *config.Config) (Database, error) {
	clientOptions := options.Client().ApplyURI(config.MongoDB.URI)
	if config.MongoDB.Username != "" {
		clientOptions.SetAuth(options.Credential{
			Username: config.MongoDB.Username,
			Password: config.MongoDB.Password,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("error connecting to mongodb: %w", err)
	}

	db := client.Database(config.MongoDB.DB)

	tokensCol := db.Collection("tokens")
	// Create unique indexes on the tokens collection
	tokenIndexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token_hash", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	notesCol := db.Collection("notes")
	noteIndexModels := []mongo.IndexModel{
		{
			// A user's notes, newest first
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index(),
		},
	}

	if _, err = tokensCol.Indexes().CreateMany(ctx, tokenIndexModels); err != nil {
		log.Warn().Err(err).Str("Collection", "Tokens").Msg("Error creating indexes")
	}

	if _, err = notesCol.Indexes().CreateMany(ctx, noteIndexModels); err != nil {
		log.Warn().Err(err).Str("Collection", "Notes").Msg("Error creating indexes")
	}

	log.Info().Str("db", config.MongoDB.DB).Msg("Connected to MongoDB")

	return &mongoDB{
		client:    client,
		db:        db,
		notesCol:  notesCol,
		tokensCol: tokensCol,
	}, nil
}

// Health implements Database interface
func (m *mongoDB) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	err := m.client.Ping(ctx, nil)

	if err != nil {
		log.Error().Err(err).Msg("Database health error")
		return err
	}

	return nil
}

func (m *mongoDB) Disconnect(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
