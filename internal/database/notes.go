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

const defaultNotePageSize = 20

var newestFirst = bson.D{{Key: "created_at", Value: -1}}

type NoteDatabase interface {
	CreateNote(context.Context, *model.Note) error
	GetNoteByID(context.Context, primitive.ObjectID) (*model.Note, error)
	ListNotes(ctx context.Context, page, size int) ([]model.Note, int64, error)
	ListNotesByUser(context.Context, primitive.ObjectID) ([]model.Note, error)
	DeleteNote(context.Context, primitive.ObjectID) error
	UpdateNoteImage(ctx context.Context, id primitive.ObjectID, status model.ImageStatus, url, imageErr string) error
}

// CreateNote inserts the note and fills in its generated id
func (m *mongoDB) CreateNote(ctx context.Context, note *model.Note) error {
	now := time.Now().UTC()
	if note.CreatedAt.IsZero() {
		note.CreatedAt = now
	}
	note.UpdatedAt = now

	result, err := m.notesCol.InsertOne(ctx, note)
	if err != nil {
		log.Error().Err(err).Str("user", note.UserName).Msg("Failed to create note")
		return err
	}

	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		note.ID = id
	}
	return nil
}

func (m *mongoDB) GetNoteByID(ctx context.Context, id primitive.ObjectID) (*model.Note, error) {
	var note model.Note

	err := m.notesCol.FindOne(ctx, bson.M{"_id": id}).Decode(&note)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Str("note_id", id.Hex()).Msg("Error retrieving note")
		return nil, err
	}

	return &note, nil
}

// ListNotes returns one page of every user's notes, newest first, plus the total count
func (m *mongoDB) ListNotes(ctx context.Context, page, size int) ([]model.Note, int64, error) {
	total, err := m.notesCol.CountDocuments(ctx, bson.M{})
	if err != nil {
		log.Error().Err(err).Msg("Error counting notes")
		return nil, 0, err
	}

	cursor, err := m.notesCol.Find(ctx, bson.M{}, pageOptions(page, size))
	if err != nil {
		log.Error().Err(err).Msg("Error retrieving notes")
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	notes := []model.Note{}
	if err = cursor.All(ctx, &notes); err != nil {
		log.Error().Err(err).Msg("Error decoding notes")
		return nil, 0, err
	}

	return notes, total, nil
}

func (m *mongoDB) ListNotesByUser(ctx context.Context, userID primitive.ObjectID) ([]model.Note, error) {
	cursor, err := m.notesCol.Find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(newestFirst))
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.Hex()).Msg("Error retrieving user notes")
		return nil, err
	}
	defer cursor.Close(ctx)

	notes := []model.Note{}
	if err = cursor.All(ctx, &notes); err != nil {
		log.Error().Err(err).Msg("Error decoding notes")
		return nil, err
	}

	return notes, nil
}

func (m *mongoDB) DeleteNote(ctx context.Context, id primitive.ObjectID) error {
	result, err := m.notesCol.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		log.Error().Err(err).Str("note_id", id.Hex()).Msg("Error deleting note")
		return err
	}
	return requireAffected(result.DeletedCount)
}

// UpdateNoteImage records the outcome of image generation for a note
func (m *mongoDB) UpdateNoteImage(ctx context.Context, id primitive.ObjectID, status model.ImageStatus, url, imageErr string) error {
	set := bson.M{
		"image_status": status,
		"updated_at":   time.Now().UTC(),
	}
	if url != "" {
		set["img_src"] = url
	}
	if imageErr != "" {
		set["image_error"] = imageErr
	}

	result, err := m.notesCol.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		log.Error().Err(err).Str("note_id", id.Hex()).Msg("Error updating note image")
		return err
	}
	return requireAffected(result.MatchedCount)
}

// pageOptions selects one newest-first page; page is 1-based
func pageOptions(page, size int) *options.FindOptions {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultNotePageSize
	}
	return options.Find().
		SetSort(newestFirst).
		SetSkip(int64(page-1) * int64(size)).
		SetLimit(int64(size))
}

// requireAffected maps a write that touched no document to ErrNotFound
func requireAffected(n int64) error {
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
