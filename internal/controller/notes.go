package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"statboard/internal/database"
	"statboard/internal/model"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxNotePageSize = 100

var (
	ErrNoteTooShort  = errors.New("note is too short")
	ErrNoteNotFound  = errors.New("note not found")
	ErrNotOwner      = errors.New("note belongs to another user")
	ErrInvalidNoteID = errors.New("invalid note id")
)

// JobPublisher sends an encoded job to the broker; rabbitmq.Client satisfies it
type JobPublisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

type NotesController interface {
	CreateNote(ctx context.Context, user *model.APIToken, text string) (*model.Note, error)
	UserNotes(ctx context.Context, user *model.APIToken) ([]model.Note, error)
	ListNotes(ctx context.Context, opts model.PaginationOptions) ([]model.Note, int64, error)
	GetNote(ctx context.Context, id string) (*model.Note, error)
	DeleteNote(ctx context.Context, user *model.APIToken, id string) error
}

type notesController struct {
	db         database.NoteDatabase
	publisher  JobPublisher
	routingKey string
}

func NewNotes(db database.NoteDatabase, publisher JobPublisher, routingKey string) NotesController {
	return &notesController{
		db:         db,
		publisher:  publisher,
		routingKey: routingKey,
	}
}

// CreateNote stores the note with a pending image and queues generation of
// the image from the note text
func (nc *notesController) CreateNote(ctx context.Context, user *model.APIToken, text string) (*model.Note, error) {
	text = strings.TrimSpace(text)
	if len(text) < 1 {
		return nil, ErrNoteTooShort
	}

	note := &model.Note{
		Data:        text,
		ImageStatus: model.ImagePending,
		UserID:      user.ID,
		UserName:    user.Name,
		CreatedAt:   time.Now().UTC(),
	}
	if err := nc.db.CreateNote(ctx, note); err != nil {
		return nil, fmt.Errorf("error creating note: %w", err)
	}

	body, err := json.Marshal(model.ImageJob{NoteID: note.ID.Hex(), Prompt: text})
	if err == nil {
		err = nc.publisher.Publish(ctx, nc.routingKey, body)
	}
	if err != nil {
		// The note itself is saved; only its image is lost
		log.Error().Err(err).Str("note_id", note.ID.Hex()).Msg("Failed to queue image job")
		note.ImageStatus = model.ImageFailed
		note.ImageError = "image generation could not be queued"
		if uerr := nc.db.UpdateNoteImage(ctx, note.ID, model.ImageFailed, "", note.ImageError); uerr != nil {
			log.Error().Err(uerr).Str("note_id", note.ID.Hex()).Msg("Failed to mark note image failed")
		}
		return note, nil
	}

	log.Info().
		Str("note_id", note.ID.Hex()).
		Str("user", user.Name).
		Msg("Note created, image queued")

	return note, nil
}

func (nc *notesController) UserNotes(ctx context.Context, user *model.APIToken) ([]model.Note, error) {
	return nc.db.ListNotesByUser(ctx, user.ID)
}

func (nc *notesController) ListNotes(ctx context.Context, opts model.PaginationOptions) ([]model.Note, int64, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Size < 1 {
		opts.Size = 20
	}
	if opts.Size > maxNotePageSize {
		opts.Size = maxNotePageSize
	}
	return nc.db.ListNotes(ctx, opts.Page, opts.Size)
}

func (nc *notesController) GetNote(ctx context.Context, id string) (*model.Note, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidNoteID
	}

	note, err := nc.db.GetNoteByID(ctx, oid)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNoteNotFound
	}
	return note, err
}

// DeleteNote removes a note owned by user
func (nc *notesController) DeleteNote(ctx context.Context, user *model.APIToken, id string) error {
	note, err := nc.GetNote(ctx, id)
	if err != nil {
		return err
	}
	if note.UserID != user.ID {
		log.Warn().
			Str("note_id", id).
			Str("user", user.Name).
			Msg("Refusing to delete another user's note")
		return ErrNotOwner
	}

	if err := nc.db.DeleteNote(ctx, note.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrNoteNotFound
		}
		return err
	}

	log.Info().Str("note_id", id).Str("user", user.Name).Msg("Note deleted")
	return nil
}
