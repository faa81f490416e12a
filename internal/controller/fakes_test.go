package controller

import (
	"context"
	"sort"
	"statboard/internal/database"
	"statboard/internal/model"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeNoteDB struct {
	mu    sync.Mutex
	notes map[primitive.ObjectID]*model.Note
}

func newFakeNoteDB() *fakeNoteDB {
	return &fakeNoteDB{notes: map[primitive.ObjectID]*model.Note{}}
}

func (f *fakeNoteDB) CreateNote(_ context.Context, note *model.Note) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	note.ID = primitive.NewObjectID()
	copied := *note
	f.notes[note.ID] = &copied
	return nil
}

func (f *fakeNoteDB) GetNoteByID(_ context.Context, id primitive.ObjectID) (*model.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	note, ok := f.notes[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	copied := *note
	return &copied, nil
}

func (f *fakeNoteDB) ListNotes(_ context.Context, page, size int) ([]model.Note, int64, error) {
	all, _ := f.sorted(nil)
	start := (page - 1) * size
	if start > len(all) {
		start = len(all)
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (f *fakeNoteDB) ListNotesByUser(_ context.Context, userID primitive.ObjectID) ([]model.Note, error) {
	return f.sorted(&userID)
}

func (f *fakeNoteDB) sorted(userID *primitive.ObjectID) ([]model.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	notes := []model.Note{}
	for _, n := range f.notes {
		if userID == nil || n.UserID == *userID {
			notes = append(notes, *n)
		}
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].CreatedAt.After(notes[j].CreatedAt) })
	return notes, nil
}

func (f *fakeNoteDB) DeleteNote(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.notes[id]; !ok {
		return database.ErrNotFound
	}
	delete(f.notes, id)
	return nil
}

func (f *fakeNoteDB) UpdateNoteImage(_ context.Context, id primitive.ObjectID, status model.ImageStatus, url, imageErr string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	note, ok := f.notes[id]
	if !ok {
		return database.ErrNotFound
	}
	note.ImageStatus = status
	if url != "" {
		note.ImageURL = url
	}
	note.ImageError = imageErr
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	messages [][]byte
	keys     []string
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, routingKey string, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, routingKey)
	f.messages = append(f.messages, body)
	return nil
}

type fakeTokenDB struct {
	mu     sync.Mutex
	tokens map[primitive.ObjectID]*model.APIToken
}

func newFakeTokenDB() *fakeTokenDB {
	return &fakeTokenDB{tokens: map[primitive.ObjectID]*model.APIToken{}}
}

func (f *fakeTokenDB) CreateToken(_ context.Context, token *model.APIToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.Name == token.Name || t.TokenHash == token.TokenHash {
			return database.ErrDuplicateToken
		}
	}
	copied := *token
	f.tokens[token.ID] = &copied
	return nil
}

func (f *fakeTokenDB) VerifyToken(_ context.Context, hash string) (*model.APIToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.TokenHash == hash && !t.Revoked {
			copied := *t
			return &copied, nil
		}
	}
	return nil, database.ErrInvalidToken
}

func (f *fakeTokenDB) ListTokens(context.Context) ([]model.APIToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tokens := []model.APIToken{}
	for _, t := range f.tokens {
		tokens = append(tokens, *t)
	}
	return tokens, nil
}

func (f *fakeTokenDB) RevokeToken(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[id]
	if !ok {
		return database.ErrNotFound
	}
	t.Revoked = true
	return nil
}

func (f *fakeTokenDB) GetTokenByID(_ context.Context, id primitive.ObjectID) (*model.APIToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTokenDB) GetTokenByName(_ context.Context, name string) (*model.APIToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.Name == name {
			copied := *t
			return &copied, nil
		}
	}
	return nil, database.ErrNotFound
}

func testUser(name string) *model.APIToken {
	return &model.APIToken{ID: primitive.NewObjectID(), Name: name, Role: model.RoleUser}
}
