package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"statboard/internal/model"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeGenerator struct {
	url     string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.url, f.err
}

type fakeFiles struct {
	prefix, ext, contentType string
	body                     []byte
}

func (f *fakeFiles) UploadFile(_ context.Context, prefix, ext, contentType string, body io.Reader) (string, error) {
	f.prefix, f.ext, f.contentType = prefix, ext, contentType
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.body = data
	return "https://bucket.s3.us-east-1.amazonaws.com/" + prefix + "/x" + ext, nil
}

func (f *fakeFiles) TestConnection(context.Context) error { return nil }

type fakeAcker struct {
	mu      sync.Mutex
	acks    int
	nacks   int
	requeue bool
}

func (f *fakeAcker) Ack(uint64, bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acks++
	return nil
}

func (f *fakeAcker) Nack(_ uint64, _ bool, requeue bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nacks++
	f.requeue = requeue
	return nil
}

func (f *fakeAcker) Reject(uint64, bool) error { return nil }

func seedNote(t *testing.T, db *fakeNoteDB) *model.Note {
	t.Helper()
	note := &model.Note{Data: "a red fox", ImageStatus: model.ImagePending}
	if err := db.CreateNote(context.Background(), note); err != nil {
		t.Fatalf("seed error = %v", err)
	}
	return note
}

func TestProcessMirrorsImageToStorage(t *testing.T) {
	pngBytes := []byte("\x89PNG fake image")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngBytes)
	}))
	defer server.Close()

	db := newFakeNoteDB()
	note := seedNote(t, db)
	gen := &fakeGenerator{url: server.URL + "/generated.png"}
	files := &fakeFiles{}

	ic := NewImages(db, gen, files)
	if err := ic.Process(context.Background(), model.ImageJob{NoteID: note.ID.Hex(), Prompt: note.Data}); err != nil {
		t.Fatalf("Process error = %v", err)
	}

	if len(gen.prompts) != 1 || gen.prompts[0] != "a red fox" {
		t.Fatalf("prompts = %v", gen.prompts)
	}
	if files.prefix != "notes" || files.ext != ".png" || files.contentType != "image/png" {
		t.Fatalf("upload args = %q %q %q", files.prefix, files.ext, files.contentType)
	}
	if string(files.body) != string(pngBytes) {
		t.Fatalf("uploaded body = %q", files.body)
	}

	stored, _ := db.GetNoteByID(context.Background(), note.ID)
	if stored.ImageStatus != model.ImageReady || stored.ImageURL != "https://bucket.s3.us-east-1.amazonaws.com/notes/x.png" {
		t.Fatalf("stored note = %+v", stored)
	}
}

func TestProcessWithoutStorageKeepsGeneratorURL(t *testing.T) {
	db := newFakeNoteDB()
	note := seedNote(t, db)

	ic := NewImages(db, &fakeGenerator{url: "https://images.example/1.png"}, nil)
	if err := ic.Process(context.Background(), model.ImageJob{NoteID: note.ID.Hex(), Prompt: "fox"}); err != nil {
		t.Fatalf("Process error = %v", err)
	}

	stored, _ := db.GetNoteByID(context.Background(), note.ID)
	if stored.ImageURL != "https://images.example/1.png" || stored.ImageStatus != model.ImageReady {
		t.Fatalf("stored note = %+v", stored)
	}
}

func TestProcessGenerationFailureMarksNote(t *testing.T) {
	db := newFakeNoteDB()
	note := seedNote(t, db)
	boom := errors.New("content policy violation")

	ic := NewImages(db, &fakeGenerator{err: boom}, nil)
	if err := ic.Process(context.Background(), model.ImageJob{NoteID: note.ID.Hex(), Prompt: "fox"}); !errors.Is(err, boom) {
		t.Fatalf("Process error = %v, want %v", err, boom)
	}

	stored, _ := db.GetNoteByID(context.Background(), note.ID)
	if stored.ImageStatus != model.ImageFailed || stored.ImageError == "" {
		t.Fatalf("stored note = %+v", stored)
	}
}

func TestConsumeAcksAndDropsMalformed(t *testing.T) {
	db := newFakeNoteDB()
	note := seedNote(t, db)
	ic := NewImages(db, &fakeGenerator{url: "https://images.example/1.png"}, nil)

	good, _ := json.Marshal(model.ImageJob{NoteID: note.ID.Hex(), Prompt: "fox"})
	acker := &fakeAcker{}
	deliveries := make(chan amqp.Delivery, 3)
	deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 1, Body: good}
	deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 2, Body: []byte("{not json")}
	deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 3, Body: []byte(`{"note_id":"nope","prompt":"x"}`)}
	close(deliveries)

	done := make(chan struct{})
	go func() {
		ic.Consume(context.Background(), deliveries)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Consume did not return after the channel closed")
	}

	if acker.acks != 1 || acker.nacks != 2 || acker.requeue {
		t.Fatalf("acks=%d nacks=%d requeue=%v, want 1, 2, false", acker.acks, acker.nacks, acker.requeue)
	}

	stored, _ := db.GetNoteByID(context.Background(), note.ID)
	if stored.ImageStatus != model.ImageReady {
		t.Fatalf("ImageStatus = %q, want ready", stored.ImageStatus)
	}
}

func TestConsumeStopsOnCancel(t *testing.T) {
	ic := NewImages(newFakeNoteDB(), &fakeGenerator{}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		ic.Consume(ctx, make(chan amqp.Delivery))
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Consume did not stop after cancel")
	}
}

func TestRunResubscribesAfterClose(t *testing.T) {
	db := newFakeNoteDB()
	note := seedNote(t, db)
	ic := NewImages(db, &fakeGenerator{url: "https://images.example/2.png"}, nil)
	ic.(*imageController).retryDelay = time.Millisecond

	good, _ := json.Marshal(model.ImageJob{NoteID: note.ID.Hex(), Prompt: "owl"})
	acker := &fakeAcker{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	subscribe := func() (<-chan amqp.Delivery, error) {
		calls++
		switch calls {
		case 1:
			return nil, errors.New("channel not open")
		case 2:
			deliveries := make(chan amqp.Delivery, 1)
			deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 1, Body: good}
			close(deliveries)
			return deliveries, nil
		default:
			cancel()
			return make(chan amqp.Delivery), nil
		}
	}

	done := make(chan struct{})
	go func() {
		ic.Run(ctx, subscribe)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not stop after cancel")
	}

	if calls != 3 {
		t.Fatalf("subscribe called %d times, want 3", calls)
	}
	if acker.acks != 1 {
		t.Fatalf("acks = %d, want 1", acker.acks)
	}
}

// unwritableNoteDB stores notes but cannot record image outcomes
type unwritableNoteDB struct {
	*fakeNoteDB
	err error
}

func (u *unwritableNoteDB) UpdateNoteImage(context.Context, primitive.ObjectID, model.ImageStatus, string, string) error {
	return u.err
}

func TestConsumeRequeuesWhenOutcomeNotStored(t *testing.T) {
	db := &unwritableNoteDB{fakeNoteDB: newFakeNoteDB(), err: errors.New("server selection timeout")}
	note := seedNote(t, db.fakeNoteDB)
	ic := NewImages(db, &fakeGenerator{url: "https://images.example/3.png"}, nil)
	ic.(*imageController).retryDelay = time.Millisecond

	body, _ := json.Marshal(model.ImageJob{NoteID: note.ID.Hex(), Prompt: "heron"})
	acker := &fakeAcker{}
	deliveries := make(chan amqp.Delivery, 1)
	deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 1, Body: body}
	close(deliveries)

	ic.Consume(context.Background(), deliveries)

	if acker.acks != 0 || acker.nacks != 1 || !acker.requeue {
		t.Fatalf("acks=%d nacks=%d requeue=%v, want 0, 1, true", acker.acks, acker.nacks, acker.requeue)
	}

	stored, _ := db.GetNoteByID(context.Background(), note.ID)
	if stored.ImageStatus != model.ImagePending {
		t.Fatalf("ImageStatus = %q, want pending until stored", stored.ImageStatus)
	}
}

func TestProcessReportsUnstoredFailure(t *testing.T) {
	dbErr := errors.New("server selection timeout")
	db := &unwritableNoteDB{fakeNoteDB: newFakeNoteDB(), err: dbErr}
	note := seedNote(t, db.fakeNoteDB)

	ic := NewImages(db, &fakeGenerator{err: errors.New("content policy violation")}, nil)
	err := ic.Process(context.Background(), model.ImageJob{NoteID: note.ID.Hex(), Prompt: "heron"})
	if !errors.Is(err, ErrNoteUpdate) || !errors.Is(err, dbErr) {
		t.Fatalf("Process error = %v, want ErrNoteUpdate wrapping %v", err, dbErr)
	}
}

func TestConsumeAcksJobForDeletedNote(t *testing.T) {
	db := newFakeNoteDB()
	ic := NewImages(db, &fakeGenerator{url: "https://images.example/4.png"}, nil)

	body, _ := json.Marshal(model.ImageJob{NoteID: primitive.NewObjectID().Hex(), Prompt: "crane"})
	acker := &fakeAcker{}
	deliveries := make(chan amqp.Delivery, 1)
	deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 1, Body: body}
	close(deliveries)

	ic.Consume(context.Background(), deliveries)

	if acker.acks != 1 || acker.nacks != 0 {
		t.Fatalf("acks=%d nacks=%d, want 1, 0", acker.acks, acker.nacks)
	}
}
