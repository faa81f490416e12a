package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"statboard/internal/aws"
	"statboard/internal/config"
	"statboard/internal/database"
	"statboard/internal/model"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const noteImagePrefix = "notes"

var (
	// ErrMalformedJob marks queue messages that can never be processed
	ErrMalformedJob = errors.New("malformed image job")

	// ErrNoteUpdate means the job's outcome could not be stored on the note,
	// so the job must be delivered again
	ErrNoteUpdate = errors.New("image outcome not stored")
)

// ImageGenerator turns a prompt into a temporary image URL
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type openAIGenerator struct {
	client *openai.Client
	size   string
}

func NewOpenAIGenerator(cfg config.OpenAIConfig) ImageGenerator {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.OrgID = cfg.Organization
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	size := cfg.ImageSize
	if size == "" {
		size = openai.CreateImageSize512x512
	}

	return &openAIGenerator{
		client: openai.NewClientWithConfig(clientConfig),
		size:   size,
	}
}

func (g *openAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          openai.CreateImageModelDallE2,
		N:              1,
		Size:           g.size,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return "", fmt.Errorf("error generating image: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", fmt.Errorf("image generation returned no image")
	}
	return resp.Data[0].URL, nil
}

type ImageController interface {
	// Process generates, stores and attaches the image for one job
	Process(ctx context.Context, job model.ImageJob) error

	// Consume handles deliveries until ctx is done or the channel closes
	Consume(ctx context.Context, deliveries <-chan amqp.Delivery)

	// Run keeps a subscription alive until ctx is done, subscribing again
	// whenever the delivery channel closes
	Run(ctx context.Context, subscribe Subscriber)
}

// Subscriber opens a fresh delivery channel, e.g. rabbitmq.Client.Consume
type Subscriber func() (<-chan amqp.Delivery, error)

type imageController struct {
	db         database.NoteDatabase
	generator  ImageGenerator
	files      aws.FileService
	httpClient *http.Client
	retryDelay time.Duration
}

// NewImages builds the image job processor. files may be nil, in which case
// the generator's own URL is stored on the note.
func NewImages(db database.NoteDatabase, generator ImageGenerator, files aws.FileService) ImageController {
	return &imageController{
		db:         db,
		generator:  generator,
		files:      files,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retryDelay: 5 * time.Second,
	}
}

func (ic *imageController) Process(ctx context.Context, job model.ImageJob) error {
	noteID, err := primitive.ObjectIDFromHex(job.NoteID)
	if err != nil || job.Prompt == "" {
		return ErrMalformedJob
	}

	startTime := time.Now()

	url, err := ic.generator.Generate(ctx, job.Prompt)
	if err == nil && ic.files != nil {
		url, err = ic.mirror(ctx, url)
	}

	if err != nil {
		log.Error().Err(err).Str("note_id", job.NoteID).Msg("Image generation failed")
		if uerr := ic.record(ctx, noteID, model.ImageFailed, "", err.Error()); uerr != nil {
			return uerr
		}
		return err
	}

	if err := ic.record(ctx, noteID, model.ImageReady, url, ""); err != nil {
		return err
	}

	log.Info().
		Str("note_id", job.NoteID).
		Str("url", url).
		Dur("duration", time.Since(startTime)).
		Msg("Note image ready")

	return nil
}

// record stores the job outcome on the note. A note deleted while its image
// was generating needs nothing stored; any other failure wraps ErrNoteUpdate.
func (ic *imageController) record(ctx context.Context, noteID primitive.ObjectID, status model.ImageStatus, url, imageErr string) error {
	err := ic.db.UpdateNoteImage(ctx, noteID, status, url, imageErr)
	if errors.Is(err, database.ErrNotFound) {
		log.Warn().Str("note_id", noteID.Hex()).Msg("Note deleted before its image was stored")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: note %s: %w", ErrNoteUpdate, noteID.Hex(), err)
	}
	return nil
}

// mirror copies a generated image into our bucket, since generator URLs expire
func (ic *imageController) mirror(ctx context.Context, source string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return "", fmt.Errorf("error creating image download request: %w", err)
	}

	resp, err := ic.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error downloading generated image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("image download returned status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}

	return ic.files.UploadFile(ctx, noteImagePrefix, ".png", contentType, resp.Body)
}

func (ic *imageController) Consume(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Image consumer stopping")
			return
		case d, ok := <-deliveries:
			if !ok {
				log.Warn().Msg("Image job channel closed")
				return
			}
			ic.handle(ctx, d)
		}
	}
}

func (ic *imageController) Run(ctx context.Context, subscribe Subscriber) {
	for ctx.Err() == nil {
		deliveries, err := subscribe()
		if err != nil {
			log.Error().Err(err).Dur("retry_in", ic.retryDelay).Msg("Failed to subscribe to image jobs")
		} else {
			ic.Consume(ctx, deliveries)
		}

		select {
		case <-ctx.Done():
		case <-time.After(ic.retryDelay):
		}
	}
}

func (ic *imageController) handle(ctx context.Context, d amqp.Delivery) {
	var job model.ImageJob
	err := json.Unmarshal(d.Body, &job)
	if err == nil {
		err = ic.Process(ctx, job)
	} else {
		err = fmt.Errorf("%w: %v", ErrMalformedJob, err)
	}

	switch {
	case errors.Is(err, ErrMalformedJob):
		log.Error().Err(err).Uint64("delivery_tag", d.DeliveryTag).Msg("Dropping image job")
		if nerr := d.Nack(false, false); nerr != nil {
			log.Error().Err(nerr).Msg("Failed to nack image job")
		}
	case errors.Is(err, ErrNoteUpdate):
		log.Error().Err(err).Uint64("delivery_tag", d.DeliveryTag).Dur("requeue_in", ic.retryDelay).Msg("Requeueing image job")
		select {
		case <-ctx.Done():
		case <-time.After(ic.retryDelay):
		}
		if nerr := d.Nack(false, true); nerr != nil {
			log.Error().Err(nerr).Msg("Failed to requeue image job")
		}
	default:
		// The outcome is stored on the note, so the job is done either way
		if aerr := d.Ack(false); aerr != nil {
			log.Error().Err(aerr).Msg("Failed to ack image job")
		}
	}
}
