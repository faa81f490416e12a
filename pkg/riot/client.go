package riot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"statboard/pkg/upstream"
)

const (
	defaultPlatformURL = "https://na1.api.riotgames.com"
	defaultRegionalURL = "https://americas.api.riotgames.com"
	defaultMaxRetries  = 3
	defaultMaxWait     = 30 * time.Second
)

// Client is a Riot API client that retries rate-limited requests after the
// delay the API asks for
type Client struct {
	httpClient  *http.Client
	apiKey      string
	platformURL string
	regionalURL string
	maxRetries  int
	maxWait     time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithPlatformURL sets the platform routing host (summoner-v4)
func WithPlatformURL(url string) Option {
	return func(c *Client) {
		c.platformURL = url
	}
}

// WithRegionalURL sets the regional routing host (account-v1, match-v5)
func WithRegionalURL(url string) Option {
	return func(c *Client) {
		c.regionalURL = url
	}
}

// WithRetries sets how many times a 429 is retried and the longest wait we
// are willing to sit through before giving up and reporting it
func WithRetries(maxRetries int, maxWait time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.maxWait = maxWait
	}
}

// WithTimeout sets the per-request HTTP timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a Riot API client
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		apiKey:      apiKey,
		platformURL: defaultPlatformURL,
		regionalURL: defaultRegionalURL,
		maxRetries:  defaultMaxRetries,
		maxWait:     defaultMaxWait,
	}

	for _, opt := range opts {
		opt(c)
	}

	log.Info().
		Str("platform_url", c.platformURL).
		Str("regional_url", c.regionalURL).
		Int("max_retries", c.maxRetries).
		Dur("max_retry_wait", c.maxWait).
		Msg("Riot API client initialized")

	return c
}

// getJSON performs a GET, retrying 429s, and decodes the body into result
func (c *Client) getJSON(ctx context.Context, url string, result interface{}) error {
	requestID := uuid.NewString()

	for attempt := 0; ; attempt++ {
		body, err := c.request(ctx, requestID, url)
		if err == nil {
			if err := json.Unmarshal(body, result); err != nil {
				log.Error().
					Str("request_id", requestID).
					Str("url", url).
					Err(err).
					Msg("Error unmarshaling Riot response")
				return fmt.Errorf("error unmarshaling response: %w", err)
			}
			return nil
		}

		if upstream.KindOf(err) != upstream.KindRateLimited {
			return err
		}

		wait := upstream.RetryAfterOf(err)
		if attempt >= c.maxRetries || wait > c.maxWait {
			log.Warn().
				Str("request_id", requestID).
				Str("url", url).
				Int("attempt", attempt).
				Dur("retry_after", wait).
				Msg("Giving up on rate-limited Riot request")
			return err
		}

		log.Warn().
			Str("request_id", requestID).
			Str("url", url).
			Int("attempt", attempt).
			Dur("retry_after", wait).
			Msg("Riot API rate limited, waiting before retry")

		if err := upstream.Wait(ctx, wait); err != nil {
			return err
		}
	}
}

// request executes a single GET and classifies the response
func (c *Client) request(ctx context.Context, requestID, url string) ([]byte, error) {
	startTime := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("X-Riot-Token", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().
			Str("request_id", requestID).
			Str("url", url).
			Err(err).
			Dur("total_duration", time.Since(startTime)).
			Msg("Error executing Riot request")
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if apiErr := upstream.Classify(resp, body); apiErr != nil {
		log.Warn().
			Str("request_id", requestID).
			Str("url", url).
			Int("status_code", resp.StatusCode).
			Str("kind", upstream.KindOf(apiErr).String()).
			Dur("total_duration", time.Since(startTime)).
			Msg("Riot API returned error response")
		return nil, apiErr
	}

	log.Debug().
		Str("request_id", requestID).
		Str("url", url).
		Int("status_code", resp.StatusCode).
		Int("response_size", len(body)).
		Dur("total_duration", time.Since(startTime)).
		Msg("Riot API request completed successfully")

	return body, nil
}
