package pubg

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"statboard/pkg/upstream"
)

// Client represents a PUBG API client
type Client struct {
	httpClient    *http.Client
	apiKey        string
	baseURL       string
	maxRetries    int
	maxWait       time.Duration
	requestTicker *time.Ticker
	requestChan   chan struct{}
	done          chan struct{}
}

const (
	SteamPlatform = "steam"
)

// Option configures a Client
type Option func(*Client)

// WithRetries sets how many 429s are retried and the longest Retry-After we
// will wait for
func WithRetries(maxRetries int, maxWait time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.maxWait = maxWait
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a new PUBG API client with rate limiting
func New(apiKey, baseURL string, requestsPerMinute int, opts ...Option) *Client {
	if requestsPerMinute < 2 {
		requestsPerMinute = 2
	}

	// Calculate interval between requests
	interval := time.Minute / time.Duration(requestsPerMinute-1)

	log.Info().
		Int("requests_per_minute", requestsPerMinute).
		Dur("request_interval", interval).
		Str("base_url", baseURL).
		Msg("Initializing PUBG API client")

	// Create a ticker that ticks once per allowed request
	ticker := time.NewTicker(interval)

	// Buffer of 1 allows one immediate request
	requestChan := make(chan struct{}, 1)
	requestChan <- struct{}{}

	client := &Client{
		httpClient:    &http.Client{Timeout: time.Second * 30},
		apiKey:        apiKey,
		baseURL:       baseURL,
		maxRetries:    3,
		maxWait:       time.Minute,
		requestTicker: ticker,
		requestChan:   requestChan,
		done:          make(chan struct{}),
	}

	for _, opt := range opts {
		opt(client)
	}

	// Add tokens at the specified rate
	go func() {
		for {
			select {
			case <-client.done:
				return
			case <-ticker.C:
				select {
				case requestChan <- struct{}{}:
					log.Trace().Msg("Added token to request channel")
				default:
					log.Trace().Msg("Request channel buffer full, skipping token")
				}
			}
		}
	}()

	log.Info().Msg("PUBG API client initialized successfully")
	return client
}

// acquire waits for a rate limit token
func (c *Client) acquire(ctx context.Context, requestID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	waitStart := time.Now()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.requestChan:
	}

	log.Debug().
		Str("request_id", requestID).
		Dur("wait_duration", time.Since(waitStart)).
		Msg("Acquired rate limit token")
	return nil
}

// request makes a rate-limited GET against the API and retries 429s after
// the delay the API asked for
func (c *Client) request(ctx context.Context, endpoint string) ([]byte, error) {
	requestID := fmt.Sprintf("req_%d", time.Now().UnixNano())

	for attempt := 0; ; attempt++ {
		if err := c.acquire(ctx, requestID); err != nil {
			return nil, err
		}

		body, err := c.do(ctx, requestID, endpoint)
		if upstream.KindOf(err) != upstream.KindRateLimited {
			return body, err
		}

		wait := upstream.RetryAfterOf(err)
		if attempt >= c.maxRetries || wait > c.maxWait {
			log.Warn().
				Str("request_id", requestID).
				Str("endpoint", endpoint).
				Int("attempt", attempt).
				Dur("retry_after", wait).
				Msg("Giving up on rate-limited PUBG request")
			return nil, err
		}

		log.Warn().
			Str("request_id", requestID).
			Str("endpoint", endpoint).
			Int("attempt", attempt).
			Dur("retry_after", wait).
			Msg("PUBG API rate limited, waiting before retry")

		if err := upstream.Wait(ctx, wait); err != nil {
			return nil, err
		}
	}
}

// do executes a single request
func (c *Client) do(ctx context.Context, requestID, endpoint string) ([]byte, error) {
	startTime := time.Now()
	url := fmt.Sprintf("%s%s", c.baseURL, endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Error().
			Str("request_id", requestID).
			Err(err).
			Str("url", url).
			Msg("Error creating request")
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/vnd.api+json")

	execStart := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().
			Str("request_id", requestID).
			Err(err).
			Str("url", url).
			Dur("exec_duration", time.Since(execStart)).
			Dur("total_duration", time.Since(startTime)).
			Msg("Error executing request")
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	readStart := time.Now()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error().
			Str("request_id", requestID).
			Err(err).
			Str("url", url).
			Int("status_code", resp.StatusCode).
			Dur("total_duration", time.Since(startTime)).
			Msg("Error reading response body")
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if apiErr := upstream.Classify(resp, respBody); apiErr != nil {
		log.Error().
			Str("request_id", requestID).
			Err(apiErr).
			Str("url", url).
			Int("status_code", resp.StatusCode).
			Int("response_size", len(respBody)).
			Dur("exec_duration", readStart.Sub(execStart)).
			Dur("total_duration", time.Since(startTime)).
			Msg("API returned error response")
		return nil, apiErr
	}

	log.Debug().
		Str("request_id", requestID).
		Str("url", url).
		Int("status_code", resp.StatusCode).
		Int("response_size", len(respBody)).
		Dur("exec_duration", readStart.Sub(execStart)).
		Dur("read_duration", time.Since(readStart)).
		Dur("total_duration", time.Since(startTime)).
		Msg("API request completed successfully")

	return respBody, nil
}

// Close stops the ticker when the client is no longer needed
func (c *Client) Close() {
	if c.requestTicker != nil {
		log.Info().Msg("Shutting down PUBG API client")
		c.requestTicker.Stop()
		close(c.done)
		c.requestTicker = nil
	}
}
