// Package upstream classifies failures returned by the third-party game APIs
// so callers can tell a missing player from a rate limit from an outage.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Kind is the outcome class of an upstream call
type Kind int

const (
	KindOK Kind = iota
	KindNotFound
	KindRateLimited
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "fatal"
	}
}

// ErrNotFound is returned when the requested player or match does not exist
var ErrNotFound = errors.New("upstream: not found")

// DefaultRetryAfter is used when a 429 carries no usable Retry-After header
const DefaultRetryAfter = 10 * time.Second

// RateLimitedError reports a 429 and how long the API asked us to wait
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("upstream: rate limited, retry after %s", e.RetryAfter)
}

// APIError is any other non-2xx response
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error: status %d - %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error: status code %d", e.StatusCode)
}

// Classify turns a non-2xx response into one of the typed errors above.
// It returns nil for 2xx responses.
func Classify(resp *http.Response, body []byte) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitedError{RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After"))}
	default:
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}
}

// ParseRetryAfter reads a Retry-After header given either in seconds or as an
// HTTP date. Missing or unparseable values fall back to DefaultRetryAfter.
func ParseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return DefaultRetryAfter
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
		return 0
	}
	return DefaultRetryAfter
}

// KindOf reports which class an error returned by a client belongs to
func KindOf(err error) Kind {
	if err == nil {
		return KindOK
	}
	if errors.Is(err, ErrNotFound) {
		return KindNotFound
	}
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return KindRateLimited
	}
	return KindFatal
}

// RetryAfterOf returns the wait carried by a rate-limit error, or zero
func RetryAfterOf(err error) time.Duration {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl.RetryAfter
	}
	return 0
}

// Wait sleeps for d or until ctx is done
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// errorMessage pulls a human readable message out of the common error bodies
// used by the Riot ({"status":{"message"}}) and PUBG ({"errors":[{"title","detail"}]}) APIs.
func errorMessage(body []byte) string {
	var errResp struct {
		Status struct {
			Message string `json:"message"`
		} `json:"status"`
		Errors []struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		} `json:"errors"`
	}

	if err := json.Unmarshal(body, &errResp); err != nil {
		return ""
	}

	if len(errResp.Errors) > 0 {
		return strings.TrimSpace(errResp.Errors[0].Title + " " + errResp.Errors[0].Detail)
	}
	return errResp.Status.Message
}
