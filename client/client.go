// Package client is a small Go consumer of the public API. It mirrors what a
// frontend does around recommendations: after a favorites mutation it kicks
// off a background refresh of /ai/recommend so the next history read is warm.
//
// The refresh is fire-and-forget with bounded retries. The server itself
// never retries generation; this wrapper is the only retry loop in the
// system, and it only retries transient failures.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// defaultAttempts is the total number of tries (first call + 3 retries).
	defaultAttempts = 4
	// defaultAttemptTimeout bounds each individual attempt.
	defaultAttemptTimeout = 15 * time.Second
	// defaultBaseDelay seeds the doubling backoff: 1s, 2s, 4s between tries.
	defaultBaseDelay = time.Second
)

// Client talks to the game backend API on behalf of one authenticated user.
type Client struct {
	// BaseURL is the API root, e.g. "http://localhost:8080/api".
	BaseURL string
	// Token is the bearer token attached to every request.
	Token string
	// HTTPClient is the underlying transport; http.DefaultClient when nil.
	HTTPClient *http.Client

	// Attempts is the total number of tries for background refreshes
	// (defaultAttempts when <= 0).
	Attempts int
	// AttemptTimeout bounds each try (defaultAttemptTimeout when <= 0).
	AttemptTimeout time.Duration
	// BaseDelay seeds the doubling backoff between tries
	// (defaultBaseDelay when <= 0). Tests shrink it.
	BaseDelay time.Duration

	// Logger receives refresh outcomes; the global logger when nil.
	Logger *zerolog.Logger
}

// New constructs a Client with default retry settings.
func New(baseURL, token string) *Client {
	return &Client{
		BaseURL:        strings.TrimRight(baseURL, "/"),
		Token:          token,
		Attempts:       defaultAttempts,
		AttemptTimeout: defaultAttemptTimeout,
		BaseDelay:      defaultBaseDelay,
	}
}

// transientError marks a failure worth retrying: 5xx answers, timeouts, and
// transport-level errors. 4xx answers and malformed responses are permanent.
type transientError struct {
	msg string
}

func (e *transientError) Error() string { return e.msg }

// RefreshRecommendations performs one synchronous call to /ai/recommend,
// discarding the body. The server persists the generated result, so a
// successful call means the next history read is served from cache.
func (c *Client) RefreshRecommendations(ctx context.Context) error {
	timeout := c.AttemptTimeout
	if timeout <= 0 {
		timeout = defaultAttemptTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/ai/recommend", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Accept", "application/json")

	httpc := c.HTTPClient
	if httpc == nil {
		httpc = http.DefaultClient
	}

	resp, err := httpc.Do(req)
	if err != nil {
		// Timeouts and connection failures are worth another try.
		var nerr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
			return &transientError{msg: "request timed out: " + err.Error()}
		}
		return &transientError{msg: "request failed: " + err.Error()}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return &transientError{msg: fmt.Sprintf("server error: %s", resp.Status)}
	case resp.StatusCode >= http.StatusBadRequest:
		return fmt.Errorf("recommendation refresh rejected: %s", resp.Status)
	}
	return nil
}

// AddFavorite marks a game as a favorite and, on success, kicks off a
// background refresh so the recommendation cache reflects the new favorite.
func (c *Client) AddFavorite(ctx context.Context, gameID uint) error {
	if err := c.mutateFavorite(ctx, http.MethodPost, gameID); err != nil {
		return err
	}
	c.RefreshInBackground(context.WithoutCancel(ctx))
	return nil
}

// RemoveFavorite removes a favorite and refreshes the cache the same way.
func (c *Client) RemoveFavorite(ctx context.Context, gameID uint) error {
	if err := c.mutateFavorite(ctx, http.MethodDelete, gameID); err != nil {
		return err
	}
	c.RefreshInBackground(context.WithoutCancel(ctx))
	return nil
}

func (c *Client) mutateFavorite(ctx context.Context, method string, gameID uint) error {
	timeout := c.AttemptTimeout
	if timeout <= 0 {
		timeout = defaultAttemptTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := fmt.Sprintf("%s/favorites/%d", c.BaseURL, gameID)
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Accept", "application/json")

	httpc := c.HTTPClient
	if httpc == nil {
		httpc = http.DefaultClient
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("favorite %s rejected: %s", method, resp.Status)
	}
	return nil
}

// RefreshInBackground starts a detached goroutine that refreshes the
// recommendation cache with bounded retries. It returns immediately; the
// caller's flow (typically a favorites mutation) never blocks or fails on
// the refresh. Outcomes are only logged.
//
// Schedule: up to Attempts tries, BaseDelay*2^n between them (1s, 2s, 4s
// with defaults). Permanent failures stop the loop early.
//
// ctx only gates the goroutine's lifetime; cancel it to stop retrying.
func (c *Client) RefreshInBackground(ctx context.Context) {
	attempts := c.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	baseDelay := c.BaseDelay
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}
	lg := c.Logger
	if lg == nil {
		lg = &log.Logger
	}

	go func() {
		delay := baseDelay
		for attempt := 1; attempt <= attempts; attempt++ {
			err := c.RefreshRecommendations(ctx)
			if err == nil {
				lg.Debug().Int("attempt", attempt).Msg("recommendation cache refreshed")
				return
			}

			var te *transientError
			if !errors.As(err, &te) {
				lg.Warn().Err(err).Int("attempt", attempt).
					Msg("recommendation refresh failed permanently")
				return
			}
			if attempt == attempts {
				break
			}

			lg.Debug().Err(err).Int("attempt", attempt).Dur("retry_in", delay).
				Msg("recommendation refresh failed, retrying")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
			delay *= 2
		}
		lg.Warn().Int("attempts", attempts).
			Msg("recommendation refresh gave up after transient failures")
	}()
}
