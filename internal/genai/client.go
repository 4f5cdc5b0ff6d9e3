// Package genai wraps the external text-generation backend behind a small
// interface so the recommendation service can be tested with doubles and the
// provider can be swapped through configuration.
//
// The concrete client speaks the OpenAI-compatible chat completion API via
// sashabaranov/go-openai; pointing BaseURL at any compatible provider
// (OpenRouter, DeepSeek, Ollama, ...) works without code changes.
package genai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/gamehub/go-game-backend/internal/config"
)

// ErrNotConfigured is returned by NewClient when no API key is present.
// Callers treat this as a fatal configuration error, never a retry case.
var ErrNotConfigured = errors.New("generation API key is not configured")

// TextGenerator produces free-form text for a prompt. Implementations must
// honor ctx for cancellation; the per-call timeout is owned by the caller.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client is the OpenAI-compatible TextGenerator used in production.
type Client struct {
	api         *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewClient builds a Client from configuration. It fails with
// ErrNotConfigured when the API key is empty so the caller can surface a
// ServiceUnavailable condition instead of issuing doomed requests.
func NewClient(cfg config.AIConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}

	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	// Transport-level timeouts only; the request deadline comes from ctx.
	cc.HTTPClient = &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 0, // ctx deadline governs
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
		},
	}

	return &Client{
		api:         openai.NewClientWithConfig(cc),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: float32(cfg.Temperature),
	}, nil
}

// Generate performs one blocking chat-completion call and returns the raw
// text of the first choice. It never retries; transient-failure handling is
// the API client's concern, not the server's.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from generation backend")
	}
	return resp.Choices[0].Message.Content, nil
}

// UpstreamStatus extracts the HTTP status of a failed generation call when
// the provider reported one, else 0. Handlers use it to surface the
// upstream's status instead of a blanket 500.
func UpstreamStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
