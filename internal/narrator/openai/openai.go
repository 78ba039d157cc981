// Package openai implements the narrator Backend using the OpenAI Chat
// Completions API through the official SDK.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/Akira-Osanai/pomodoro-timer/internal/config"
)

// ErrNoAPIKey is returned by Complete when no credential is configured.
var ErrNoAPIKey = errors.New(config.APIKeyEnv + " is not set")

// Backend uses the OpenAI API for narration.
type Backend struct {
	apiKey string
	model  string
	client *openai.Client
}

// New creates a new OpenAI backend from config.
func New(cfg config.OpenAIConfig) *Backend {
	reqOpts := []option.RequestOption{
		option.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
		option.WithMaxRetries(0),
	}
	if cfg.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}
	client := openai.NewClient(reqOpts...)

	return &Backend{
		apiKey: cfg.APIKey,
		model:  cfg.Model,
		client: &client,
	}
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return "openai" }

// Complete requests exactly one chat completion.
func (b *Backend) Complete(ctx context.Context, system, user string) (string, error) {
	if b.apiKey == "" {
		return "", ErrNoAPIKey
	}

	params := openai.ChatCompletionNewParams{
		Model: b.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		N: openai.Int(1),
	}

	resp, err := b.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("OpenAI API request failed (status=%d): %s",
				apiErr.StatusCode, strings.TrimSpace(apiErr.Message))
		}
		return "", fmt.Errorf("OpenAI API request failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI API returned no choices")
	}

	content := resp.Choices[0].Message.Content
	slog.Debug("openai completion", "model", b.model, "finish_reason", resp.Choices[0].FinishReason,
		"total_tokens", resp.Usage.TotalTokens)
	return content, nil
}

// Close is a no-op for the OpenAI backend.
func (b *Backend) Close() error { return nil }
