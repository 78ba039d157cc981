// Package local implements the narrator Backend using a self-hosted model.
//
// It supports any OpenAI-compatible chat endpoint (e.g., Ollama's
// /v1/chat/completions, vLLM, llama.cpp server) as well as Ollama's native
// /api/generate endpoint.
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Akira-Osanai/pomodoro-timer/internal/config"
)

// Backend uses a self-hosted model for narration.
type Backend struct {
	endpoint string
	model    string
	client   *http.Client
}

// New creates a new local backend from config.
func New(cfg config.LocalConfig) *Backend {
	model := cfg.Model
	if model == "" {
		model = "llama3"
	}
	return &Backend{
		endpoint: cfg.Endpoint,
		model:    model,
		client:   &http.Client{Timeout: 120 * time.Second},
	}
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return "local" }

// Complete sends the prompts to the local endpoint.
func (b *Backend) Complete(ctx context.Context, system, user string) (string, error) {
	// OpenAI-compatible chat completions format works with Ollama, vLLM, llama.cpp.
	reqBody := map[string]any{
		"model": b.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"n":      1,
		"stream": false,
	}

	// Ollama's native endpoint takes the system prompt as a separate field.
	if strings.HasSuffix(b.endpoint, "/api/generate") {
		reqBody = map[string]any{
			"model":  b.model,
			"system": system,
			"prompt": user,
			"stream": false,
		}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshalling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("local LLM request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("local LLM failed (status %d): %s", resp.StatusCode, respBody)
	}

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading LLM response: %w", err)
	}

	content := extractContent(respData)
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("empty response from local LLM")
	}

	slog.Debug("local completion", "model", b.model, "length", len(content))
	return content, nil
}

// Close is a no-op for the local backend.
func (b *Backend) Close() error { return nil }

func extractContent(data []byte) string {
	// OpenAI-compatible format: {"choices": [{"message": {"content": "..."}}]}
	var chatResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &chatResp); err == nil && len(chatResp.Choices) > 0 {
		return chatResp.Choices[0].Message.Content
	}

	// Ollama generate format: {"response": "..."}
	var ollamaResp struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(data, &ollamaResp); err == nil && ollamaResp.Response != "" {
		return ollamaResp.Response
	}

	// Ollama chat format: {"message": {"content": "..."}}
	var ollamaChat struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(data, &ollamaChat); err == nil {
		return ollamaChat.Message.Content
	}

	return ""
}
