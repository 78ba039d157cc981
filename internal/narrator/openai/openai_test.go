package openai

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akira-Osanai/pomodoro-timer/internal/config"
)

const completionBody = `{
	"id":"chatcmpl-123",
	"object":"chat.completion",
	"created":1,
	"model":"gpt-4o-mini",
	"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"休憩するのだ！"}}],
	"usage":{"prompt_tokens":10,"completion_tokens":2,"total_tokens":12}
}`

func TestCompleteRequestShape(t *testing.T) {
	var body map[string]any
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer server.Close()

	b := New(config.OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: server.URL})
	got, err := b.Complete(t.Context(), "system prompt", "user prompt")
	require.NoError(t, err)

	assert.Equal(t, "休憩するのだ！", got)
	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.EqualValues(t, 1, body["n"])

	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, map[string]any{"role": "system", "content": "system prompt"}, messages[0])
	assert.Equal(t, map[string]any{"role": "user", "content": "user prompt"}, messages[1])
}

func TestCompleteAPIErrorNoRetry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests"}}`))
	}))
	defer server.Close()

	b := New(config.OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: server.URL})
	_, err := b.Complete(t.Context(), "s", "u")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=429")
	assert.Equal(t, 1, calls)
}

func TestCompleteNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[]}`))
	}))
	defer server.Close()

	b := New(config.OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: server.URL})
	_, err := b.Complete(t.Context(), "s", "u")
	assert.Error(t, err)
}

func TestCompleteWithoutAPIKey(t *testing.T) {
	b := New(config.OpenAIConfig{Model: "gpt-4o-mini", BaseURL: "http://127.0.0.1:1"})
	_, err := b.Complete(t.Context(), "s", "u")
	assert.True(t, errors.Is(err, ErrNoAPIKey))
}
