package local

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akira-Osanai/pomodoro-timer/internal/config"
)

func TestCompleteChatCompletions(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"作業開始なのだ。"}}]}`)
	}))
	defer srv.Close()

	b := New(config.LocalConfig{Endpoint: srv.URL + "/v1/chat/completions", Model: "qwen2.5"})
	got, err := b.Complete(t.Context(), "sys", "usr")
	require.NoError(t, err)

	assert.Equal(t, "作業開始なのだ。", got)
	assert.Equal(t, "qwen2.5", body["model"])
	assert.Equal(t, false, body["stream"])
	assert.Len(t, body["messages"], 2)
}

func TestCompleteOllamaGenerate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = io.WriteString(w, `{"model":"llama3","response":"休憩なのだ。","done":true}`)
	}))
	defer srv.Close()

	b := New(config.LocalConfig{Endpoint: srv.URL + "/api/generate"})
	got, err := b.Complete(t.Context(), "sys", "usr")
	require.NoError(t, err)

	assert.Equal(t, "休憩なのだ。", got)
	assert.Equal(t, "llama3", body["model"])
	assert.Equal(t, "sys", body["system"])
	assert.Equal(t, "usr", body["prompt"])
}

func TestCompleteErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, "model not loaded"},
		{"empty content", http.StatusOK, `{"choices":[{"message":{"content":""}}]}`},
		{"not json", http.StatusOK, "<html>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			b := New(config.LocalConfig{Endpoint: srv.URL})
			_, err := b.Complete(t.Context(), "sys", "usr")
			assert.Error(t, err)
		})
	}
}

func TestExtractContentOllamaChat(t *testing.T) {
	got := extractContent([]byte(`{"message":{"role":"assistant","content":"がんばるのだ"},"done":true}`))
	assert.Equal(t, "がんばるのだ", got)
}
