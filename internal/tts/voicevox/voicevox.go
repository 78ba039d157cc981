// Package voicevox implements the TTS Synthesizer against a VOICEVOX engine.
//
// VOICEVOX exposes a plain HTTP API, by default on port 50021:
//
//	POST /audio_query?speaker=<id>&text=<text>   -> query JSON
//	POST /synthesis?speaker=<id>   (query JSON)  -> audio/wav
package voicevox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Akira-Osanai/pomodoro-timer/internal/config"
	"github.com/Akira-Osanai/pomodoro-timer/internal/tts"
)

// Synthesizer implements tts.Synthesizer using the VOICEVOX HTTP API.
type Synthesizer struct {
	endpoint string
	speaker  int
	client   *http.Client
}

// New creates a new VOICEVOX synthesizer from config.
func New(cfg config.TTSConfig) *Synthesizer {
	return &Synthesizer{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		speaker:  cfg.Speaker,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

// AudioQuery asks the engine to build a synthesis query for text.
func (s *Synthesizer) AudioQuery(ctx context.Context, text string) (json.RawMessage, error) {
	if text == "" {
		return nil, &tts.Error{Stage: tts.StageQuery, Err: errors.New("empty text")}
	}

	q := make(url.Values)
	q.Set("speaker", strconv.Itoa(s.speaker))
	q.Set("text", text)
	reqURL := s.endpoint + "/audio_query?" + q.Encode()

	slog.Debug("voicevox audio_query", "text_length", len(text), "speaker", s.speaker)

	body, err := s.post(ctx, tts.StageQuery, reqURL, nil)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, &tts.Error{Stage: tts.StageQuery, Err: errors.New("response is not valid JSON")}
	}
	return json.RawMessage(body), nil
}

// Synthesize renders a query into WAV audio.
func (s *Synthesizer) Synthesize(ctx context.Context, query json.RawMessage) ([]byte, error) {
	q := make(url.Values)
	q.Set("speaker", strconv.Itoa(s.speaker))
	reqURL := s.endpoint + "/synthesis?" + q.Encode()

	audio, err := s.post(ctx, tts.StageSynthesis, reqURL, query)
	if err != nil {
		return nil, err
	}
	slog.Debug("voicevox synthesis complete", "audio_bytes", len(audio))
	return audio, nil
}

// Close is a no-op; connections are pooled by the HTTP client.
func (s *Synthesizer) Close() error { return nil }

func (s *Synthesizer) post(ctx context.Context, stage tts.Stage, reqURL string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, &tts.Error{Stage: stage, Err: fmt.Errorf("creating request: %w", err)}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &tts.Error{Stage: stage, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &tts.Error{Stage: stage, StatusCode: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(respBody)))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &tts.Error{Stage: stage, Err: fmt.Errorf("reading response: %w", err)}
	}
	return data, nil
}
