// Package narrator generates the spoken line for each period transition.
//
// A Backend turns a system prompt and a user prompt into a single chat
// completion. The Generator builds both prompts and falls back to the raw
// prompt whenever the backend fails, so there is always something to say.
// Narrator ships with two backends: OpenAI (cloud) and Local (self-hosted
// via Ollama or any OpenAI-compatible server).
package narrator

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Akira-Osanai/pomodoro-timer/internal/clock"
	"github.com/Akira-Osanai/pomodoro-timer/internal/message"
	"github.com/Akira-Osanai/pomodoro-timer/internal/metrics"
)

// Backend is the interface for chat completion.
type Backend interface {
	// Name returns the backend identifier (e.g., "openai", "local").
	Name() string

	// Complete sends one system message and one user message and returns the
	// text of the single completion.
	Complete(ctx context.Context, system, user string) (string, error)

	// Close releases any resources held by the backend.
	Close() error
}

// Request describes the period being narrated.
type Request struct {
	Period    message.Period
	Session   int // 1-based counter of Period
	UserName  string
	UsageTime time.Duration // 0 when the timer runs until interrupted
}

// Narration is a line ready to be spoken.
type Narration struct {
	Text string

	// Fallback is true when Text is the raw prompt because generation failed.
	Fallback bool
}

// Generator produces narration lines.
type Generator struct {
	backend Backend
	clock   *clock.Clock
	metrics metrics.Recorder
	log     *slog.Logger
}

// NewGenerator creates a Generator. A nil rec discards metrics.
func NewGenerator(backend Backend, clk *clock.Clock, rec metrics.Recorder) *Generator {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Generator{
		backend: backend,
		clock:   clk,
		metrics: rec,
		log:     slog.With("component", "narrator"),
	}
}

// Generate returns the narration for req. It never fails: on any backend
// error the raw prompt is returned with Fallback set.
func (g *Generator) Generate(ctx context.Context, req Request) Narration {
	raw := RawPrompt(req, g.clock.Elapsed(), g.clock.RemainingMinutes(req.UsageTime))

	start := time.Now()
	text, err := g.backend.Complete(ctx, SystemPrompt(req.UserName), UserPrompt(raw))
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("empty completion")
	}
	latency := time.Since(start)

	if err != nil {
		level := slog.LevelError
		if errors.Is(err, context.Canceled) {
			level = slog.LevelDebug
		}
		g.log.Log(ctx, level, "narration generation failed",
			g.clock.Attr(),
			"category", g.backend.Name(),
			"period", req.Period,
			"error", err,
		)
		g.metrics.RecordNarration(g.backend.Name(), true, latency)
		return Narration{Text: raw, Fallback: true}
	}

	g.metrics.RecordNarration(g.backend.Name(), false, latency)
	g.log.Debug("narration complete", g.clock.Attr(), "backend", g.backend.Name(), "latency", latency)
	return Narration{Text: text}
}
