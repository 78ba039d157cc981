// Package tts defines the interface for text-to-speech synthesis.
//
// Synthesis is a two-step exchange: the engine first turns text into an
// audio query (accent phrases, pitch, speed), then renders that query into
// WAV audio. The query is opaque to callers and is passed back unchanged.
package tts

import (
	"context"
	"encoding/json"
	"fmt"
)

// Synthesizer converts text to audio.
type Synthesizer interface {
	// AudioQuery asks the engine to build a synthesis query for text.
	AudioQuery(ctx context.Context, text string) (json.RawMessage, error)

	// Synthesize renders a query returned by AudioQuery into WAV bytes.
	Synthesize(ctx context.Context, query json.RawMessage) ([]byte, error)

	// Close releases any resources held by the synthesizer.
	Close() error
}

// Stage names the step of the exchange that failed.
type Stage string

const (
	StageQuery     Stage = "audio_query"
	StageSynthesis Stage = "synthesis"
)

// Error is returned by synthesizers when the engine answers with a
// non-success status or cannot be reached.
type Error struct {
	Stage      Stage
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Stage, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
