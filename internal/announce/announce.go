// Package announce speaks narration lines and raises the notifications that
// go with them.
//
// Speak runs the pipeline audio query → notify → synthesize → write temp
// file → play → remove. Every step is best effort: failures are logged,
// counted and dropped, and never reach the session loop.
package announce

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Akira-Osanai/pomodoro-timer/internal/clock"
	"github.com/Akira-Osanai/pomodoro-timer/internal/message"
	"github.com/Akira-Osanai/pomodoro-timer/internal/metrics"
	"github.com/Akira-Osanai/pomodoro-timer/internal/notify"
	"github.com/Akira-Osanai/pomodoro-timer/internal/tts"
)

// Player plays an audio file and blocks until playback ends.
type Player interface {
	Play(ctx context.Context, path string) error
}

// Announcer is the speak pipeline.
type Announcer struct {
	synth    tts.Synthesizer
	notifier notify.Notifier
	player   Player
	clock    *clock.Clock
	metrics  metrics.Recorder
	tempDir  string
	log      *slog.Logger
}

// New creates an Announcer. A nil rec discards metrics.
func New(synth tts.Synthesizer, notifier notify.Notifier, player Player, clk *clock.Clock, rec metrics.Recorder) *Announcer {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Announcer{
		synth:    synth,
		notifier: notifier,
		player:   player,
		clock:    clk,
		metrics:  rec,
		tempDir:  os.TempDir(),
		log:      slog.With("component", "announce"),
	}
}

// Speak synthesizes text and plays it. The "ポモドーロタイマー" notification
// carrying text and sound is raised as soon as the audio query succeeds,
// before synthesis. If the query fails nothing is shown or played.
func (a *Announcer) Speak(ctx context.Context, text string, sound notify.Sound) {
	start := time.Now()

	// Step 1: Build the audio query.
	query, err := a.synth.AudioQuery(ctx, text)
	if err != nil {
		a.fail(ctx, tts.StageQuery, "voicevox", err)
		return
	}

	// Step 2: Show the line while audio is being rendered.
	a.Notify(message.TitleTimer, text, sound)

	// Step 3: Render the audio.
	audio, err := a.synth.Synthesize(ctx, query)
	if err != nil {
		a.fail(ctx, tts.StageSynthesis, "voicevox", err)
		return
	}

	// Step 4: Write it to a file unique to this utterance.
	path := filepath.Join(a.tempDir, "pomodoro_voice_"+uuid.NewString()+".wav")
	if err := os.WriteFile(path, audio, 0o600); err != nil {
		a.fail(ctx, "write", "file", fmt.Errorf("writing audio file: %w", err))
		return
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			a.log.Warn("removing audio file failed", a.clock.Attr(), "path", path, "error", err)
		}
	}()

	// Step 5: Play it.
	if err := a.player.Play(ctx, path); err != nil {
		a.fail(ctx, "player", "player", err)
		return
	}

	a.metrics.RecordUtterance()
	a.log.Debug("utterance played", a.clock.Attr(), "audio_bytes", len(audio), "duration", time.Since(start))
}

// Notify raises a desktop notification. Errors are logged and dropped.
func (a *Announcer) Notify(title, body string, sound notify.Sound) {
	if err := a.notifier.Notify(title, body, sound); err != nil {
		a.metrics.RecordNotification(false)
		a.log.Warn("notification failed", a.clock.Attr(), "category", "notify", "title", title, "error", err)
		return
	}
	a.metrics.RecordNotification(true)
}

// fail logs and counts a failed step. A step cut short by a cancelled
// context is not a failure and is only logged at debug.
func (a *Announcer) fail(ctx context.Context, stage tts.Stage, category string, err error) {
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		a.log.Debug("speech cancelled", a.clock.Attr(), "category", category, "stage", stage, "error", err)
		return
	}
	a.metrics.RecordSpeechFailure(string(stage))
	a.log.Error("speech failed", a.clock.Attr(), "category", category, "stage", stage, "error", err)
}
