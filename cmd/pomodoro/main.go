// Pomodoro is a desktop pomodoro timer narrated by Zundamon. Each period
// change is narrated by an LLM, voiced through VOICEVOX, played on the local
// audio device and shown as a desktop notification.
//
// Usage:
//
//	pomodoro [flags] [test] [usageTime=<minutes>] [name=<name>]
//
// @title       pomodoro-timer status API
// @version     1.0
// @description Local status, health and metrics endpoints of the pomodoro timer.
// @BasePath    /
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"

	_ "github.com/Akira-Osanai/pomodoro-timer/docs"
	"github.com/Akira-Osanai/pomodoro-timer/internal/announce"
	"github.com/Akira-Osanai/pomodoro-timer/internal/clock"
	"github.com/Akira-Osanai/pomodoro-timer/internal/config"
	"github.com/Akira-Osanai/pomodoro-timer/internal/health"
	"github.com/Akira-Osanai/pomodoro-timer/internal/metrics"
	"github.com/Akira-Osanai/pomodoro-timer/internal/narrator"
	localnarrator "github.com/Akira-Osanai/pomodoro-timer/internal/narrator/local"
	openainarrator "github.com/Akira-Osanai/pomodoro-timer/internal/narrator/openai"
	"github.com/Akira-Osanai/pomodoro-timer/internal/notify"
	"github.com/Akira-Osanai/pomodoro-timer/internal/player"
	"github.com/Akira-Osanai/pomodoro-timer/internal/session"
	"github.com/Akira-Osanai/pomodoro-timer/internal/tts/voicevox"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	fs := config.NewFlagSet("pomodoro")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if v, _ := fs.GetBool("version"); v {
		fmt.Printf("pomodoro %s\n", version)
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load(fs)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging.
	config.SetupLogging(cfg.Logging)

	clk := clock.New(nil)
	slog.Info("pomodoro starting", clk.Attr(), "version", version)

	// Create root context with signal handling for graceful shutdown.
	ctx, cancel := signalContext(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	// Initialize the narrator backend.
	var backend narrator.Backend
	switch cfg.Narrator.Backend {
	case "openai":
		backend = openainarrator.New(cfg.Narrator.OpenAI)
		if cfg.Narrator.OpenAI.APIKey == "" {
			slog.Warn(config.APIKeyEnv+" is not set, narration will use the raw prompt", clk.Attr())
		}
		slog.Info("using OpenAI narrator", "model", cfg.Narrator.OpenAI.Model)
	case "local":
		backend = localnarrator.New(cfg.Narrator.Local)
		slog.Info("using local narrator", "endpoint", cfg.Narrator.Local.Endpoint, "model", cfg.Narrator.Local.Model)
	default:
		slog.Error("unknown narrator backend", "backend", cfg.Narrator.Backend)
		os.Exit(1)
	}
	defer backend.Close()

	synth := voicevox.New(cfg.TTS)
	defer synth.Close()
	slog.Info("using VOICEVOX", "endpoint", cfg.TTS.Endpoint, "speaker", cfg.TTS.Speaker)

	announcer := announce.New(synth, notify.NewDesktop(), player.New(cfg.Player.Command), clk, collector)
	generator := narrator.NewGenerator(backend, clk, collector)

	controller := session.New(session.Config{
		UserName:  cfg.User.Name,
		Work:      cfg.Timer.Work(),
		Break:     cfg.Timer.Break(),
		UsageTime: cfg.Timer.UsageTime(),
		Sounds: session.Sounds{
			Work:  notify.Sound(cfg.Sounds.Work),
			Break: notify.Sound(cfg.Sounds.Break),
			Start: notify.Sound(cfg.Sounds.Start),
			Exit:  notify.Sound(cfg.Sounds.Exit),
		},
	}, generator, announcer, clk, collector)

	// Start the status server. It outlives the signal context so that
	// /status stays up while the closing line is spoken.
	statusCtx, stopStatus := context.WithCancel(context.Background())
	defer stopStatus()
	if cfg.Status.Port > 0 {
		statusServer := health.New(cfg.Status.Port, controller.Snapshot, reg)
		go func() {
			if err := statusServer.ListenAndServe(statusCtx); err != nil {
				slog.Error("status server failed", "error", err)
			}
		}()
	}

	reason := controller.Run(ctx)
	slog.Info("pomodoro stopped", clk.Attr(), "reason", reason)
}

// signalContext returns a context cancelled by SIGINT or SIGTERM. Default
// signal handling is restored as soon as the context is done, so a second
// Ctrl-C during the closing line quits immediately.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	context.AfterFunc(ctx, stop)
	return ctx, stop
}
