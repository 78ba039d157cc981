// Package config handles parsing and validating the pomodoro timer configuration.
//
// Everything is driven from the command line. Besides the regular flags the
// timer accepts the bare tokens "test", "usageTime=<minutes>" and
// "name=<display name>". The only value read from the environment is the
// OpenAI credential.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Preset durations for work and break periods.
const (
	WorkDuration      = 25 * time.Minute
	BreakDuration     = 5 * time.Minute
	TestWorkDuration  = 60 * time.Second
	TestBreakDuration = 30 * time.Second
)

// DefaultUserName is used in narration when no name is given.
const DefaultUserName = "ユーザ"

// APIKeyEnv is the environment variable holding the OpenAI credential.
const APIKeyEnv = "OPENAI_API_KEY"

// Sounds accepted for notifications. They are macOS system sound names;
// other platforms always fall back to the OS default sound.
var knownSounds = map[string]bool{
	"Basso": true, "Blow": true, "Bottle": true, "Frog": true, "Funk": true,
	"Glass": true, "Hero": true, "Morse": true, "Ping": true, "Pop": true,
	"Purr": true, "Sosumi": true, "Submarine": true, "Tink": true,
}

// Config is the root configuration for the pomodoro timer.
type Config struct {
	User     UserConfig     `mapstructure:"user"`
	Timer    TimerConfig    `mapstructure:"timer"`
	Narrator NarratorConfig `mapstructure:"narrator"`
	TTS      TTSConfig      `mapstructure:"tts"`
	Player   PlayerConfig   `mapstructure:"player"`
	Sounds   SoundsConfig   `mapstructure:"sounds"`
	Status   StatusConfig   `mapstructure:"status"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// UserConfig identifies who the narration talks to.
type UserConfig struct {
	Name string `mapstructure:"name"`
}

// TimerConfig selects the period preset and the optional total run time.
type TimerConfig struct {
	Test         bool `mapstructure:"test"`
	UsageMinutes int  `mapstructure:"usage_time"` // 0 = run until interrupted
}

// Work returns the work period length for the selected preset.
func (t TimerConfig) Work() time.Duration {
	if t.Test {
		return TestWorkDuration
	}
	return WorkDuration
}

// Break returns the break period length for the selected preset.
func (t TimerConfig) Break() time.Duration {
	if t.Test {
		return TestBreakDuration
	}
	return BreakDuration
}

// UsageTime returns the total run time, or zero when unlimited.
func (t TimerConfig) UsageTime() time.Duration {
	if t.UsageMinutes <= 0 {
		return 0
	}
	return time.Duration(t.UsageMinutes) * time.Minute
}

// NarratorConfig selects and configures the text generation backend.
type NarratorConfig struct {
	Backend string       `mapstructure:"backend"` // "openai" or "local"
	OpenAI  OpenAIConfig `mapstructure:"openai"`
	Local   LocalConfig  `mapstructure:"local"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"` // empty = SDK default
}

// LocalConfig holds settings for a self-hosted chat endpoint (Ollama, llama.cpp server).
type LocalConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// TTSConfig configures the VOICEVOX engine.
type TTSConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Speaker  int    `mapstructure:"speaker"`
}

// PlayerConfig optionally overrides the platform audio player command.
// The command is split into shell words and "{file}" is replaced with the
// audio path; without a placeholder the path is appended.
type PlayerConfig struct {
	Command string `mapstructure:"command"`
}

// SoundsConfig names the notification sound for each kind of event.
type SoundsConfig struct {
	Work  string `mapstructure:"work"`
	Break string `mapstructure:"break"`
	Start string `mapstructure:"start"`
	Exit  string `mapstructure:"exit"`
}

// StatusConfig configures the local status server.
type StatusConfig struct {
	Port int `mapstructure:"port"` // 0 disables the server
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// flagBindings maps config keys to the command-line flags that set them.
var flagBindings = map[string]string{
	"user.name":                "name",
	"timer.test":               "test",
	"timer.usage_time":         "usage-time",
	"narrator.backend":         "narrator-backend",
	"narrator.openai.model":    "openai-model",
	"narrator.openai.base_url": "openai-base-url",
	"narrator.local.endpoint":  "local-endpoint",
	"narrator.local.model":     "local-model",
	"tts.endpoint":             "voicevox-url",
	"tts.speaker":              "speaker",
	"player.command":           "player",
	"sounds.work":              "work-sound",
	"sounds.break":             "break-sound",
	"sounds.start":             "start-sound",
	"sounds.exit":              "exit-sound",
	"status.port":              "status-port",
	"logging.level":            "log-level",
	"logging.format":           "log-format",
}

// NewFlagSet returns the flag set understood by the timer.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.Bool("version", false, "print version and exit")

	fs.String("name", DefaultUserName, "display name used in narration (same as name=<name>)")
	fs.Bool("test", false, "use the accelerated 60s/30s preset (same as the test token)")
	fs.Int("usage-time", 0, "total run time in minutes, 0 runs until interrupted (same as usageTime=<n>)")

	fs.String("narrator-backend", "openai", `narration backend: "openai" or "local"`)
	fs.String("openai-model", "gpt-4o-mini", "OpenAI chat model")
	fs.String("openai-base-url", "", "override the OpenAI API base URL")
	fs.String("local-endpoint", "http://localhost:11434/v1/chat/completions", "chat endpoint for the local backend")
	fs.String("local-model", "llama3", "model name for the local backend")

	fs.String("voicevox-url", "http://localhost:50021", "VOICEVOX engine base URL")
	fs.Int("speaker", 3, "VOICEVOX speaker id")
	fs.String("player", "", `audio player command, e.g. "paplay {file}"`)

	fs.String("work-sound", "Glass", "notification sound for work periods")
	fs.String("break-sound", "Funk", "notification sound for break periods")
	fs.String("start-sound", "Ping", "notification sound at startup")
	fs.String("exit-sound", "Basso", "notification sound at exit")

	fs.Int("status-port", 0, "serve /healthz, /status and /metrics on this localhost port (0 disables)")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.String("log-format", "text", "log format: text or json")
	return fs
}

// Load builds the configuration from a parsed flag set. Positional
// arguments left over after flag parsing are read as legacy tokens and take
// precedence over the equivalent flags.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	for key, flagName := range flagBindings {
		flag := fs.Lookup(flagName)
		if flag == nil {
			return nil, fmt.Errorf("flag --%s is not registered", flagName)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("binding flag --%s: %w", flagName, err)
		}
	}

	if err := v.BindEnv("narrator.openai.api_key", APIKeyEnv); err != nil {
		return nil, fmt.Errorf("binding %s: %w", APIKeyEnv, err)
	}

	applyLegacyArgs(v, fs.Args())

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if strings.TrimSpace(cfg.User.Name) == "" {
		cfg.User.Name = DefaultUserName
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyLegacyArgs reads the bare "test", "usageTime=" and "name=" tokens.
// The first occurrence of each token wins; unknown tokens are ignored.
func applyLegacyArgs(v *viper.Viper, args []string) {
	seen := make(map[string]bool)
	for _, arg := range args {
		key, value, hasValue := strings.Cut(arg, "=")
		if seen[key] {
			continue
		}
		switch {
		case arg == "test":
			v.Set("timer.test", true)
		case key == "usageTime" && hasValue:
			minutes, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || minutes <= 0 {
				slog.Warn("ignoring usageTime, expected a positive number of minutes", "value", value)
				break
			}
			v.Set("timer.usage_time", minutes)
		case key == "name" && hasValue:
			if value != "" {
				v.Set("user.name", value)
			}
		default:
			slog.Debug("ignoring unknown argument", "arg", arg)
			continue
		}
		seen[key] = true
	}
}

func validate(cfg *Config) error {
	switch cfg.Narrator.Backend {
	case "openai", "local":
	default:
		return fmt.Errorf("narrator.backend must be one of openai|local, got %q", cfg.Narrator.Backend)
	}
	if cfg.Narrator.Backend == "local" && cfg.Narrator.Local.Endpoint == "" {
		return fmt.Errorf("narrator.local.endpoint must be set when backend=local")
	}
	if cfg.Timer.UsageMinutes < 0 {
		return fmt.Errorf("timer.usage_time must be >= 0, got %d", cfg.Timer.UsageMinutes)
	}
	if cfg.TTS.Endpoint == "" {
		return fmt.Errorf("tts.endpoint must not be empty")
	}
	if cfg.TTS.Speaker < 0 {
		return fmt.Errorf("tts.speaker must be >= 0, got %d", cfg.TTS.Speaker)
	}
	if cfg.Status.Port < 0 || cfg.Status.Port > 65535 {
		return fmt.Errorf("status.port must be between 0 and 65535, got %d", cfg.Status.Port)
	}
	for name, sound := range map[string]string{
		"work": cfg.Sounds.Work, "break": cfg.Sounds.Break,
		"start": cfg.Sounds.Start, "exit": cfg.Sounds.Exit,
	} {
		if sound != "" && !knownSounds[sound] {
			return fmt.Errorf("sounds.%s: unknown sound %q", name, sound)
		}
	}
	return nil
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
