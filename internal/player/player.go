// Package player plays a synthesized audio file through the platform's
// command-line player and blocks until playback finishes.
package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/mattn/go-shellwords"
)

// FilePlaceholder is replaced with the audio path in a custom player command.
const FilePlaceholder = "{file}"

// ErrUnsupportedPlatform is returned by Command when no player is known for
// the OS and no custom command was configured.
var ErrUnsupportedPlatform = errors.New("no audio player for this platform")

// CommandFor returns the built-in player invocation for goos, or nil when
// the platform has none.
func CommandFor(goos, path string) []string {
	switch goos {
	case "darwin":
		return []string{"afplay", path}
	case "windows":
		return []string{"powershell", "-c",
			fmt.Sprintf("(New-Object Media.SoundPlayer '%s').PlaySync();", strings.ReplaceAll(path, "'", "''"))}
	case "linux":
		return []string{"aplay", path}
	default:
		return nil
	}
}

// ParseCommand splits a custom player command into arguments. Every
// occurrence of FilePlaceholder is replaced with path; if there is none the
// path is appended as the last argument.
func ParseCommand(command, path string) ([]string, error) {
	args, err := shellwords.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parsing player command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("player command is empty")
	}

	replaced := false
	for i, a := range args {
		if strings.Contains(a, FilePlaceholder) {
			args[i] = strings.ReplaceAll(a, FilePlaceholder, path)
			replaced = true
		}
	}
	if !replaced {
		args = append(args, path)
	}
	return args, nil
}

// Player runs the audio player.
type Player struct {
	goos    string
	command string
	run     func(ctx context.Context, args []string) error

	unsupported sync.Once
}

// New creates a Player for the running OS. A non-empty command overrides
// the built-in player.
func New(command string) *Player {
	return &Player{goos: runtime.GOOS, command: command, run: runCommand}
}

// Command returns the arguments that Play would run for path.
func (p *Player) Command(path string) ([]string, error) {
	if strings.TrimSpace(p.command) != "" {
		return ParseCommand(p.command, path)
	}
	args := CommandFor(p.goos, path)
	if args == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, p.goos)
	}
	return args, nil
}

// Play blocks until the player exits. On a platform without a player
// nothing is played and Play returns nil; this is logged once.
func (p *Player) Play(ctx context.Context, path string) error {
	args, err := p.Command(path)
	if errors.Is(err, ErrUnsupportedPlatform) {
		p.unsupported.Do(func() {
			slog.Warn("audio playback disabled, set --player to enable it", "os", p.goos)
		})
		return nil
	}
	if err != nil {
		return err
	}
	slog.Debug("playing audio", "player", args[0], "path", path)
	return p.run(ctx, args)
}

func runCommand(ctx context.Context, args []string) error {
	out, err := exec.CommandContext(ctx, args[0], args[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}
