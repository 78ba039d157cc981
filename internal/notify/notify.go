// Package notify raises desktop notifications for period changes.
//
// Custom sounds are a macOS feature. On every other platform the requested
// sound is dropped and the OS default notification sound is used.
package notify

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/gen2brain/beeep"
)

// Sound is a platform sound identifier. On macOS it is a system sound name
// such as "Glass".
type Sound string

// SoundDefault asks for the OS default notification sound.
const SoundDefault Sound = ""

// Notifier shows a notification without waiting for the user to dismiss it.
type Notifier interface {
	Notify(title, message string, sound Sound) error
}

// ResolveSound maps a requested sound to what the platform supports.
func ResolveSound(goos string, sound Sound) Sound {
	if goos == "darwin" {
		return sound
	}
	return SoundDefault
}

// Desktop is the Notifier for the running OS.
type Desktop struct {
	goos string
	run  func(name string, args ...string) error
	beep func(title, message string) error
}

// NewDesktop creates a notifier for runtime.GOOS.
func NewDesktop() *Desktop {
	return &Desktop{
		goos: runtime.GOOS,
		run: func(name string, args ...string) error {
			out, err := exec.Command(name, args...).CombinedOutput()
			if err != nil {
				return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
			}
			return nil
		},
		beep: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

// Notify shows the notification. The sound is resolved once for the
// platform before anything is sent.
func (d *Desktop) Notify(title, message string, sound Sound) error {
	sound = ResolveSound(d.goos, sound)

	if d.goos == "darwin" {
		if err := d.run("osascript", "-e", appleScript(title, message, sound)); err != nil {
			return fmt.Errorf("notification: %w", err)
		}
		return nil
	}

	if err := d.beep(title, message); err != nil {
		return fmt.Errorf("notification: %w", err)
	}
	return nil
}

var appleScriptEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// appleScript builds the "display notification" statement. beeep has no
// way to pass a sound name, so macOS goes through osascript directly.
func appleScript(title, message string, sound Sound) string {
	script := fmt.Sprintf(`display notification "%s" with title "%s"`,
		appleScriptEscaper.Replace(message), appleScriptEscaper.Replace(title))
	if sound != SoundDefault {
		script += fmt.Sprintf(` sound name "%s"`, appleScriptEscaper.Replace(string(sound)))
	}
	return script
}
