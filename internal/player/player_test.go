package player

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandFor(t *testing.T) {
	const path = "/tmp/pomodoro_voice_1.wav"

	assert.Equal(t, []string{"afplay", path}, CommandFor("darwin", path))
	assert.Equal(t, []string{"aplay", path}, CommandFor("linux", path))
	assert.Equal(t, []string{"powershell", "-c",
		"(New-Object Media.SoundPlayer '/tmp/pomodoro_voice_1.wav').PlaySync();"},
		CommandFor("windows", path))
	assert.Nil(t, CommandFor("plan9", path))
}

func TestCommandForWindowsQuotesPath(t *testing.T) {
	got := CommandFor("windows", `C:\Users\O'Neil\voice.wav`)
	assert.Equal(t, `(New-Object Media.SoundPlayer 'C:\Users\O''Neil\voice.wav').PlaySync();`, got[2])
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    []string
	}{
		{"placeholder", "paplay {file}", []string{"paplay", "/a.wav"}},
		{"appended", "mpv --no-video", []string{"mpv", "--no-video", "/a.wav"}},
		{"quoted", `ffplay -nodisp -autoexit "{file}"`, []string{"ffplay", "-nodisp", "-autoexit", "/a.wav"}},
		{"embedded", "play --file={file}", []string{"play", "--file=/a.wav"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommand(tt.command, "/a.wav")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommandErrors(t *testing.T) {
	_, err := ParseCommand("   ", "/a.wav")
	assert.Error(t, err)

	_, err = ParseCommand(`paplay "unterminated`, "/a.wav")
	assert.Error(t, err)
}

func TestPlayUnsupportedPlatformIsSilent(t *testing.T) {
	p := &Player{goos: "plan9", run: func(context.Context, []string) error {
		t.Fatal("player must not run")
		return nil
	}}

	assert.NoError(t, p.Play(context.Background(), "/a.wav"))
	assert.NoError(t, p.Play(context.Background(), "/b.wav"))

	_, err := p.Command("/a.wav")
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
}

func TestPlayUsesOverride(t *testing.T) {
	var got []string
	p := &Player{goos: "plan9", command: "paplay {file}", run: func(_ context.Context, args []string) error {
		got = args
		return nil
	}}

	require.NoError(t, p.Play(context.Background(), "/a.wav"))
	assert.Equal(t, []string{"paplay", "/a.wav"}, got)
}

func TestPlayBuiltin(t *testing.T) {
	var got []string
	p := &Player{goos: "darwin", run: func(_ context.Context, args []string) error {
		got = args
		return nil
	}}

	require.NoError(t, p.Play(context.Background(), "/a.wav"))
	assert.Equal(t, []string{"afplay", "/a.wav"}, got)
}
