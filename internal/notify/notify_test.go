package notify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSound(t *testing.T) {
	tests := []struct {
		goos  string
		sound Sound
		want  Sound
	}{
		{"darwin", "Glass", "Glass"},
		{"darwin", SoundDefault, SoundDefault},
		{"linux", "Glass", SoundDefault},
		{"windows", "Basso", SoundDefault},
		{"freebsd", "Ping", SoundDefault},
	}
	for _, tt := range tests {
		t.Run(tt.goos+"/"+string(tt.sound), func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveSound(tt.goos, tt.sound))
		})
	}
}

type call struct {
	name string
	args []string
}

func fakeDesktop(goos string) (*Desktop, *[]call, *[][2]string) {
	var runs []call
	var beeps [][2]string
	d := &Desktop{
		goos: goos,
		run: func(name string, args ...string) error {
			runs = append(runs, call{name: name, args: args})
			return nil
		},
		beep: func(title, message string) error {
			beeps = append(beeps, [2]string{title, message})
			return nil
		},
	}
	return d, &runs, &beeps
}

func TestDesktopDarwinUsesSoundName(t *testing.T) {
	d, runs, beeps := fakeDesktop("darwin")

	require.NoError(t, d.Notify("作業開始", "Taroさん、1回目の作業を開始します。", "Glass"))

	require.Len(t, *runs, 1)
	assert.Empty(t, *beeps)
	assert.Equal(t, "osascript", (*runs)[0].name)
	assert.Equal(t, []string{"-e",
		`display notification "Taroさん、1回目の作業を開始します。" with title "作業開始" sound name "Glass"`,
	}, (*runs)[0].args)
}

func TestDesktopDarwinDefaultSound(t *testing.T) {
	d, runs, _ := fakeDesktop("darwin")

	require.NoError(t, d.Notify("t", "m", SoundDefault))

	require.Len(t, *runs, 1)
	assert.Equal(t, `display notification "m" with title "t"`, (*runs)[0].args[1])
}

func TestDesktopOtherPlatformsIgnoreSound(t *testing.T) {
	d, runs, beeps := fakeDesktop("linux")

	require.NoError(t, d.Notify("休憩開始", "msg", "Funk"))

	assert.Empty(t, *runs)
	assert.Equal(t, [][2]string{{"休憩開始", "msg"}}, *beeps)
}

func TestDesktopWrapsErrors(t *testing.T) {
	boom := errors.New("no notification daemon")
	d := &Desktop{goos: "linux", beep: func(string, string) error { return boom }}

	err := d.Notify("t", "m", SoundDefault)
	assert.ErrorIs(t, err, boom)
}

func TestAppleScriptEscaping(t *testing.T) {
	got := appleScript(`say "hi"`, `back\slash`, SoundDefault)
	assert.Equal(t, `display notification "back\\slash" with title "say \"hi\""`, got)
}
