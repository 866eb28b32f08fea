package window

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner map[string]struct {
	out string
	err error
}

func (f fakeRunner) run(_ context.Context, name string, args ...string) (string, error) {
	r, ok := f[name+" "+strings.Join(args, " ")]
	if !ok {
		return "", errors.New("unexpected command")
	}
	return r.out, r.err
}

func TestNewProvider(t *testing.T) {
	assert.IsType(t, &AppleScript{}, NewProvider("darwin"))
	assert.IsType(t, &Xdotool{}, NewProvider("linux"))

	p := NewProvider("plan9")
	require.IsType(t, &Static{}, p)
	sig, err := p.ActiveWindow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Unknown", sig.AppName)
}

func TestStatic(t *testing.T) {
	s := &Static{AppName: "Code", WindowTitle: "main.go"}
	sig, err := s.ActiveWindow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Signal{AppName: "Code", WindowTitle: "main.go", HasPermissions: true}, sig)
	assert.Equal(t, "Code main.go", sig.Text())

	s.Err = errors.New("boom")
	_, err = s.ActiveWindow(context.Background())
	assert.EqualError(t, err, "boom")
}

func TestAppleScript(t *testing.T) {
	a := &AppleScript{run: fakeRunner{
		"osascript -e " + frontAppScript:    {out: "Safari"},
		"osascript -e " + frontWindowScript: {out: "Khan Academy"},
	}.run}

	sig, err := a.ActiveWindow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Signal{AppName: "Safari", WindowTitle: "Khan Academy", HasPermissions: true}, sig)
}

func TestAppleScript_PermissionDenied(t *testing.T) {
	a := &AppleScript{run: fakeRunner{
		"osascript -e " + frontAppScript:    {out: "Safari"},
		"osascript -e " + frontWindowScript: {err: errors.New("osascript: System Events got an error: osascript is not allowed assistive access.")},
	}.run}

	sig, err := a.ActiveWindow(context.Background())
	assert.ErrorIs(t, err, ErrPermission)
	assert.False(t, sig.HasPermissions)
	assert.Equal(t, "Unknown", sig.AppName)
}

func TestXdotool(t *testing.T) {
	x := &Xdotool{
		run: fakeRunner{
			"xdotool getactivewindow getwindowname": {out: "Stack Overflow - Mozilla Firefox"},
			"xdotool getactivewindow getwindowpid":  {out: "4242"},
		}.run,
		processName: func(_ context.Context, pid int32) (string, error) {
			assert.Equal(t, int32(4242), pid)
			return "firefox", nil
		},
	}

	sig, err := x.ActiveWindow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Signal{AppName: "firefox", WindowTitle: "Stack Overflow - Mozilla Firefox", HasPermissions: true}, sig)
}

func TestXdotool_NoPID(t *testing.T) {
	x := &Xdotool{
		run: fakeRunner{
			"xdotool getactivewindow getwindowname": {out: "xterm"},
			"xdotool getactivewindow getwindowpid":  {err: errors.New("xdotool: window has no pid")},
		}.run,
		processName: processName,
	}

	sig, err := x.ActiveWindow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Unknown", sig.AppName)
	assert.Equal(t, "xterm", sig.WindowTitle)
}

func TestXdotool_NoDisplay(t *testing.T) {
	x := &Xdotool{run: fakeRunner{
		"xdotool getactivewindow getwindowname": {err: errors.New("xdotool: Can't open display")},
	}.run}

	_, err := x.ActiveWindow(context.Background())
	assert.Error(t, err)
}

func TestDenylist(t *testing.T) {
	d := NewDenylist(append(DefaultIgnoreApps, " ", "Python"))

	assert.True(t, d.Ignored(Signal{AppName: "focuswin"}))
	assert.True(t, d.Ignored(Signal{AppName: " StudyWin "}))
	assert.True(t, d.Ignored(Signal{AppName: "python"}))
	assert.False(t, d.Ignored(Signal{AppName: "Code", WindowTitle: "FocusWin"}), "only the app name is matched")
	assert.False(t, d.Ignored(Signal{AppName: ""}))

	var nilList *Denylist
	assert.False(t, nilList.Ignored(Signal{AppName: "FocusWin"}))
}
