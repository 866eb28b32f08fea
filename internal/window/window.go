// Package window reads the foreground application and window title.
package window

import (
	"context"
	"errors"
	"strings"
)

// ErrPermission is returned when the OS denies access to window titles.
var ErrPermission = errors.New("window access not permitted")

// Signal is the active window at one instant.
type Signal struct {
	AppName        string `json:"app_name"`
	WindowTitle    string `json:"window_title"`
	HasPermissions bool   `json:"has_permissions"`
}

// Text is the string the classifiers see.
func (s Signal) Text() string {
	return s.AppName + " " + s.WindowTitle
}

// Provider returns the current foreground window.
type Provider interface {
	ActiveWindow(ctx context.Context) (Signal, error)
}

// NewProvider selects the provider for an operating system (runtime.GOOS).
// Unsupported platforms get a Static provider that reports no permissions.
func NewProvider(goos string) Provider {
	switch goos {
	case "darwin":
		return NewAppleScript()
	case "linux":
		return NewXdotool()
	default:
		return &Static{AppName: "Unknown", WindowTitle: "Unsupported platform: " + goos}
	}
}

// Static always reports the same window. Used for demo mode and tests.
type Static struct {
	AppName     string
	WindowTitle string
	Err         error
}

func (s *Static) ActiveWindow(_ context.Context) (Signal, error) {
	if s.Err != nil {
		return Signal{}, s.Err
	}
	return Signal{AppName: s.AppName, WindowTitle: s.WindowTitle, HasPermissions: true}, nil
}

// DefaultIgnoreApps are the names under which our own UI shows up.
var DefaultIgnoreApps = []string{"FocusWin", "StudyWin", "AI Study Tracker"}

// Denylist marks windows that belong to our own UI. Matching is on the
// application name only, case-insensitive and exact.
type Denylist struct {
	names map[string]struct{}
}

// NewDenylist builds a denylist; blank names are dropped.
func NewDenylist(names []string) *Denylist {
	d := &Denylist{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			d.names[n] = struct{}{}
		}
	}
	return d
}

// Ignored reports whether the window should not affect the game.
func (d *Denylist) Ignored(s Signal) bool {
	if d == nil {
		return false
	}
	_, ok := d.names[strings.ToLower(strings.TrimSpace(s.AppName))]
	return ok
}
