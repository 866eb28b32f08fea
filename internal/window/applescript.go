package window

import (
	"context"
	"fmt"
	"strings"
)

const (
	frontAppScript    = `tell application "System Events" to get name of (first application process whose frontmost is true)`
	frontWindowScript = `tell application "System Events" to get name of window 1 of (first application process whose frontmost is true)`
)

// AppleScript reads the frontmost window through osascript. Window titles
// need the Accessibility permission.
type AppleScript struct {
	run runner
}

func NewAppleScript() *AppleScript {
	return &AppleScript{run: runCmd}
}

func (a *AppleScript) ActiveWindow(ctx context.Context) (Signal, error) {
	app, err := a.run(ctx, "osascript", "-e", frontAppScript)
	if err != nil {
		return a.fail(err)
	}
	title, err := a.run(ctx, "osascript", "-e", frontWindowScript)
	if err != nil {
		return a.fail(err)
	}
	return Signal{AppName: app, WindowTitle: title, HasPermissions: true}, nil
}

func (a *AppleScript) fail(err error) (Signal, error) {
	sig := Signal{AppName: "Unknown", WindowTitle: "Unknown"}
	if strings.Contains(err.Error(), "not allowed assistive access") {
		return sig, fmt.Errorf("%w: grant Accessibility access in System Settings", ErrPermission)
	}
	return sig, err
}
