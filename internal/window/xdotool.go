package window

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shirou/gopsutil/v3/process"
)

// Xdotool reads the active X11 window with xdotool and resolves the owning
// process name through gopsutil.
type Xdotool struct {
	run         runner
	processName func(ctx context.Context, pid int32) (string, error)
}

func NewXdotool() *Xdotool {
	return &Xdotool{run: runCmd, processName: processName}
}

func processName(ctx context.Context, pid int32) (string, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return "", fmt.Errorf("find process %d: %w", pid, err)
	}
	return p.NameWithContext(ctx)
}

func (x *Xdotool) ActiveWindow(ctx context.Context) (Signal, error) {
	title, err := x.run(ctx, "xdotool", "getactivewindow", "getwindowname")
	if err != nil {
		return Signal{}, err
	}

	sig := Signal{AppName: "Unknown", WindowTitle: title, HasPermissions: true}
	out, err := x.run(ctx, "xdotool", "getactivewindow", "getwindowpid")
	if err != nil {
		// Some windows carry no _NET_WM_PID; the title alone still classifies.
		return sig, nil
	}
	pid, err := strconv.ParseInt(out, 10, 32)
	if err != nil {
		return sig, nil
	}
	if name, err := x.processName(ctx, int32(pid)); err == nil && name != "" {
		sig.AppName = name
	}
	return sig, nil
}
