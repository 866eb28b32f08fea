package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/joescharf/focuswin/internal/game"
	"github.com/joescharf/focuswin/internal/output"
	"github.com/joescharf/focuswin/internal/tracker"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show level, XP, streak and study totals",
	Long: `Show persisted progress. When the tracker is running, the live focus
state and session are shown as well.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return statusRun()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func statusRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := cmdContext()

	st, err := s.LoadGameState(ctx)
	if err != nil {
		return err
	}
	stats, err := s.SessionStats(ctx)
	if err != nil {
		return err
	}

	nextLevel := float64(st.Level * 100)
	lastStudy := "never"
	if st.LastStudyDate != nil {
		lastStudy = st.LastStudyDate.Local().Format(time.DateOnly)
	}

	table := ui.Table([]string{"Stat", "Value"})
	_ = table.Append([]string{"Level", output.Cyan(fmt.Sprintf("%d", st.Level))})
	_ = table.Append([]string{"XP", fmt.Sprintf("%.1f / %.0f %s", st.XP, nextLevel, output.Bar(st.XP, nextLevel, 20))})
	_ = table.Append([]string{"Study time", game.FormatClock(st.TotalStudySeconds)})
	_ = table.Append([]string{"Streak", fmt.Sprintf("%d days (best %d)", st.CurrentStreak, st.BestStreak)})
	_ = table.Append([]string{"Last study", lastStudy})
	_ = table.Append([]string{"Sessions", fmt.Sprintf("%d (%d failed)", stats.Sessions, stats.Failed)})
	_ = table.Append([]string{"XP earned", fmt.Sprintf("%.1f", stats.XPEarned)})
	if err := table.Render(); err != nil {
		return err
	}

	if snap, ok := fetchLiveStatus(ctx, "http://"+serveAddr()); ok {
		fmt.Fprintln(ui.Out)
		printLiveStatus(snap)
	} else {
		ui.VerboseLog("Tracker not reachable at %s", serveAddr())
	}
	return nil
}

// fetchLiveStatus reads the snapshot of a running tracker.
func fetchLiveStatus(ctx context.Context, baseURL string) (tracker.Snapshot, bool) {
	var snap tracker.Snapshot

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/v1/status", nil)
	if err != nil {
		return snap, false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return snap, false
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return snap, false
	}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return snap, false
	}
	return snap, true
}

func printLiveStatus(snap tracker.Snapshot) {
	ui.Info("Now: %s  %s", output.FocusColor(string(snap.FocusState)), snap.FocusReason)
	ui.Info("Window: %s - %s", snap.AppName, snap.WindowTitle)
	if !snap.HasPermissions {
		ui.Warning("Window access denied, grant accessibility permissions")
	}
	if !snap.SessionActive {
		ui.Info("No active session")
		return
	}

	line := fmt.Sprintf("Session: %s %s, health %s %s", snap.SessionMode, snap.SessionTimeFormatted,
		output.HealthColor(snap.Health), output.Bar(snap.Health, 100, 10))
	if snap.Course != "" {
		line += ", course " + snap.Course
	}
	if snap.SessionPaused {
		line += " (paused)"
	}
	ui.Info("%s", line)
}
