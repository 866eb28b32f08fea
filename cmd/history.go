package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/focuswin/internal/game"
	"github.com/joescharf/focuswin/internal/output"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent study sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyRun()
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "Number of sessions to show (0 for all)")
	rootCmd.AddCommand(historyCmd)
}

func historyRun() error {
	if historyLimit < 0 {
		return fmt.Errorf("--limit must not be negative")
	}
	s, err := getStore()
	if err != nil {
		return err
	}

	records, err := s.ListSessions(cmdContext(), historyLimit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		ui.Info("No sessions yet. Start one from the dashboard ('focuswin serve').")
		return nil
	}

	table := ui.Table([]string{"Date", "Start", "Course", "Mode", "Duration", "XP", "Attention", "Result"})
	for _, r := range records {
		course := r.Course
		if course == "" {
			course = "-"
		}
		attention := "-"
		if r.AverageAttentionScore > 0 {
			attention = fmt.Sprintf("%.0f", r.AverageAttentionScore)
		}
		_ = table.Append([]string{
			r.Date,
			r.StartTime.Local().Format("15:04"),
			course,
			string(r.Mode),
			game.FormatClock(r.DurationSeconds),
			fmt.Sprintf("%.1f", r.XPEarned),
			attention,
			output.Outcome(r.HealthFailed, r.ChallengeFailed),
		})
	}
	return table.Render()
}
