package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/spf13/cobra"

	"github.com/joescharf/focuswin/internal/game"
	"github.com/joescharf/focuswin/internal/models"
	"github.com/joescharf/focuswin/internal/store"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export session history",
	Long:  "Export all sessions as json (with progress and totals), csv or markdown.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return exportRun()
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Output format: json, csv, markdown")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

// exportData is the json export document.
type exportData struct {
	ExportedAt time.Time               `json:"exported_at"`
	GameState  models.GameState        `json:"game_state"`
	Totals     store.SessionStats      `json:"totals"`
	Courses    []*models.Course        `json:"courses"`
	Sessions   []*models.SessionRecord `json:"sessions"`
}

var csvHeader = []string{
	"id", "date", "course", "mode", "start_time", "end_time", "duration_seconds",
	"base_xp", "streak_bonus", "xp_earned", "health_failed", "challenge_failed",
	"challenge_duration", "average_attention_score",
}

func exportRun() error {
	switch exportFormat {
	case "json", "csv", "markdown", "md":
	default:
		return fmt.Errorf("unknown format %q (want json, csv or markdown)", exportFormat)
	}

	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := cmdContext()

	sessions, err := s.ListSessions(ctx, 0)
	if err != nil {
		return err
	}

	var w io.Writer = ui.Out
	if exportOutput != "" {
		if dryRun {
			ui.DryRunMsg("Would write %d sessions to %s", len(sessions), exportOutput)
			return nil
		}
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	switch exportFormat {
	case "csv":
		err = writeSessionsCSV(w, sessions)
	case "markdown", "md":
		err = writeSessionsMarkdown(w, sessions)
	default:
		var data exportData
		data.ExportedAt = time.Now().UTC()
		if data.GameState, err = s.LoadGameState(ctx); err != nil {
			return err
		}
		if data.Totals, err = s.SessionStats(ctx); err != nil {
			return err
		}
		if data.Courses, err = s.ListCourses(ctx); err != nil {
			return err
		}
		data.Sessions = sessions
		err = writeJSONExport(w, data)
	}
	if err != nil {
		return err
	}

	if exportOutput != "" {
		ui.Success("Exported %d sessions to %s", len(sessions), exportOutput)
	}
	return nil
}

func writeJSONExport(w io.Writer, data exportData) error {
	if data.Courses == nil {
		data.Courses = []*models.Course{}
	}
	if data.Sessions == nil {
		data.Sessions = []*models.SessionRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func writeSessionsCSV(w io.Writer, sessions []*models.SessionRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	ff := func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
	for _, r := range sessions {
		row := []string{
			r.ID,
			r.Date,
			r.Course,
			string(r.Mode),
			r.StartTime.Format(time.RFC3339),
			r.EndTime.Format(time.RFC3339),
			strconv.Itoa(r.DurationSeconds),
			ff(r.BaseXP),
			ff(r.StreakBonus),
			ff(r.XPEarned),
			strconv.FormatBool(r.HealthFailed),
			strconv.FormatBool(r.ChallengeFailed),
			strconv.Itoa(r.ChallengeDuration),
			ff(r.AverageAttentionScore),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeSessionsMarkdown(w io.Writer, sessions []*models.SessionRecord) error {
	table := tablewriter.NewTable(w, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header([]string{"Date", "Course", "Mode", "Duration", "XP", "Result"})
	for _, r := range sessions {
		result := "ok"
		switch {
		case r.HealthFailed:
			result = "health depleted"
		case r.ChallengeFailed:
			result = "challenge failed"
		}
		if err := table.Append([]string{
			r.Date, r.Course, string(r.Mode), game.FormatClock(r.DurationSeconds),
			fmt.Sprintf("%.1f", r.XPEarned), result,
		}); err != nil {
			return err
		}
	}
	return table.Render()
}
