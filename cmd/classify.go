package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/focuswin/internal/models"
	"github.com/joescharf/focuswin/internal/output"
)

var classifyAI bool

var classifyCmd = &cobra.Command{
	Use:   "classify <app-name> <window-title>",
	Short: "Show how a window would be classified",
	Long: `Run the keyword rules on an app name and window title, without
touching any session. With --ai, text no rule matches is sent to the
secondary classifier (requires anthropic.api_key).`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return classifyRun(args[0], args[1])
	},
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyAI, "ai", false, "Ask the secondary classifier when no rule matches")
	rootCmd.AddCommand(classifyCmd)
}

func classifyRun(appName, windowTitle string) error {
	engine, err := loadRules()
	if err != nil {
		return err
	}

	v := engine.Classify(appName, windowTitle)
	if v.State == models.FocusStateUnknown && classifyAI {
		client := newLLMClient()
		if client == nil {
			return fmt.Errorf("no API key configured (set anthropic.api_key or ANTHROPIC_API_KEY)")
		}
		label, conf, err := client.Predict(cmdContext(), appName+" "+windowTitle)
		if err != nil {
			return fmt.Errorf("classifier: %w", err)
		}
		v = models.FocusVerdict{
			State:      label,
			Confidence: conf,
			Reason:     fmt.Sprintf("AI classified as %s", label),
			Source:     models.SourceAI,
		}
	}

	fmt.Fprintf(ui.Out, "%s  %s\n", output.FocusColor(string(v.State)), v.Reason)
	ui.VerboseLog("source=%s confidence=%.2f", v.Source, v.Confidence)
	return nil
}
