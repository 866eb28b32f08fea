package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/joescharf/focuswin/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP stdio server",
	Long: `Start an MCP (Model Context Protocol) server on stdio so an assistant
can read focus status and history and start or stop sessions.

  {
    "mcpServers": {
      "focuswin": { "command": "focuswin", "args": ["mcp"] }
    }
  }

The server runs its own tracker on the shared database, so do not run it
alongside 'focuswin serve'.

Available tools: focus_status, focus_start_session, focus_stop_session,
focus_list_history, focus_list_courses, focus_classify`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return mcpRun()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func mcpRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(cmdContext())
	defer cancel()

	// Stdout carries the protocol; diagnostics go to stderr or nowhere.
	logger := newLogger(io.Discard)
	if verbose {
		logger = stderrLogger()
	}

	deps, err := buildTracker(s, newProvider("", ""), nil, logger)
	if err != nil {
		return err
	}
	if err := deps.tracker.Load(ctx); err != nil {
		return err
	}
	go func() { _ = deps.tracker.Run(ctx) }()

	err = mcp.NewServer(deps.tracker, s, buildVersion).ServeStdio(ctx)
	if deps.tracker.Snapshot().SessionActive {
		_, _ = deps.tracker.StopSession(context.Background())
	}
	return err
}
